package capture

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/pkg/errors"

	"bizcard/internal/models"
)

// State is a step of the two-photo capture sequence.
type State int

const (
	StateIdle State = iota
	StateAwaitingFront
	StateAwaitingBack
	StateCaptured
	StateAnalyzing
	StateReviewing
	StatePermissionDenied
)

var stateNames = map[State]string{
	StateIdle:             "idle",
	StateAwaitingFront:    "awaiting_front",
	StateAwaitingBack:     "awaiting_back",
	StateCaptured:         "captured",
	StateAnalyzing:        "analyzing",
	StateReviewing:        "reviewing",
	StatePermissionDenied: "permission_denied",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return errors.Errorf("capture: unknown state %q", text)
}

// Extractor turns captured images into structured contact data. A nil back
// means only the front was captured.
type Extractor interface {
	Extract(ctx context.Context, front models.Image, back *models.Image) (models.Extraction, error)
}

// Option configures a Controller.
type Option func(*Controller)

// WithEncoder sets how frames are frozen into stills.
func WithEncoder(e Encoder) Option {
	return func(c *Controller) { c.encoder = e }
}

// WithAcquireTimeout bounds how long camera acquisition may block.
func WithAcquireTimeout(d time.Duration) Option {
	return func(c *Controller) { c.acquireTimeout = d }
}

// WithFacing selects the camera to request.
func WithFacing(f Facing) Option {
	return func(c *Controller) { c.facing = f }
}

// WithLogger sets the logger for transitions and failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// Controller sequences front and back capture, owns the camera stream and
// hands the stills to the extractor. At most one operation runs at a time;
// a second caller gets ErrBusy.
type Controller struct {
	camera         Camera
	extractor      Extractor
	encoder        Encoder
	facing         Facing
	acquireTimeout time.Duration
	log            *slog.Logger

	mu      sync.Mutex
	state   State
	stream  Stream
	front   *models.Image
	back    *models.Image
	result  *models.Extraction
	lastErr error
	busy    bool
	closed  bool
}

// New creates a controller in StateIdle. Call Start to open the camera.
func New(camera Camera, extractor Extractor, opts ...Option) *Controller {
	c := &Controller{
		camera:    camera,
		extractor: extractor,
		encoder:   DefaultEncoder(),
		facing:    FacingEnvironment,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot is a read-only view of the controller.
type Snapshot struct {
	State        State              `json:"state"`
	CameraActive bool               `json:"cameraActive"`
	Busy         bool               `json:"busy"`
	HasFront     bool               `json:"hasFront"`
	HasBack      bool               `json:"hasBack"`
	Result       *models.Extraction `json:"result,omitempty"`
	Error        string             `json:"error,omitempty"`
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		State:        c.state,
		CameraActive: c.stream != nil,
		Busy:         c.busy,
		HasFront:     c.front != nil,
		HasBack:      c.back != nil,
	}
	if c.result != nil {
		r := *c.result
		s.Result = &r
	}
	if c.lastErr != nil {
		s.Error = c.lastErr.Error()
	}
	return s
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start opens the camera for the front capture. It is also the fresh user
// gesture that retries after a permission denial.
func (c *Controller) Start(ctx context.Context) error {
	if err := c.begin(StateIdle, StatePermissionDenied); err != nil {
		return err
	}
	c.mu.Lock()
	c.clear()
	c.mu.Unlock()
	return c.openCamera(ctx, StateAwaitingFront)
}

// StartCamera re-acquires the camera for the back capture after the user has
// turned the card over. It is a no-op while a stream is already live.
func (c *Controller) StartCamera(ctx context.Context) error {
	if err := c.begin(StateAwaitingBack); err != nil {
		return err
	}
	c.mu.Lock()
	if c.stream != nil {
		c.busy = false
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()
	return c.openCamera(ctx, StateAwaitingBack)
}

// Capture freezes the current frame as the front or back image and releases
// the camera.
func (c *Controller) Capture(ctx context.Context) error {
	c.mu.Lock()
	if err := c.check(StateAwaitingFront, StateAwaitingBack); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.stream == nil {
		c.mu.Unlock()
		return ErrNoStream
	}
	from, stream := c.state, c.stream
	c.busy = true
	c.mu.Unlock()

	img, err := c.grab(ctx, stream)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if c.closed {
		return ErrClosed
	}
	if err != nil {
		c.lastErr = err
		c.log.Warn("frame capture failed", slog.String("state", from.String()), slog.Any("error", err))
		return err
	}

	c.lastErr = nil
	c.releaseStream()
	if from == StateAwaitingFront {
		c.front = &img
		c.transition(StateAwaitingBack)
	} else {
		c.back = &img
		c.transition(StateCaptured)
	}
	return nil
}

// SkipBack finishes the sequence with only the front image.
func (c *Controller) SkipBack() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check(StateAwaitingBack); err != nil {
		return err
	}
	c.releaseStream()
	c.back = nil
	c.transition(StateCaptured)
	return nil
}

// Retake discards both images and any result, then reopens the camera for a
// new front capture.
func (c *Controller) Retake(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	c.clear()
	c.busy = true
	c.mu.Unlock()
	return c.openCamera(ctx, StateAwaitingFront)
}

// Analyze sends the captured images to the extractor. On failure the
// controller returns to StateCaptured so the call can be retried without
// capturing again.
func (c *Controller) Analyze(ctx context.Context) (models.Extraction, error) {
	c.mu.Lock()
	if err := c.check(StateCaptured); err != nil {
		c.mu.Unlock()
		return models.Extraction{}, err
	}
	c.busy = true
	c.releaseStream()
	front := *c.front
	var back *models.Image
	if c.back != nil {
		b := *c.back
		back = &b
	}
	c.lastErr = nil
	c.transition(StateAnalyzing)
	c.mu.Unlock()

	result, err := c.extractor.Extract(ctx, front, back)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if c.closed {
		return models.Extraction{}, ErrClosed
	}
	if err != nil {
		c.lastErr = err
		c.transition(StateCaptured)
		c.log.Error("card extraction failed", slog.Bool("back", back != nil), slog.Any("error", err))
		return models.Extraction{}, err
	}
	c.result = &result
	c.transition(StateReviewing)
	return result, nil
}

// Review is everything needed to save a reviewed card.
type Review struct {
	Front  models.Image
	Back   *models.Image
	Result models.Extraction
}

// Review returns the images and extraction result once in StateReviewing.
func (c *Controller) Review() (Review, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check(StateReviewing); err != nil {
		return Review{}, err
	}
	r := Review{Front: *c.front, Result: *c.result}
	if c.back != nil {
		b := *c.back
		r.Back = &b
	}
	return r, nil
}

// Close releases the camera and drops all captured data. It is safe to call
// at any time, including while an operation is in flight; that operation's
// outcome is discarded.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.clear()
	c.state = StateIdle
	return nil
}

func (c *Controller) check(allowed ...State) error {
	if c.closed {
		return ErrClosed
	}
	if c.busy {
		return ErrBusy
	}
	if !slices.Contains(allowed, c.state) {
		return errors.Wrapf(ErrInvalidTransition, "state %s", c.state)
	}
	return nil
}

// begin validates the transition and marks the controller busy.
func (c *Controller) begin(allowed ...State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check(allowed...); err != nil {
		return err
	}
	c.busy = true
	return nil
}

// openCamera acquires a stream and enters target, or StatePermissionDenied on
// failure. The caller must have marked the controller busy.
func (c *Controller) openCamera(ctx context.Context, target State) error {
	stream, err := c.acquire(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if c.closed {
		if stream != nil {
			stream.Stop()
		}
		return ErrClosed
	}
	if err != nil {
		c.lastErr = err
		c.transition(StatePermissionDenied)
		c.log.Warn("camera unavailable", slog.Any("error", err))
		return err
	}
	c.releaseStream()
	c.stream = stream
	c.lastErr = nil
	c.transition(target)
	return nil
}

type acquisition struct {
	stream Stream
	err    error
}

func (c *Controller) acquire(ctx context.Context) (Stream, error) {
	if c.acquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.acquireTimeout)
		defer cancel()
	}

	done := make(chan acquisition, 1)
	go func() {
		s, err := c.camera.Acquire(ctx, c.facing)
		done <- acquisition{stream: s, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, &PermissionError{Err: r.err}
		}
		if r.stream == nil {
			return nil, &PermissionError{Err: errors.New("camera returned no stream")}
		}
		return r.stream, nil
	case <-ctx.Done():
		// a camera that ignores ctx may still hand back a stream later
		go func() {
			if r := <-done; r.stream != nil {
				r.stream.Stop()
			}
		}()
		return nil, &PermissionError{Err: errors.Wrap(ctx.Err(), "camera acquisition timed out")}
	}
}

func (c *Controller) grab(ctx context.Context, stream Stream) (models.Image, error) {
	frame, err := stream.Frame(ctx)
	if err != nil {
		return models.Image{}, errors.Wrap(err, "failed to read frame")
	}
	return c.encoder.Encode(frame)
}

func (c *Controller) releaseStream() {
	if c.stream != nil {
		c.stream.Stop()
		c.stream = nil
	}
}

func (c *Controller) clear() {
	c.releaseStream()
	c.front = nil
	c.back = nil
	c.result = nil
	c.lastErr = nil
}

func (c *Controller) transition(to State) {
	if c.state != to {
		c.log.Debug("capture state changed", slog.String("from", c.state.String()), slog.String("to", to.String()))
	}
	c.state = to
}
