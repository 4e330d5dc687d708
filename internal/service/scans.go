package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"bizcard/internal/capture"
	"bizcard/internal/models"
)

// minSweepInterval bounds how often Run wakes up for short TTLs
const minSweepInterval = time.Second

// ErrSessionNotFound is returned for unknown, expired or foreign scan sessions.
var ErrSessionNotFound = errors.New("scan session not found")

// ScanConfig tunes the capture sessions.
type ScanConfig struct {
	Encoder        capture.Encoder
	AcquireTimeout time.Duration
	TTL            time.Duration
}

// ScanSession is one remote capture sequence. Frames arrive through Camera
// and the Controller sequences them.
type ScanSession struct {
	ID         string
	OwnerID    string
	Camera     *capture.PushCamera
	Controller *capture.Controller

	lastUsed time.Time
	saving   bool
}

// ScanService keeps the capture sessions of connected clients
type ScanService struct {
	extractor capture.Extractor
	cards     *CardService
	cfg       ScanConfig
	log       *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*ScanSession
}

// NewScanService creates a new scan session registry
func NewScanService(extractor capture.Extractor, cards *CardService, cfg ScanConfig, log *slog.Logger) *ScanService {
	if log == nil {
		log = slog.Default()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 15 * time.Minute
	}
	if cfg.Encoder.Quality == 0 {
		cfg.Encoder = capture.DefaultEncoder()
	}
	return &ScanService{
		extractor: extractor,
		cards:     cards,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
		sessions:  make(map[string]*ScanSession),
	}
}

// Start opens a new session for ownerID with the camera already started
func (s *ScanService) Start(ctx context.Context, ownerID string) (*ScanSession, error) {
	cam := capture.NewPushCamera()
	sess := &ScanSession{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		Camera:  cam,
		Controller: capture.New(cam, s.extractor,
			capture.WithEncoder(s.cfg.Encoder),
			capture.WithAcquireTimeout(s.cfg.AcquireTimeout),
			capture.WithLogger(s.log.With(slog.String("owner", ownerID))),
		),
	}
	if err := sess.Controller.Start(ctx); err != nil {
		sess.Controller.Close()
		return nil, err
	}

	s.mu.Lock()
	sess.lastUsed = s.now()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.log.Debug("scan session started", slog.String("owner", ownerID), slog.String("session", sess.ID))
	return sess, nil
}

// Get returns a session of ownerID and marks it as used
func (s *ScanService) Get(ownerID, id string) (*ScanSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.OwnerID != ownerID {
		return nil, ErrSessionNotFound
	}
	sess.lastUsed = s.now()
	return sess, nil
}

// Frame replaces the session's latest camera frame with an uploaded image
func (s *ScanService) Frame(ownerID, id string, r io.Reader) error {
	sess, err := s.Get(ownerID, id)
	if err != nil {
		return err
	}
	return sess.Camera.PushEncoded(r)
}

// Permission records the client's camera permission outcome. A denial moves
// the session to the permission-denied state. A grant is the fresh gesture
// that restarts the camera after a denial, or reopens it for the back side.
func (s *ScanService) Permission(ctx context.Context, ownerID, id string, granted bool) error {
	sess, err := s.Get(ownerID, id)
	if err != nil {
		return err
	}
	ctl := sess.Controller
	if !granted {
		sess.Camera.Deny("reported by client")
		if ctl.State() == capture.StatePermissionDenied {
			return nil
		}
		var perm *capture.PermissionError
		if err := ctl.Retake(ctx); err != nil && !errors.As(err, &perm) {
			return err
		}
		return nil
	}

	sess.Camera.Grant()
	switch ctl.State() {
	case capture.StatePermissionDenied:
		return ctl.Start(ctx)
	case capture.StateAwaitingBack:
		return ctl.StartCamera(ctx)
	}
	return nil
}

// Capture freezes the latest frame as the current side
func (s *ScanService) Capture(ctx context.Context, ownerID, id string) error {
	sess, err := s.Get(ownerID, id)
	if err != nil {
		return err
	}
	return sess.Controller.Capture(ctx)
}

// SkipBack finishes the capture with only the front side
func (s *ScanService) SkipBack(ownerID, id string) error {
	sess, err := s.Get(ownerID, id)
	if err != nil {
		return err
	}
	return sess.Controller.SkipBack()
}

// Retake discards the session's images and restarts the camera
func (s *ScanService) Retake(ctx context.Context, ownerID, id string) error {
	sess, err := s.Get(ownerID, id)
	if err != nil {
		return err
	}
	return sess.Controller.Retake(ctx)
}

// Analyze runs extraction over the captured images
func (s *ScanService) Analyze(ctx context.Context, ownerID, id string) (models.Extraction, error) {
	sess, err := s.Get(ownerID, id)
	if err != nil {
		return models.Extraction{}, err
	}
	return sess.Controller.Analyze(ctx)
}

// Save persists the reviewed card and ends the session. Only one save runs
// per session; concurrent callers get capture.ErrBusy.
func (s *ScanService) Save(ctx context.Context, ownerID, id string, req models.SaveCardRequest) (models.SaveCardResponse, error) {
	sess, err := s.claim(ownerID, id)
	if err != nil {
		return models.SaveCardResponse{}, err
	}
	review, err := sess.Controller.Review()
	if err != nil {
		s.release(sess)
		return models.SaveCardResponse{}, err
	}
	resp, err := s.cards.Save(ctx, ownerID, review, req)
	if err != nil {
		s.release(sess)
		return models.SaveCardResponse{}, err
	}
	s.remove(id)
	return resp, nil
}

// claim marks a session as being saved
func (s *ScanService) claim(ownerID, id string) (*ScanSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.OwnerID != ownerID {
		return nil, ErrSessionNotFound
	}
	if sess.saving {
		return nil, capture.ErrBusy
	}
	sess.saving = true
	sess.lastUsed = s.now()
	return sess, nil
}

// release hands a session back after a failed save so it can be retried
func (s *ScanService) release(sess *ScanSession) {
	s.mu.Lock()
	sess.saving = false
	sess.lastUsed = s.now()
	s.mu.Unlock()
}

// Close ends a session, releasing its camera
func (s *ScanService) Close(ownerID, id string) error {
	if _, err := s.Get(ownerID, id); err != nil {
		return err
	}
	s.remove(id)
	return nil
}

// Extract analyses uploaded front and optional back photos in one call,
// outside any session.
func (s *ScanService) Extract(ctx context.Context, front, back io.Reader) (models.Extraction, error) {
	f, err := s.encode(front)
	if err != nil {
		return models.Extraction{}, errors.Wrap(err, "front image")
	}
	var b *models.Image
	if back != nil {
		img, err := s.encode(back)
		if err != nil {
			return models.Extraction{}, errors.Wrap(err, "back image")
		}
		b = &img
	}
	return s.extractor.Extract(ctx, f, b)
}

func (s *ScanService) encode(r io.Reader) (models.Image, error) {
	img, err := capture.DecodeImage(r)
	if err != nil {
		return models.Image{}, err
	}
	return s.cfg.Encoder.Encode(img)
}

func (s *ScanService) remove(id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		sess.Controller.Close()
	}
}

// Sweep closes sessions idle for longer than the TTL and returns how many
// were closed
func (s *ScanService) Sweep() int {
	cutoff := s.now().Add(-s.cfg.TTL)

	s.mu.Lock()
	var expired []*ScanSession
	for id, sess := range s.sessions {
		if !sess.saving && sess.lastUsed.Before(cutoff) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.Controller.Close()
		s.log.Debug("scan session expired", slog.String("session", sess.ID))
	}
	return len(expired)
}

// Run sweeps expired sessions until ctx is done, then closes the rest
func (s *ScanService) Run(ctx context.Context) {
	ticker := time.NewTicker(max(s.cfg.TTL/2, minSweepInterval))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *ScanService) closeAll() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*ScanSession)
	s.mu.Unlock()
	for _, sess := range sessions {
		sess.Controller.Close()
	}
}

// Len returns the number of open sessions.
func (s *ScanService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
