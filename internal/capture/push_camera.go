package capture

import (
	"context"
	"image"
	"io"
	"sync"

	"github.com/pkg/errors"
)

// PushCamera is a Camera whose frames are supplied by a remote client, such
// as a browser uploading snapshots of its local video preview. The client
// also reports the outcome of its own permission prompt.
type PushCamera struct {
	mu     sync.Mutex
	frame  image.Image
	denied error
	active *pushStream
}

// NewPushCamera returns a camera with permission granted and no frame yet.
func NewPushCamera() *PushCamera {
	return &PushCamera{}
}

// Deny makes subsequent acquisitions fail with ErrDenied.
func (p *PushCamera) Deny(reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if reason == "" {
		p.denied = ErrDenied
	} else {
		p.denied = errors.Wrap(ErrDenied, reason)
	}
}

// Grant clears a previous denial.
func (p *PushCamera) Grant() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.denied = nil
}

// Active reports whether a stream is currently open.
func (p *PushCamera) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active != nil
}

// Push replaces the latest frame. Frames are only accepted while a stream
// is open.
func (p *PushCamera) Push(img image.Image) error {
	if img == nil {
		return errors.New("capture: nil frame")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active == nil {
		return ErrNoStream
	}
	p.frame = img
	return nil
}

// PushEncoded decodes an uploaded image and pushes it as the latest frame.
func (p *PushCamera) PushEncoded(r io.Reader) error {
	img, err := DecodeImage(r)
	if err != nil {
		return err
	}
	return p.Push(img)
}

// Acquire opens a stream unless the client reported a denial.
func (p *PushCamera) Acquire(ctx context.Context, _ Facing) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.denied != nil {
		return nil, p.denied
	}
	if p.active != nil {
		p.active.stopLocked()
	}
	s := &pushStream{cam: p}
	p.active = s
	return s, nil
}

type pushStream struct {
	cam     *PushCamera
	stopped bool
}

func (s *pushStream) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.cam.mu.Lock()
	defer s.cam.mu.Unlock()
	if s.stopped {
		return nil, ErrNoStream
	}
	if s.cam.frame == nil {
		return nil, ErrNoFrame
	}
	return s.cam.frame, nil
}

func (s *pushStream) Stop() {
	s.cam.mu.Lock()
	defer s.cam.mu.Unlock()
	s.stopLocked()
}

// stopLocked drops the latest frame so a later stream never reuses it.
func (s *pushStream) stopLocked() {
	if s.stopped {
		return
	}
	s.stopped = true
	if s.cam.active == s {
		s.cam.active = nil
		s.cam.frame = nil
	}
}
