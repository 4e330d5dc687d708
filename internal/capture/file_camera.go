package capture

import (
	"context"
	"image"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// FileCamera serves image files as camera streams, one file per acquisition
// in order. It lets the capture sequence run from the command line.
type FileCamera struct {
	mu    sync.Mutex
	paths []string
	next  int
}

// NewFileCamera returns a camera that yields paths in order.
func NewFileCamera(paths ...string) *FileCamera {
	return &FileCamera{paths: paths}
}

// Acquire opens the next file. A missing or unreadable file is reported the
// way a denied camera would be.
func (f *FileCamera) Acquire(ctx context.Context, _ Facing) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.next >= len(f.paths) {
		return nil, errors.Wrap(ErrDenied, "no more image files")
	}
	path := f.paths[f.next]
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, "cannot open %s", path)
	}
	f.next++
	return &fileStream{path: path}, nil
}

type fileStream struct {
	path    string
	mu      sync.Mutex
	stopped bool
}

func (s *fileStream) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		return nil, ErrNoStream
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", s.path)
	}
	defer f.Close()
	return DecodeImage(f)
}

func (s *fileStream) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}
