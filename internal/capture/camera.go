package capture

import (
	"context"
	"image"
)

// Facing selects which physical camera to request.
type Facing string

const (
	FacingEnvironment Facing = "environment"
	FacingUser        Facing = "user"
)

// Camera hands out live streams. Acquire may block on a permission prompt.
type Camera interface {
	Acquire(ctx context.Context, facing Facing) (Stream, error)
}

// Stream is a live camera feed. Stop releases the hardware and must be safe
// to call more than once.
type Stream interface {
	Frame(ctx context.Context) (image.Image, error)
	Stop()
}
