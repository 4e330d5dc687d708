package capture

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidTransition is returned when an operation is not allowed in
	// the controller's current state.
	ErrInvalidTransition = errors.New("capture: operation not allowed in current state")
	// ErrBusy is returned while another capture or analyze call is in flight.
	ErrBusy = errors.New("capture: another operation is in progress")
	// ErrNoStream is returned when capture is requested without a live camera.
	ErrNoStream = errors.New("capture: camera is not active")
	// ErrClosed is returned after the controller has been torn down.
	ErrClosed = errors.New("capture: controller closed")
	// ErrNoFrame is returned by a stream that has not produced a frame yet.
	ErrNoFrame = errors.New("capture: no frame available")
	// ErrDenied is the cause reported when the user refused camera access.
	ErrDenied = errors.New("capture: camera permission denied")
	// ErrInvalidImage is returned for uploads that are not a decodable image.
	ErrInvalidImage = errors.New("capture: invalid image")
)

// PermissionError reports that the camera could not be acquired. It is
// terminal for the attempt; only a fresh Start or Retake tries again.
type PermissionError struct {
	Err error
}

func (e *PermissionError) Error() string {
	if e.Err == nil {
		return "camera access denied"
	}
	return "camera access denied: " + e.Err.Error()
}

func (e *PermissionError) Unwrap() error {
	return e.Err
}
