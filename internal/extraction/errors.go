package extraction

import (
	"github.com/pkg/errors"
)

// ErrNotConfigured is the cause reported when no model credentials are set.
var ErrNotConfigured = errors.New("extraction service is not configured")

// ErrNoContactData is the cause reported when the model answered but found
// nothing usable on the card.
var ErrNoContactData = errors.New("no contact data found on card")

// Error reports that extraction could not be completed. Callers never get a
// partially-populated record alongside it. The captured images can be sent
// again without re-capturing.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "extraction " + e.Op + " failed"
	}
	return "extraction " + e.Op + " failed: " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func fail(op string, err error) error {
	return &Error{Op: op, Err: err}
}
