package store

import (
	"github.com/pkg/errors"
)

// ErrNotFound is returned when a document or blob does not exist or belongs
// to another owner.
var ErrNotFound = errors.New("not found")

// PersistenceError reports a failed read or write against the backing store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return "persistence " + e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func fail(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}
