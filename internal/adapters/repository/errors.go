package repository

import (
	"errors"
	"fmt"
)

// Sentinel kinds for store errors.
var (
	// ErrStore marks an infrastructure failure. Callers may retry.
	ErrStore        = errors.New("radar store unavailable")
	ErrInvalidLimit = errors.New("invalid limit")
	ErrInvalidInput = errors.New("invalid store input")
)

// Error is an infrastructure failure in one store operation.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

// Unwrap exposes both ErrStore and the underlying cause.
func (e *Error) Unwrap() []error {
	return []error{ErrStore, e.Err}
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}
