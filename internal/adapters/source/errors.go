package source

import (
	"errors"
	"fmt"
)

// Sentinel errors for adapter calls.
var (
	ErrBreakerOpen    = errors.New("circuit breaker open")
	ErrAdapterTimeout = errors.New("adapter call timed out")
	ErrUpstream       = errors.New("upstream error")
	ErrDecode         = errors.New("decode upstream response")
)

// StatusError is a non-success HTTP status from an upstream.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s: status %d", e.URL, e.Status)
}

// Unwrap allows errors.Is(err, ErrUpstream).
func (e *StatusError) Unwrap() error { return ErrUpstream }
