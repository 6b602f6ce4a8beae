package api

import (
	"errors"
	"net/http"

	"github.com/okian/radar/internal/adapters/repository"
	service "github.com/okian/radar/internal/app"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrServe      = errors.New("http serve failed")
)

// Error codes in JSON error bodies.
const (
	codeBadRequest   = "bad_request"
	codeInvalid      = "invalid_input"
	codeNoData       = "no_data"
	codeStore        = "store_unavailable"
	codeUpstream     = "upstream_unavailable"
	codeBackpressure = "backpressure"
	codeNotReady     = "not_ready"
	codeInternal     = "internal_error"
)

// statusFor maps a service error to its HTTP status, error code and whether
// the caller may retry.
func statusFor(err error) (int, string, bool) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, codeInvalid, false
	case errors.Is(err, service.ErrNoData):
		return http.StatusNotFound, codeNoData, false
	case errors.Is(err, repository.ErrStore):
		return http.StatusServiceUnavailable, codeStore, true
	case errors.Is(err, service.ErrUpstream):
		return http.StatusBadGateway, codeUpstream, true
	case errors.Is(err, service.ErrQueueFull):
		return http.StatusTooManyRequests, codeBackpressure, true
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, codeNotReady, true
	}
	return http.StatusInternalServerError, codeInternal, false
}
