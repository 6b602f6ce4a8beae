package aggregation

import (
	"errors"
	"fmt"

	"github.com/okian/radar/internal/domain/model"
)

// ErrInvalidInput marks a request rejected before any upstream call.
var ErrInvalidInput = errors.New("invalid aggregation input")

// AggregationError is an upstream failure while aggregating one entity.
type AggregationError struct {
	EntityID string
	Source   model.EventSource
	Err      error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("aggregate %s: %s adapter: %v", e.EntityID, e.Source, e.Err)
}

func (e *AggregationError) Unwrap() error { return e.Err }
