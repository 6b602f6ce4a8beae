package service

import (
	"errors"
	"fmt"

	"github.com/okian/radar/internal/adapters/repository"
	"github.com/okian/radar/internal/aggregation"
	"github.com/okian/radar/internal/ingestion"
	"github.com/okian/radar/internal/recommend"
	"github.com/okian/radar/internal/scene"
)

// Error kinds surfaced to the HTTP and CLI layers. Store failures keep
// repository.ErrStore in their chain and are not remapped.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNoData       = errors.New("no data")
	ErrUpstream     = errors.New("upstream unavailable")
	ErrQueueFull    = errors.New("aggregation queue full")
	ErrNotStarted   = errors.New("service not started")
)

// classify tags package-level errors with the service kind they belong to.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var aggErr *aggregation.AggregationError
	switch {
	case errors.Is(err, aggregation.ErrInvalidInput),
		errors.Is(err, ingestion.ErrInvalidInput),
		errors.Is(err, scene.ErrInvalidInput),
		errors.Is(err, recommend.ErrInvalidInput),
		errors.Is(err, repository.ErrInvalidInput),
		errors.Is(err, repository.ErrInvalidLimit):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	case errors.Is(err, ingestion.ErrDuplicateEvent):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	case errors.Is(err, ingestion.ErrEntityNotFound):
		return fmt.Errorf("%w: %w", ErrNoData, err)
	case errors.As(err, &aggErr):
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return err
}
