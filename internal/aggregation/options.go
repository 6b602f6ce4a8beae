package aggregation

import (
	"time"

	"github.com/okian/radar/internal/domain/scoring"
	"github.com/okian/radar/pkg/logger"
)

// Defaults used when no option overrides them.
const (
	DefaultAdapterTimeout = 5 * time.Second
	DefaultMaxConcurrency = 10
	DefaultMaxBatch       = 500
)

// Option configures an Engine.
type Option func(*Engine)

// WithScorer sets the scorer that derives the composite scores.
func WithScorer(s *scoring.Scorer) Option {
	return func(e *Engine) {
		if s != nil {
			e.scorer = s
		}
	}
}

// WithAdapterTimeout bounds every single adapter call.
func WithAdapterTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.adapterTimeout = d
		}
	}
}

// WithMaxConcurrency sets how many entities a batch aggregates at once.
func WithMaxConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxConcurrency = n
		}
	}
}

// WithMaxBatch caps how many entities one batch accepts.
func WithMaxBatch(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxBatch = n
		}
	}
}

// WithClock sets the clock used for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}
