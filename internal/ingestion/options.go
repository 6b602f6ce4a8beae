package ingestion

import (
	"time"

	"github.com/okian/radar/internal/domain/dedupe"
	"github.com/okian/radar/pkg/logger"
)

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithDeduper sets the seen-fact cache. Defaults to an in-memory deduper.
func WithDeduper(d dedupe.Deduper) Option {
	return func(in *Ingestor) {
		if d != nil {
			in.dedupe = d
		}
	}
}

// WithPublisher sets where appended events are published.
func WithPublisher(p Publisher) Option {
	return func(in *Ingestor) {
		if p != nil {
			in.publisher = p
		}
	}
}

// WithClock sets the clock for CreatedAt and undated facts.
func WithClock(now func() time.Time) Option {
	return func(in *Ingestor) {
		if now != nil {
			in.now = now
		}
	}
}

// WithIDGenerator overrides event id generation.
func WithIDGenerator(gen func() string) Option {
	return func(in *Ingestor) {
		if gen != nil {
			in.newID = gen
		}
	}
}

// WithLogger sets the ingestor logger.
func WithLogger(l logger.Logger) Option {
	return func(in *Ingestor) {
		if l != nil {
			in.log = l
		}
	}
}
