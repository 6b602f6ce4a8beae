package repository

import (
	"time"

	"github.com/okian/radar/pkg/logger"
)

type settings struct {
	now          func() time.Time
	queryTimeout time.Duration
	log          logger.Logger
}

func defaultSettings() settings {
	return settings{
		now:          time.Now,
		queryTimeout: 5 * time.Second,
		log:          logger.Nop(),
	}
}

// Option configures a store.
type Option func(*settings)

// WithClock sets the clock used to filter expired recommendations.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithQueryTimeout bounds every SQL statement. Ignored by the memory store.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.queryTimeout = d
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}
