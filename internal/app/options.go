package service

import (
	"time"

	"github.com/okian/radar/internal/adapters/repository"
	"github.com/okian/radar/internal/adapters/source"
	"github.com/okian/radar/internal/config"
	"github.com/okian/radar/internal/ingestion"
	"github.com/okian/radar/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the process configuration. Defaults to config.New().
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithStore injects the radar store instead of opening one from config.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithSources injects the aggregation adapters and ingestion fact feeds.
// Injected sources are used as is, without guards or caching.
func WithSources(set source.Set, facts source.FactSet) Option {
	return func(s *Service) {
		s.sources = &set
		s.facts = facts
	}
}

// WithPublisher sets where ingested events are published.
func WithPublisher(p ingestion.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithClock sets the service clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
