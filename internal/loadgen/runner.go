package loadgen

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/internal/ingestion"
	"github.com/okian/radar/pkg/logger"
)

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the run logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// WithHTTPClient replaces the default client, e.g. with an httptest server's.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Runner) { r.httpClient = c }
}

// WithClock sets the clock event dates are derived from.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// Runner executes load runs against one service.
type Runner struct {
	cfg        Config
	client     *HTTPClient
	httpClient *http.Client
	log        logger.Logger
	now        func() time.Time
}

// NewRunner creates a runner for cfg. Zero numeric fields take DefaultConfig values.
func NewRunner(cfg Config, opts ...Option) *Runner {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Workers < 1 {
		cfg.Workers = def.Workers
	}
	if cfg.TopN < 1 {
		cfg.TopN = def.TopN
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Prefix == "" {
		cfg.Prefix = def.Prefix
	}
	r := &Runner{cfg: cfg, log: logger.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	r.client = newHTTPClient(cfg, r.httpClient)
	return r
}

// Run executes the complete load run.
func (r *Runner) Run(ctx context.Context) (stats Stats, err error) {
	start := r.now()
	defer func() { stats.Duration = r.now().Sub(start) }()

	r.log.Info(ctx, "starting radar load run",
		logger.String("base_url", r.cfg.BaseURL),
		logger.Int("entities", r.cfg.Entities),
		logger.Int("events_per_entity", r.cfg.EventsPerEntity),
		logger.Int("workers", r.cfg.Workers),
	)

	if err := r.checkHealth(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	entities := generateEntities(r.cfg)
	registered := fanOut(ctx, r.cfg.Workers, entities, func(ctx context.Context, e model.Entity) string {
		return outcome(r.client.Post(ctx, "/entities", e, nil))
	})
	stats.EntitiesRegistered = registered[outcomeAccepted]
	stats.EntitiesFailed = registered[outcomeRejected] + registered[outcomeFailed]
	r.log.Info(ctx, "entities registered",
		logger.Int("registered", stats.EntitiesRegistered),
		logger.Int("failed", stats.EntitiesFailed))

	events := generateEvents(r.cfg, entities, r.now().UTC())
	submitted := fanOut(ctx, r.cfg.Workers, events, func(ctx context.Context, m ingestion.ManualEvent) string {
		return outcome(r.client.Post(ctx, "/events", m, nil))
	})
	stats.EventsSubmitted = len(events)
	stats.EventsAccepted = submitted[outcomeAccepted]
	stats.EventsRejected = submitted[outcomeRejected]
	stats.EventsFailed = submitted[outcomeFailed]
	r.log.Info(ctx, "events submitted",
		logger.Int("accepted", stats.EventsAccepted),
		logger.Int("rejected", stats.EventsRejected),
		logger.Int("failed", stats.EventsFailed))

	aggregated, err := r.aggregate(ctx, entities)
	stats.Aggregated = aggregated
	if err != nil {
		return stats, fmt.Errorf("batch aggregation failed: %w", err)
	}

	for _, by := range []string{"momentum", "breakout", "risk"} {
		var top topResponse
		status, err := r.client.Get(ctx, topPath(by, r.cfg.TopN), &top)
		if err != nil {
			return stats, fmt.Errorf("top %s: %w", by, err)
		}
		if status != http.StatusOK {
			return stats, fmt.Errorf("top %s: status %d", by, status)
		}
		if err := verifyRanking(by, top.Entries, r.cfg.TopN); err != nil {
			return stats, err
		}
		stats.RankingsChecked++
		stats.LeaderboardEntries += len(top.Entries)
	}

	r.log.Info(ctx, "load run completed",
		logger.Int("aggregated", stats.Aggregated),
		logger.Int("rankings_checked", stats.RankingsChecked),
		logger.Duration("duration", r.now().Sub(start)))
	return stats, nil
}

// checkHealth verifies the service is up.
func (r *Runner) checkHealth(ctx context.Context) error {
	status, err := r.client.Get(ctx, "/healthz", nil)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("status %d", status)
	}
	return nil
}

// aggregate triggers batch aggregation in BatchSize chunks.
func (r *Runner) aggregate(ctx context.Context, entities []model.Entity) (int, error) {
	total := 0
	for start := 0; start < len(entities); start += r.cfg.BatchSize {
		chunk := entities[start:min(start+r.cfg.BatchSize, len(entities))]
		ids := make([]string, len(chunk))
		for i, e := range chunk {
			ids[i] = e.ID
		}
		var resp batchResponse
		status, err := r.client.Post(ctx, "/aggregate/batch", batchRequest{EntityIDs: ids}, &resp)
		if err != nil {
			return total, err
		}
		if status != http.StatusOK {
			return total, fmt.Errorf("status %d", status)
		}
		total += resp.Succeeded
	}
	return total, nil
}
