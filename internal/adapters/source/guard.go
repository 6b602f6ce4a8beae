package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/pkg/logger"
	"github.com/okian/radar/pkg/metrics"
	"github.com/okian/radar/pkg/option"
)

// Guard protects one upstream with a circuit breaker, a token bucket and an
// optional per-call timeout, and records every call in metrics.
type Guard struct {
	name        string
	breaker     *gobreaker.CircuitBreaker
	limiter     *rate.Limiter
	timeout     time.Duration
	maxFailures uint32
	openFor     time.Duration
	rps         float64
	burst       int
	log         logger.Logger
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithBreaker trips after maxFailures consecutive failures and stays open for openFor.
func WithBreaker(maxFailures int, openFor time.Duration) GuardOption {
	return func(g *Guard) {
		if maxFailures > 0 {
			g.maxFailures = uint32(maxFailures)
		}
		if openFor > 0 {
			g.openFor = openFor
		}
	}
}

// WithRateLimit allows rps calls per second with the given burst. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) GuardOption {
	return func(g *Guard) {
		g.rps = rps
		if burst > 0 {
			g.burst = burst
		}
	}
}

// WithCallTimeout bounds each call. Zero leaves the caller's deadline alone.
func WithCallTimeout(d time.Duration) GuardOption {
	return func(g *Guard) {
		g.timeout = d
	}
}

// WithGuardLogger sets the logger.
func WithGuardLogger(l logger.Logger) GuardOption {
	return func(g *Guard) {
		if l != nil {
			g.log = l
		}
	}
}

// NewGuard builds a guard for the upstream called name.
func NewGuard(name string, opts ...GuardOption) *Guard {
	g := &Guard{
		name:        name,
		maxFailures: 5,
		openFor:     30 * time.Second,
		burst:       1,
		log:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rps > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(g.rps), g.burst)
	}

	st := gobreaker.Settings{
		Name:     name,
		Interval: 60 * time.Second,
		Timeout:  g.openFor,
	}
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		if counts.ConsecutiveFailures >= g.maxFailures {
			return true
		}
		if counts.Requests < 20 {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) > 0.5
	}
	// The caller giving up is not an upstream failure.
	st.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, context.Canceled)
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		metrics.UpdateBreakerState(name, int(to))
		g.log.Warn(context.Background(), "circuit breaker state change",
			logger.Source(name), logger.String("from", from.String()), logger.String("to", to.String()))
	}
	g.breaker = gobreaker.NewCircuitBreaker(st)
	return g
}

// Name returns the upstream name.
func (g *Guard) Name() string { return g.name }

// Do runs fn under the guard.
func (g *Guard) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	start := time.Now()
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	err := g.wait(ctx)
	if err == nil {
		err = g.execute(ctx, fn)
	}

	result := metrics.ResultOK
	switch {
	case err == nil:
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		result = metrics.ResultOpen
		err = fmt.Errorf("%s: %w", g.name, ErrBreakerOpen)
	case errors.Is(err, context.DeadlineExceeded):
		result = metrics.ResultTimeout
		err = fmt.Errorf("%s: %w: %w", g.name, ErrAdapterTimeout, err)
	default:
		result = metrics.ResultError
	}
	metrics.RecordAdapterCall(g.name, result, time.Since(start).Seconds())
	return err
}

// execute runs fn through the breaker on its own goroutine and stops waiting
// once ctx is done. A result that arrives after the deadline counts against
// the breaker as a timeout.
func (g *Guard) execute(ctx context.Context, fn func(ctx context.Context) error) error {
	done := make(chan error, 1)
	go func() {
		_, err := g.breaker.Execute(func() (any, error) {
			err := fn(ctx)
			if err == nil && ctx.Err() != nil {
				err = ctx.Err()
			}
			return nil, err
		})
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Guard) wait(ctx context.Context) error {
	if g.limiter == nil {
		return nil
	}
	if err := g.limiter.Wait(ctx); err != nil {
		// rate.Limiter reports a deadline it cannot meet with its own error text.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: rate limit wait: %w", context.DeadlineExceeded, err)
	}
	return nil
}

func guarded[T any](ctx context.Context, g *Guard, fn func(context.Context) (option.Option[T], error)) (option.Option[T], error) {
	var out option.Option[T]
	err := g.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	if err != nil {
		return option.None[T](), err
	}
	return out, nil
}

// GuardSet wraps every adapter in set with its own Guard built from opts.
func GuardSet(set Set, opts ...GuardOption) Set {
	return Set{
		Campaign: guardedCampaign{set.Campaign, NewGuard(string(model.SourceCampaign), opts...)},
		Graph:    guardedGraph{set.Graph, NewGuard(string(model.SourceGraph), opts...)},
		Coverage: guardedCoverage{set.Coverage, NewGuard(string(model.SourceCoverage), opts...)},
		Creative: guardedCreative{set.Creative, NewGuard(string(model.SourceCreative), opts...)},
		Audience: guardedAudience{set.Audience, NewGuard(string(model.SourceAudience), opts...)},
		Scene:    guardedScene{set.Scene, NewGuard(string(model.SourceScene), opts...)},
	}
}

// GuardFacts wraps every fact feed with its own Guard.
func GuardFacts(facts FactSet, opts ...GuardOption) FactSet {
	out := make(FactSet, len(facts))
	for src, fs := range facts {
		g := NewGuard(string(src)+"_facts", opts...)
		fs := fs
		out[src] = FactSourceFunc(func(ctx context.Context, id string) ([]Fact, error) {
			var facts []Fact
			err := g.Do(ctx, func(ctx context.Context) error {
				var err error
				facts, err = fs.Facts(ctx, id)
				return err
			})
			if err != nil {
				return nil, err
			}
			return facts, nil
		})
	}
	return out
}

type guardedCampaign struct {
	next CampaignAdapter
	g    *Guard
}

func (a guardedCampaign) CampaignMetrics(ctx context.Context, id string) (option.Option[CampaignMetrics], error) {
	return guarded(ctx, a.g, func(ctx context.Context) (option.Option[CampaignMetrics], error) {
		return a.next.CampaignMetrics(ctx, id)
	})
}

type guardedGraph struct {
	next GraphAdapter
	g    *Guard
}

func (a guardedGraph) GraphMetrics(ctx context.Context, id string) (option.Option[GraphMetrics], error) {
	return guarded(ctx, a.g, func(ctx context.Context) (option.Option[GraphMetrics], error) {
		return a.next.GraphMetrics(ctx, id)
	})
}

type guardedCoverage struct {
	next CoverageAdapter
	g    *Guard
}

func (a guardedCoverage) CoverageMetrics(ctx context.Context, id string) (option.Option[CoverageMetrics], error) {
	return guarded(ctx, a.g, func(ctx context.Context) (option.Option[CoverageMetrics], error) {
		return a.next.CoverageMetrics(ctx, id)
	})
}

type guardedCreative struct {
	next CreativeAdapter
	g    *Guard
}

func (a guardedCreative) CreativeMetrics(ctx context.Context, id string) (option.Option[CreativeMetrics], error) {
	return guarded(ctx, a.g, func(ctx context.Context) (option.Option[CreativeMetrics], error) {
		return a.next.CreativeMetrics(ctx, id)
	})
}

type guardedAudience struct {
	next AudienceAdapter
	g    *Guard
}

func (a guardedAudience) AudienceMetrics(ctx context.Context, id string) (option.Option[AudienceMetrics], error) {
	return guarded(ctx, a.g, func(ctx context.Context) (option.Option[AudienceMetrics], error) {
		return a.next.AudienceMetrics(ctx, id)
	})
}

type guardedScene struct {
	next SceneAdapter
	g    *Guard
}

func (a guardedScene) SceneHotness(ctx context.Context, id string) (option.Option[float64], error) {
	return guarded(ctx, a.g, func(ctx context.Context) (option.Option[float64], error) {
		return a.next.SceneHotness(ctx, id)
	})
}
