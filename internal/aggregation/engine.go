// Package aggregation gathers raw signals for an entity from every upstream
// source, scores them and returns the populated record. It never persists.
package aggregation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/okian/radar/internal/adapters/source"
	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/internal/domain/scoring"
	"github.com/okian/radar/pkg/logger"
	"github.com/okian/radar/pkg/metrics"
	"github.com/okian/radar/pkg/option"
)

// Engine aggregates signals for one entity at a time, or for a batch.
type Engine struct {
	adapters       source.Set
	scorer         *scoring.Scorer
	adapterTimeout time.Duration
	maxConcurrency int
	maxBatch       int
	now            func() time.Time
	log            logger.Logger
}

// NewEngine builds an Engine over adapters. Nil adapters report no data.
func NewEngine(adapters source.Set, opts ...Option) *Engine {
	var static source.Static
	if adapters.Campaign == nil {
		adapters.Campaign = static
	}
	if adapters.Graph == nil {
		adapters.Graph = static
	}
	if adapters.Coverage == nil {
		adapters.Coverage = static
	}
	if adapters.Creative == nil {
		adapters.Creative = static
	}
	if adapters.Audience == nil {
		adapters.Audience = static
	}
	if adapters.Scene == nil {
		adapters.Scene = static
	}

	e := &Engine{
		adapters:       adapters,
		scorer:         scoring.NewScorer(),
		adapterTimeout: DefaultAdapterTimeout,
		maxConcurrency: DefaultMaxConcurrency,
		maxBatch:       DefaultMaxBatch,
		now:            time.Now,
		log:            logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxBatch returns the configured batch cap.
func (e *Engine) MaxBatch() int { return e.maxBatch }

type fetched[T any] struct {
	v   option.Option[T]
	err error
}

// fetch runs one adapter call under the per-adapter timeout. The call runs
// on its own goroutine so an adapter that ignores ctx cannot hold the caller
// past the deadline; its late result is discarded.
func fetch[T any](ctx context.Context, timeout time.Duration, call func(context.Context) (option.Option[T], error)) (option.Option[T], error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan fetched[T], 1)
	go func() {
		v, err := call(cctx)
		done <- fetched[T]{v: v, err: err}
	}()

	var r fetched[T]
	select {
	case r = <-done:
	case <-cctx.Done():
		r = fetched[T]{v: option.None[T](), err: cctx.Err()}
	}
	if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) && !errors.Is(r.err, source.ErrAdapterTimeout) {
		r.err = fmt.Errorf("%w: %w", source.ErrAdapterTimeout, r.err)
	}
	return r.v, r.err
}

// Aggregate collects, scores and returns the signals for entityID.
//
// Phase one queries campaign, graph, coverage, creative and audience
// concurrently. Phase two asks the scene adapter for hotness only when the
// graph reported a primary scene; otherwise hotness is neutral. Any adapter
// failure fails the whole aggregation with an *AggregationError.
func (e *Engine) Aggregate(ctx context.Context, entityID string) (model.Signals, error) {
	if !model.ValidID(entityID) {
		return model.Signals{}, fmt.Errorf("%w: entity id %q", ErrInvalidInput, entityID)
	}
	start := time.Now()
	sig, err := e.aggregate(ctx, entityID)
	result := metrics.ResultOK
	if err != nil {
		result = metrics.ResultError
		if errors.Is(err, source.ErrAdapterTimeout) {
			result = metrics.ResultTimeout
		}
	}
	metrics.RecordAggregation(result, time.Since(start).Seconds())
	return sig, err
}

func (e *Engine) aggregate(ctx context.Context, entityID string) (model.Signals, error) {
	var (
		wg       sync.WaitGroup
		campaign option.Option[source.CampaignMetrics]
		graph    option.Option[source.GraphMetrics]
		coverage option.Option[source.CoverageMetrics]
		creative option.Option[source.CreativeMetrics]
		audience option.Option[source.AudienceMetrics]
		errs     [5]error
	)

	wg.Add(5)
	go func() {
		defer wg.Done()
		campaign, errs[0] = fetch(ctx, e.adapterTimeout, func(c context.Context) (option.Option[source.CampaignMetrics], error) {
			return e.adapters.Campaign.CampaignMetrics(c, entityID)
		})
	}()
	go func() {
		defer wg.Done()
		graph, errs[1] = fetch(ctx, e.adapterTimeout, func(c context.Context) (option.Option[source.GraphMetrics], error) {
			return e.adapters.Graph.GraphMetrics(c, entityID)
		})
	}()
	go func() {
		defer wg.Done()
		coverage, errs[2] = fetch(ctx, e.adapterTimeout, func(c context.Context) (option.Option[source.CoverageMetrics], error) {
			return e.adapters.Coverage.CoverageMetrics(c, entityID)
		})
	}()
	go func() {
		defer wg.Done()
		creative, errs[3] = fetch(ctx, e.adapterTimeout, func(c context.Context) (option.Option[source.CreativeMetrics], error) {
			return e.adapters.Creative.CreativeMetrics(c, entityID)
		})
	}()
	go func() {
		defer wg.Done()
		audience, errs[4] = fetch(ctx, e.adapterTimeout, func(c context.Context) (option.Option[source.AudienceMetrics], error) {
			return e.adapters.Audience.AudienceMetrics(c, entityID)
		})
	}()
	wg.Wait()

	order := [5]model.EventSource{model.SourceCampaign, model.SourceGraph, model.SourceCoverage, model.SourceCreative, model.SourceAudience}
	for i, err := range errs {
		if err != nil {
			return model.Signals{}, &AggregationError{EntityID: entityID, Source: order[i], Err: err}
		}
	}

	sig := model.Signals{EntityID: entityID, SceneHotness: model.NeutralSceneHotness}
	var present []string
	if c, ok := campaign.Get(); ok {
		sig.CampaignVelocity, sig.EngagementRate = c.Velocity, c.EngagementRate
		present = append(present, string(model.SourceCampaign))
	}
	if g, ok := graph.Get(); ok {
		sig.Connectivity, sig.SceneID = g.Connectivity, g.PrimarySceneID
		present = append(present, string(model.SourceGraph))
	}
	if c, ok := coverage.Get(); ok {
		sig.CoverageVelocity, sig.PressQuality = c.Velocity, c.PressQuality
		present = append(present, string(model.SourceCoverage))
	}
	if c, ok := creative.Get(); ok {
		sig.CreativeShift, sig.IdentityAlignment = c.Shift, c.IdentityAlignment
		present = append(present, string(model.SourceCreative))
	}
	if a, ok := audience.Get(); ok {
		sig.AudienceGrowth, sig.PlaylistGrowth = a.Growth, a.PlaylistGrowth
		present = append(present, string(model.SourceAudience))
	}

	if sig.SceneID != "" {
		hot, err := fetch(ctx, e.adapterTimeout, func(c context.Context) (option.Option[float64], error) {
			return e.adapters.Scene.SceneHotness(c, sig.SceneID)
		})
		if err != nil {
			return model.Signals{}, &AggregationError{EntityID: entityID, Source: model.SourceScene, Err: err}
		}
		if h, ok := hot.Get(); ok {
			sig.SceneHotness = h
			present = append(present, string(model.SourceScene))
		}
	}

	sort.Strings(present)
	sig.Metadata = map[string]string{model.MetaSources: strings.Join(present, ",")}
	sig.UpdatedAt = e.now().UTC()
	return e.scorer.Apply(sig), nil
}

// BatchAggregate aggregates ids in chunks of MaxConcurrency. Chunks run one
// after another with every entity of a chunk in flight at once. Entities
// that fail are logged and left out; results keep input order.
func (e *Engine) BatchAggregate(ctx context.Context, ids []string) ([]model.Signals, error) {
	for _, id := range ids {
		if !model.ValidID(id) {
			return nil, fmt.Errorf("%w: entity id %q", ErrInvalidInput, id)
		}
	}
	if len(ids) > e.maxBatch {
		e.log.Warn(ctx, "batch truncated",
			logger.Int("requested", len(ids)),
			logger.Int("max_batch", e.maxBatch),
		)
		ids = ids[:e.maxBatch]
	}

	out := make([]model.Signals, 0, len(ids))
	failed := 0
	for startIdx := 0; startIdx < len(ids); startIdx += e.maxConcurrency {
		if err := ctx.Err(); err != nil {
			metrics.RecordBatch(len(ids), failed+len(ids)-startIdx)
			return out, err
		}
		chunk := ids[startIdx:min(startIdx+e.maxConcurrency, len(ids))]
		results := make([]model.Signals, len(chunk))
		errs := make([]error, len(chunk))

		var wg sync.WaitGroup
		for i, id := range chunk {
			wg.Add(1)
			go func(i int, id string) {
				defer wg.Done()
				results[i], errs[i] = e.Aggregate(ctx, id)
			}(i, id)
		}
		wg.Wait()

		for i, err := range errs {
			if err != nil {
				failed++
				e.logFailure(ctx, chunk[i], err)
				continue
			}
			out = append(out, results[i])
		}
	}

	metrics.RecordBatch(len(ids), failed)
	e.log.Info(ctx, "batch aggregated",
		logger.Int("accepted", len(ids)),
		logger.Int("succeeded", len(out)),
		logger.Int("failed", failed),
	)
	return out, nil
}

func (e *Engine) logFailure(ctx context.Context, entityID string, err error) {
	fields := []logger.Field{logger.EntityID(entityID), logger.Error(err)}
	var aggErr *AggregationError
	if errors.As(err, &aggErr) {
		fields = append(fields, logger.Source(string(aggErr.Source)))
	}
	e.log.Warn(ctx, "entity excluded from batch", fields...)
}
