// Package ingestion turns upstream facts into weighted, append-only events.
//
// Each source is ingested independently: an adapter failure is logged and
// counted as zero for that source only. Facts are de-duplicated on
// source:externalID both in a bounded in-process cache and by the store.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/radar/internal/adapters/repository"
	"github.com/okian/radar/internal/adapters/source"
	"github.com/okian/radar/internal/domain/dedupe"
	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/internal/domain/scoring"
	"github.com/okian/radar/pkg/logger"
	"github.com/okian/radar/pkg/metrics"
)

// Publisher receives every event after it is appended.
type Publisher interface {
	Publish(ctx context.Context, e model.Event) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, model.Event) error { return nil }

// Ingestor appends events for entities from the configured fact sources.
type Ingestor struct {
	facts     source.FactSet
	entities  repository.EntityStore
	events    repository.EventStore
	dedupe    dedupe.Deduper
	publisher Publisher
	now       func() time.Time
	newID     func() string
	log       logger.Logger
}

// NewIngestor builds an Ingestor reading facts and writing to the store.
func NewIngestor(facts source.FactSet, entities repository.EntityStore, events repository.EventStore, opts ...Option) *Ingestor {
	in := &Ingestor{
		facts:     facts,
		entities:  entities,
		events:    events,
		dedupe:    dedupe.NewInMemoryDeduper(),
		publisher: nopPublisher{},
		now:       time.Now,
		newID:     uuid.NewString,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// IngestCampaignEvents ingests campaign wins.
func (in *Ingestor) IngestCampaignEvents(ctx context.Context, entityID string) (int, error) {
	return in.ingest(ctx, model.SourceCampaign, entityID)
}

// IngestPlaylistEvents ingests playlist adds, weighted by follower count.
func (in *Ingestor) IngestPlaylistEvents(ctx context.Context, entityID string) (int, error) {
	return in.ingest(ctx, model.SourceAudience, entityID)
}

// IngestPressEvents ingests press mentions, weighted by outlet reach.
func (in *Ingestor) IngestPressEvents(ctx context.Context, entityID string) (int, error) {
	return in.ingest(ctx, model.SourceCoverage, entityID)
}

// IngestSceneEvents ingests scene crossovers.
func (in *Ingestor) IngestSceneEvents(ctx context.Context, entityID string) (int, error) {
	return in.ingest(ctx, model.SourceScene, entityID)
}

// IngestAll runs every per-source ingestion concurrently and sums the counts.
func (in *Ingestor) IngestAll(ctx context.Context, entityID string) (int, error) {
	if !model.ValidID(entityID) {
		return 0, fmt.Errorf("%w: entity id %q", ErrInvalidInput, entityID)
	}
	funcs := []func(context.Context, string) (int, error){
		in.IngestCampaignEvents,
		in.IngestPlaylistEvents,
		in.IngestPressEvents,
		in.IngestSceneEvents,
	}

	counts := make([]int, len(funcs))
	errs := make([]error, len(funcs))
	var wg sync.WaitGroup
	for i, fn := range funcs {
		wg.Add(1)
		go func(i int, fn func(context.Context, string) (int, error)) {
			defer wg.Done()
			counts[i], errs[i] = fn(ctx, entityID)
		}(i, fn)
	}
	wg.Wait()

	total := 0
	for _, n := range counts {
		total += n
	}
	return total, errors.Join(errs...)
}

func (in *Ingestor) ingest(ctx context.Context, src model.EventSource, entityID string) (int, error) {
	if !model.ValidID(entityID) {
		return 0, fmt.Errorf("%w: entity id %q", ErrInvalidInput, entityID)
	}
	log := in.log.With(logger.EntityID(entityID), logger.Source(string(src)))

	feed, ok := in.facts[src]
	if !ok || feed == nil {
		return 0, nil
	}

	_, found, err := in.entities.GetEntity(ctx, entityID)
	if err != nil {
		return 0, fmt.Errorf("resolve entity %s: %w", entityID, err)
	}
	if !found {
		log.Info(ctx, "skipping ingestion for unknown entity")
		return 0, nil
	}

	facts, err := feed.Facts(ctx, entityID)
	if err != nil {
		log.Warn(ctx, "fact source failed", logger.Error(err))
		return 0, nil
	}

	appended := 0
	for _, f := range facts {
		ev := in.toEvent(src, entityID, f)
		key := ev.IdempotencyKey()
		if key != "" && in.dedupe.SeenAndRecord(ctx, key) {
			metrics.RecordEventDuplicate()
			continue
		}

		ok, err := in.events.AppendEvent(ctx, ev)
		if err != nil {
			if key != "" {
				in.dedupe.Unrecord(ctx, key)
			}
			metrics.RecordEventsIngested(string(src), appended)
			return appended, fmt.Errorf("append %s event: %w", src, err)
		}
		if !ok {
			metrics.RecordEventDuplicate()
			continue
		}
		appended++
		in.publish(ctx, ev)
	}

	metrics.RecordEventsIngested(string(src), appended)
	if appended > 0 {
		log.Debug(ctx, "events ingested", logger.Int("count", appended))
	}
	return appended, nil
}

func (in *Ingestor) toEvent(src model.EventSource, entityID string, f source.Fact) model.Event {
	now := in.now().UTC()
	typ := f.Type
	if !typ.Valid() {
		typ = defaultType(src)
	}
	date := f.Date
	if date.IsZero() {
		date = now
	}
	return model.Event{
		ID:         in.newID(),
		EntityID:   entityID,
		Type:       typ,
		Date:       date.UTC(),
		Weight:     model.ClampWeight(weightFor(src, f)),
		Source:     src,
		ExternalID: f.ExternalID,
		Metadata:   maps.Clone(f.Metadata),
		CreatedAt:  now,
	}
}

func weightFor(src model.EventSource, f source.Fact) float64 {
	switch src {
	case model.SourceAudience:
		return scoring.PlaylistWeight(f.Audience)
	case model.SourceCoverage:
		return scoring.PressWeight(f.Audience)
	default:
		return scoring.BaseEventWeight
	}
}

func defaultType(src model.EventSource) model.EventType {
	switch src {
	case model.SourceCampaign:
		return model.EventCampaignWin
	case model.SourceAudience:
		return model.EventPlaylistAdd
	case model.SourceCoverage:
		return model.EventPressMention
	case model.SourceScene:
		return model.EventSceneCrossover
	default:
		return model.EventRelease
	}
}

func (in *Ingestor) publish(ctx context.Context, ev model.Event) {
	if err := in.publisher.Publish(ctx, ev); err != nil {
		metrics.RecordEventPublished(metrics.ResultError)
		in.log.Warn(ctx, "event publish failed",
			logger.EntityID(ev.EntityID),
			logger.Source(string(ev.Source)),
			logger.String("event_id", ev.ID),
			logger.Error(err),
		)
		return
	}
	metrics.RecordEventPublished(metrics.ResultOK)
}
