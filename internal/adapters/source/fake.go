package source

import (
	"context"
	"sync"
	"time"

	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/pkg/option"
)

// Fake is an in-memory adapter set for tests. Unknown entities report no
// data. It can inject per-adapter failures and latency, and records how many
// distinct entities had a call in flight at once.
type Fake struct {
	mu       sync.Mutex
	campaign map[string]CampaignMetrics
	graph    map[string]GraphMetrics
	coverage map[string]CoverageMetrics
	creative map[string]CreativeMetrics
	audience map[string]AudienceMetrics
	scenes   map[string]float64
	facts    map[model.EventSource]map[string][]Fact
	failures map[string]error
	delay    time.Duration
	calls    map[model.EventSource]int

	inflight  map[string]int
	active    int
	highWater int
}

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{
		campaign: map[string]CampaignMetrics{},
		graph:    map[string]GraphMetrics{},
		coverage: map[string]CoverageMetrics{},
		creative: map[string]CreativeMetrics{},
		audience: map[string]AudienceMetrics{},
		scenes:   map[string]float64{},
		facts:    map[model.EventSource]map[string][]Fact{},
		failures: map[string]error{},
		calls:    map[model.EventSource]int{},
		inflight: map[string]int{},
	}
}

// Set returns the fake as a full adapter set.
func (f *Fake) Set() Set {
	return Set{Campaign: f, Graph: f, Coverage: f, Creative: f, Audience: f, Scene: f}
}

// FactSet returns fact feeds for every ingesting source.
func (f *Fake) FactSet() FactSet {
	out := FactSet{}
	for _, src := range []model.EventSource{model.SourceCampaign, model.SourceAudience, model.SourceCoverage, model.SourceScene} {
		out[src] = f.FactSource(src)
	}
	return out
}

// FactSource returns the fact feed for src.
func (f *Fake) FactSource(src model.EventSource) FactSource {
	return FactSourceFunc(func(ctx context.Context, entityID string) ([]Fact, error) {
		if err := f.enter(ctx, src, entityID, true); err != nil {
			return nil, err
		}
		defer f.leave(entityID, true)
		f.mu.Lock()
		defer f.mu.Unlock()
		return append([]Fact(nil), f.facts[src][entityID]...), nil
	})
}

// PutEntity seeds every per-entity metric at once.
func (f *Fake) PutEntity(id string, c CampaignMetrics, g GraphMetrics, cov CoverageMetrics, cr CreativeMetrics, a AudienceMetrics) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.campaign[id], f.graph[id], f.coverage[id], f.creative[id], f.audience[id] = c, g, cov, cr, a
}

// PutScene seeds a scene's hotness.
func (f *Fake) PutScene(sceneID string, hotness float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scenes[sceneID] = hotness
}

// PutFacts seeds the facts src reports for an entity.
func (f *Fake) PutFacts(src model.EventSource, entityID string, facts ...Fact) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.facts[src] == nil {
		f.facts[src] = map[string][]Fact{}
	}
	f.facts[src][entityID] = append(f.facts[src][entityID], facts...)
}

// FailOn makes calls to src for key (entity or scene id) return err.
// An empty key fails every call to src.
func (f *Fake) FailOn(src model.EventSource, key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[string(src)+"/"+key] = err
}

// SetDelay makes every call sleep for d, honouring ctx.
func (f *Fake) SetDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
}

// Calls returns how many calls src has received.
func (f *Fake) Calls(src model.EventSource) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[src]
}

// HighWater returns the most distinct entities ever in flight at once.
// Scene lookups are not counted.
func (f *Fake) HighWater() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.highWater
}

// enter records a call to src for key. entity reports whether key is an
// entity id; only entities count toward HighWater.
func (f *Fake) enter(ctx context.Context, src model.EventSource, key string, entity bool) error {
	f.mu.Lock()
	f.calls[src]++
	if entity {
		if f.inflight[key] == 0 {
			f.active++
			if f.active > f.highWater {
				f.highWater = f.active
			}
		}
		f.inflight[key]++
	}
	err := f.failures[string(src)+"/"+key]
	if err == nil {
		err = f.failures[string(src)+"/"]
	}
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			f.leave(key, entity)
			return ctx.Err()
		case <-t.C:
		}
	}
	if err != nil {
		f.leave(key, entity)
		return err
	}
	return nil
}

func (f *Fake) leave(key string, entity bool) {
	if !entity {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inflight[key]--
	if f.inflight[key] == 0 {
		delete(f.inflight, key)
		f.active--
	}
}

func lookup[T any](ctx context.Context, f *Fake, src model.EventSource, m map[string]T, key string) (option.Option[T], error) {
	entity := src != model.SourceScene
	if err := f.enter(ctx, src, key, entity); err != nil {
		return option.None[T](), err
	}
	defer f.leave(key, entity)
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := m[key]; ok {
		return option.Some(v), nil
	}
	return option.None[T](), nil
}

// CampaignMetrics implements CampaignAdapter.
func (f *Fake) CampaignMetrics(ctx context.Context, id string) (option.Option[CampaignMetrics], error) {
	return lookup(ctx, f, model.SourceCampaign, f.campaign, id)
}

// GraphMetrics implements GraphAdapter.
func (f *Fake) GraphMetrics(ctx context.Context, id string) (option.Option[GraphMetrics], error) {
	return lookup(ctx, f, model.SourceGraph, f.graph, id)
}

// CoverageMetrics implements CoverageAdapter.
func (f *Fake) CoverageMetrics(ctx context.Context, id string) (option.Option[CoverageMetrics], error) {
	return lookup(ctx, f, model.SourceCoverage, f.coverage, id)
}

// CreativeMetrics implements CreativeAdapter.
func (f *Fake) CreativeMetrics(ctx context.Context, id string) (option.Option[CreativeMetrics], error) {
	return lookup(ctx, f, model.SourceCreative, f.creative, id)
}

// AudienceMetrics implements AudienceAdapter.
func (f *Fake) AudienceMetrics(ctx context.Context, id string) (option.Option[AudienceMetrics], error) {
	return lookup(ctx, f, model.SourceAudience, f.audience, id)
}

// SceneHotness implements SceneAdapter.
func (f *Fake) SceneHotness(ctx context.Context, sceneID string) (option.Option[float64], error) {
	return lookup(ctx, f, model.SourceScene, f.scenes, sceneID)
}
