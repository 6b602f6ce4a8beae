package repository

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/pkg/metrics"
)

// MemoryStore is an in-process Store. Ranked reads are served from three
// treap indexes, one per derived score.
type MemoryStore struct {
	settings

	mu       sync.RWMutex
	signals  map[string]model.Signals
	momentum *rankIndex
	breakout *rankIndex
	risk     *rankIndex

	scenes   map[string]model.SceneSignals
	recs     map[string]model.Recommendation
	entities map[string]model.Entity
	events   map[string][]model.Event
	external map[string]struct{}
	history  map[string][]model.ScoreSnapshot
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		settings: defaultSettings(),
		signals:  make(map[string]model.Signals),
		momentum: newRankIndex(),
		breakout: newRankIndex(),
		risk:     newRankIndex(),
		scenes:   make(map[string]model.SceneSignals),
		recs:     make(map[string]model.Recommendation),
		entities: make(map[string]model.Entity),
		events:   make(map[string][]model.Event),
		external: make(map[string]struct{}),
		history:  make(map[string][]model.ScoreSnapshot),
	}
	for _, opt := range opts {
		opt(&s.settings)
	}
	return s
}

func observe(op string, start time.Time) {
	metrics.RecordStoreOp(op, time.Since(start).Seconds())
}

// SaveEntitySignals implements SignalStore.
func (s *MemoryStore) SaveEntitySignals(_ context.Context, sig model.Signals) error {
	defer observe("save_entity_signals", time.Now())
	if sig.EntityID == "" {
		return fmt.Errorf("%w: empty entity id", ErrInvalidInput)
	}
	sig = cloneSignals(sig)
	sig.Tags = model.NormalizeTags(sig.Tags)

	s.mu.Lock()
	s.signals[sig.EntityID] = sig
	s.momentum.set(sig.EntityID, sig.MomentumScore)
	s.breakout.set(sig.EntityID, sig.BreakoutScore)
	s.risk.set(sig.EntityID, sig.RiskScore)
	n := len(s.signals)
	s.mu.Unlock()

	metrics.UpdateTrackedEntities(n)
	return nil
}

// GetEntitySignals implements SignalStore.
func (s *MemoryStore) GetEntitySignals(_ context.Context, id string) (model.Signals, bool, error) {
	defer observe("get_entity_signals", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	sig, ok := s.signals[id]
	if !ok {
		return model.Signals{}, false, nil
	}
	return cloneSignals(sig), true, nil
}

func (s *MemoryStore) top(op string, idx *rankIndex, n int) ([]model.Signals, error) {
	defer observe(op, time.Now())
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := idx.top(n)
	out := make([]model.Signals, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneSignals(s.signals[id]))
	}
	return out, nil
}

// TopByMomentum implements SignalStore.
func (s *MemoryStore) TopByMomentum(_ context.Context, n int) ([]model.Signals, error) {
	return s.top("top_by_momentum", s.momentum, n)
}

// TopByBreakout implements SignalStore.
func (s *MemoryStore) TopByBreakout(_ context.Context, n int) ([]model.Signals, error) {
	return s.top("top_by_breakout", s.breakout, n)
}

// AtRisk implements SignalStore.
func (s *MemoryStore) AtRisk(_ context.Context, n int) ([]model.Signals, error) {
	return s.top("at_risk", s.risk, n)
}

// ListByScene implements SignalStore.
func (s *MemoryStore) ListByScene(_ context.Context, sceneID string) ([]model.Signals, error) {
	defer observe("list_by_scene", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Signals
	for _, sig := range s.signals {
		if sig.SceneID == sceneID {
			out = append(out, cloneSignals(sig))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out, nil
}

// CountSignals implements SignalStore.
func (s *MemoryStore) CountSignals(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.momentum.size(), nil
}

// SaveSceneSignals implements SceneStore.
func (s *MemoryStore) SaveSceneSignals(_ context.Context, sc model.SceneSignals) error {
	defer observe("save_scene_signals", time.Now())
	if sc.SceneID == "" {
		return fmt.Errorf("%w: empty scene id", ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scenes[sc.SceneID] = cloneScene(sc)
	return nil
}

// GetSceneSignals implements SceneStore.
func (s *MemoryStore) GetSceneSignals(_ context.Context, sceneID string) (model.SceneSignals, bool, error) {
	defer observe("get_scene_signals", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.scenes[sceneID]
	if !ok {
		return model.SceneSignals{}, false, nil
	}
	return cloneScene(sc), true, nil
}

// SaveRecommendation implements RecommendationStore.
func (s *MemoryStore) SaveRecommendation(_ context.Context, r model.Recommendation) error {
	defer observe("save_recommendation", time.Now())
	if r.ID == "" || r.WorkspaceID == "" {
		return fmt.Errorf("%w: recommendation needs id and workspace", ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[r.ID] = cloneRecommendation(r)
	return nil
}

// RecommendationsForWorkspace implements RecommendationStore.
func (s *MemoryStore) RecommendationsForWorkspace(_ context.Context, ws string, n int) ([]model.Recommendation, error) {
	defer observe("recommendations_for_workspace", time.Now())
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	now := s.now()
	s.mu.RLock()
	var out []model.Recommendation
	for _, r := range s.recs {
		if r.WorkspaceID == ws && !r.Expired(now) {
			out = append(out, cloneRecommendation(r))
		}
	}
	s.mu.RUnlock()

	sortRecommendations(out)
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func sortRecommendations(recs []model.Recommendation) {
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// SaveEntity implements EntityStore.
func (s *MemoryStore) SaveEntity(_ context.Context, e model.Entity) error {
	defer observe("save_entity", time.Now())
	if e.ID == "" {
		return fmt.Errorf("%w: empty entity id", ErrInvalidInput)
	}
	e.Tags = model.NormalizeTags(e.Tags)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities[e.ID] = e
	return nil
}

// GetEntity implements EntityStore.
func (s *MemoryStore) GetEntity(_ context.Context, id string) (model.Entity, bool, error) {
	defer observe("get_entity", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[id]
	if ok {
		e.Tags = append([]string(nil), e.Tags...)
	}
	return e, ok, nil
}

// ListEntities implements EntityStore. An empty workspace lists every entity.
func (s *MemoryStore) ListEntities(_ context.Context, ws string) ([]model.Entity, error) {
	defer observe("list_entities", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Entity
	for _, e := range s.entities {
		if ws == "" || e.WorkspaceID == ws {
			e.Tags = append([]string(nil), e.Tags...)
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// AppendEvent implements EventStore.
func (s *MemoryStore) AppendEvent(_ context.Context, e model.Event) (bool, error) {
	defer observe("append_event", time.Now())
	if e.ID == "" || e.EntityID == "" {
		return false, fmt.Errorf("%w: event needs id and entity", ErrInvalidInput)
	}
	e.Metadata = maps.Clone(e.Metadata)
	key := e.IdempotencyKey()

	s.mu.Lock()
	defer s.mu.Unlock()
	if key != "" {
		if _, dup := s.external[key]; dup {
			return false, nil
		}
		s.external[key] = struct{}{}
	}
	s.events[e.EntityID] = append(s.events[e.EntityID], e)
	return true, nil
}

// ListEvents implements EventStore.
func (s *MemoryStore) ListEvents(_ context.Context, entityID string, n int) ([]model.Event, error) {
	defer observe("list_events", time.Now())
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	out := append([]model.Event(nil), s.events[entityID]...)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// AppendScoreSnapshot implements HistoryStore.
func (s *MemoryStore) AppendScoreSnapshot(_ context.Context, snap model.ScoreSnapshot) error {
	defer observe("append_score_snapshot", time.Now())
	if snap.EntityID == "" {
		return fmt.Errorf("%w: empty entity id", ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[snap.EntityID] = append(s.history[snap.EntityID], snap)
	return nil
}

// ScoreHistory implements HistoryStore.
func (s *MemoryStore) ScoreHistory(_ context.Context, entityID string, n int) ([]model.ScoreSnapshot, error) {
	defer observe("score_history", time.Now())
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	snaps := s.history[entityID]
	out := make([]model.ScoreSnapshot, 0, len(snaps))
	for i := len(snaps) - 1; i >= 0; i-- {
		out = append(out, snaps[i])
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].TakenAt.After(out[j].TakenAt) })
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

func cloneSignals(s model.Signals) model.Signals {
	s.Tags = append([]string(nil), s.Tags...)
	s.Metadata = maps.Clone(s.Metadata)
	return s
}

func cloneScene(s model.SceneSignals) model.SceneSignals {
	s.BreakoutEntities = append([]string(nil), s.BreakoutEntities...)
	s.RisingEntities = append([]string(nil), s.RisingEntities...)
	s.Metadata = maps.Clone(s.Metadata)
	return s
}

func cloneRecommendation(r model.Recommendation) model.Recommendation {
	r.Opportunities = append([]string(nil), r.Opportunities...)
	r.Risks = append([]string(nil), r.Risks...)
	if r.ExpiresAt != nil {
		t := *r.ExpiresAt
		r.ExpiresAt = &t
	}
	return r
}
