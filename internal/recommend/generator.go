// Package recommend ranks scored entities into per-workspace recommendations.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/okian/radar/internal/adapters/repository"
	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/pkg/logger"
)

// ErrInvalidInput marks an unusable workspace or limit.
var ErrInvalidInput = errors.New("invalid recommendation input")

// Store is what the generator reads and writes.
type Store interface {
	repository.EntityStore
	repository.SignalStore
	repository.RecommendationStore
}

// Generator produces recommendations from persisted signals.
type Generator struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
	newID func() string
	log   logger.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithTTL sets how long recommendations stay valid. Zero means forever.
func WithTTL(d time.Duration) Option {
	return func(g *Generator) {
		if d >= 0 {
			g.ttl = d
		}
	}
}

// WithClock sets the generator clock.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// WithIDGenerator overrides recommendation id generation.
func WithIDGenerator(gen func() string) Option {
	return func(g *Generator) {
		if gen != nil {
			g.newID = gen
		}
	}
}

// WithLogger sets the generator logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.log = l
		}
	}
}

// NewGenerator returns a Generator over store.
func NewGenerator(store Store, opts ...Option) *Generator {
	g := &Generator{store: store, ttl: 7 * 24 * time.Hour, now: time.Now, newID: uuid.NewString, log: logger.Nop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Build turns one signals record into a recommendation for workspaceID.
func (g *Generator) Build(workspaceID string, s model.Signals) model.Recommendation {
	composite := Composite(s)
	now := g.now().UTC()
	r := model.Recommendation{
		ID:            g.newID(),
		WorkspaceID:   workspaceID,
		EntityID:      s.EntityID,
		Type:          Classify(s, composite),
		Score:         composite,
		Confidence:    Confidence(s),
		Rationale:     Rationale(s, composite),
		Opportunities: Opportunities(s),
		Risks:         Risks(s),
		CreatedAt:     now,
	}
	if g.ttl > 0 {
		exp := now.Add(g.ttl)
		r.ExpiresAt = &exp
	}
	return r
}

// Generate ranks the workspace's entities that have signals by composite
// score and saves a recommendation for each of the best n.
func (g *Generator) Generate(ctx context.Context, workspaceID string, n int) ([]model.Recommendation, error) {
	if !model.ValidID(workspaceID) {
		return nil, fmt.Errorf("%w: workspace id %q", ErrInvalidInput, workspaceID)
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: n must be >= 1", ErrInvalidInput)
	}

	entities, err := g.store.ListEntities(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list workspace entities: %w", err)
	}

	candidates := make([]model.Signals, 0, len(entities))
	for _, e := range entities {
		sig, found, err := g.store.GetEntitySignals(ctx, e.ID)
		if err != nil {
			return nil, fmt.Errorf("load signals for %s: %w", e.ID, err)
		}
		if found {
			candidates = append(candidates, sig)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if a, b := Composite(candidates[i]), Composite(candidates[j]); a != b {
			return a > b
		}
		return candidates[i].EntityID < candidates[j].EntityID
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}

	out := make([]model.Recommendation, 0, len(candidates))
	for _, s := range candidates {
		r := g.Build(workspaceID, s)
		if err := g.store.SaveRecommendation(ctx, r); err != nil {
			return out, fmt.Errorf("save recommendation for %s: %w", s.EntityID, err)
		}
		out = append(out, r)
	}
	g.log.Info(ctx, "recommendations generated",
		logger.String("workspace_id", workspaceID),
		logger.Int("candidates", len(entities)),
		logger.Int("generated", len(out)),
	)
	return out, nil
}
