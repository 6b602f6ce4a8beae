// Package scene recomputes scene aggregates from the signals of the
// entities that belong to each scene.
package scene

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/okian/radar/internal/adapters/repository"
	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/pkg/logger"
)

// Membership thresholds.
const (
	BreakoutThreshold = 0.7
	RisingThreshold   = 0.6
)

// ErrInvalidInput marks an unusable scene id.
var ErrInvalidInput = errors.New("invalid scene input")

// Aggregator derives model.SceneSignals from member entity signals.
type Aggregator struct {
	signals repository.SignalStore
	scenes  repository.SceneStore
	now     func() time.Time
	log     logger.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock sets the clock for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithLogger sets the aggregator logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.log = l
		}
	}
}

// NewAggregator returns an Aggregator reading and writing the given stores.
func NewAggregator(signals repository.SignalStore, scenes repository.SceneStore, opts ...Option) *Aggregator {
	a := &Aggregator{signals: signals, scenes: scenes, now: time.Now, log: logger.Nop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Refresh recomputes and saves the aggregate for sceneID. A scene with no
// members is reported as found=false and nothing is written.
func (a *Aggregator) Refresh(ctx context.Context, sceneID string) (model.SceneSignals, bool, error) {
	if !model.ValidID(sceneID) {
		return model.SceneSignals{}, false, fmt.Errorf("%w: scene id %q", ErrInvalidInput, sceneID)
	}
	members, err := a.signals.ListByScene(ctx, sceneID)
	if err != nil {
		return model.SceneSignals{}, false, fmt.Errorf("list scene members: %w", err)
	}
	if len(members) == 0 {
		return model.SceneSignals{}, false, nil
	}

	sc := Compute(sceneID, members)
	sc.UpdatedAt = a.now().UTC()
	if err := a.scenes.SaveSceneSignals(ctx, sc); err != nil {
		return model.SceneSignals{}, false, fmt.Errorf("save scene: %w", err)
	}
	a.log.Info(ctx, "scene refreshed",
		logger.String("scene_id", sceneID),
		logger.Int("members", sc.MemberCount),
		logger.Float64("hotness", sc.Hotness),
	)
	return sc, true, nil
}

// Compute is the pure aggregation behind Refresh.
func Compute(sceneID string, members []model.Signals) model.SceneSignals {
	sc := model.SceneSignals{SceneID: sceneID, MemberCount: len(members)}
	if len(members) == 0 {
		return sc
	}

	var momentum, connectivity, growth float64
	var breakout, rising []model.Signals
	for _, m := range members {
		momentum += m.MomentumScore
		connectivity += m.Connectivity
		growth += m.AudienceGrowth
		if m.BreakoutScore >= BreakoutThreshold {
			breakout = append(breakout, m)
		}
		if m.MomentumScore >= RisingThreshold {
			rising = append(rising, m)
		}
	}
	n := float64(len(members))
	sc.Hotness = 100 * momentum / n
	sc.Influence = connectivity / n
	sc.AudienceTrend = growth / n
	sc.BreakoutEntities = rankedIDs(breakout, func(s model.Signals) float64 { return s.BreakoutScore })
	sc.RisingEntities = rankedIDs(rising, func(s model.Signals) float64 { return s.MomentumScore })
	return sc
}

func rankedIDs(sigs []model.Signals, score func(model.Signals) float64) []string {
	sort.Slice(sigs, func(i, j int) bool {
		if a, b := score(sigs[i]), score(sigs[j]); a != b {
			return a > b
		}
		return sigs[i].EntityID < sigs[j].EntityID
	})
	out := make([]string, 0, len(sigs))
	for _, s := range sigs {
		out = append(out, s.EntityID)
	}
	return out
}
