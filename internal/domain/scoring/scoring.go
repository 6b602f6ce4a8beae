// Package scoring computes the derived momentum, breakout and risk scores
// from an entity's raw signal vector. All functions are pure and deterministic.
package scoring

import (
	"math"

	"github.com/okian/radar/internal/domain/model"
)

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithWeights replaces the blend weights.
func WithWeights(w Weights) Option {
	return func(s *Scorer) {
		s.weights = w
	}
}

// WithGrowthSaturation sets the growth rate treated as a full-strength input.
func WithGrowthSaturation(saturation float64) Option {
	return func(s *Scorer) {
		if saturation > 0 && !math.IsInf(saturation, 0) {
			s.saturation = saturation
		}
	}
}

// Scorer applies the three blends. It holds no mutable state and is safe
// for concurrent use.
type Scorer struct {
	weights    Weights
	saturation float64
}

// NewScorer creates a Scorer with default weights unless overridden.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		weights:    DefaultWeights(),
		saturation: DefaultGrowthSaturation,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var defaultScorer = NewScorer() //nolint:gochecknoglobals // immutable default

// Momentum scores s with the default weights.
func Momentum(s model.Signals) float64 { return defaultScorer.Momentum(s) }

// Breakout scores s with the default weights.
func Breakout(s model.Signals, momentum float64) float64 {
	return defaultScorer.Breakout(s, momentum)
}

// Risk scores s with the default weights.
func Risk(s model.Signals, momentum float64) float64 { return defaultScorer.Risk(s, momentum) }

// Apply returns s with all three derived scores recomputed from its raw fields.
func (sc *Scorer) Apply(s model.Signals) model.Signals {
	m := sc.Momentum(s)
	s.MomentumScore = m
	s.BreakoutScore = sc.Breakout(s, m)
	s.RiskScore = sc.Risk(s, m)
	return s
}

// Momentum blends the growth-rate signals.
func (sc *Scorer) Momentum(s model.Signals) float64 {
	w := sc.weights.Momentum
	return weightedAverage(
		term{w.Campaign, sc.growth(s.CampaignVelocity)},
		term{w.Coverage, sc.growth(s.CoverageVelocity)},
		term{w.CreativeShift, unit(s.CreativeShift)},
		term{w.Audience, sc.growth(s.AudienceGrowth)},
		term{w.Playlist, sc.growth(s.PlaylistGrowth)},
	)
}

// Breakout blends momentum with network, press, creative and scene position.
func (sc *Scorer) Breakout(s model.Signals, momentum float64) float64 {
	w := sc.weights.Breakout
	return weightedAverage(
		term{w.Momentum, unit(momentum)},
		term{w.Connectivity, unit(s.Connectivity)},
		term{w.Press, unit(s.PressQuality)},
		term{w.CreativeShift, unit(s.CreativeShift)},
		term{w.SceneHotness, hotness(s.SceneHotness)},
		term{w.Identity, unit(s.IdentityAlignment)},
	)
}

// Risk models instability: fading momentum, overexposure, drift from the
// stated identity, a cooling scene and a shrinking audience.
func (sc *Scorer) Risk(s model.Signals, momentum float64) float64 {
	w := sc.weights.Risk
	return weightedAverage(
		term{w.MomentumDrop, 1 - unit(momentum)},
		term{w.Overexposure, sc.growth(s.CoverageVelocity)},
		term{w.CreativeShift, unit(s.CreativeShift)},
		term{w.IdentityDrift, 1 - unit(s.IdentityAlignment)},
		term{w.SceneCooling, 1 - hotness(s.SceneHotness)},
		term{w.AudienceDecline, sc.growth(-s.AudienceGrowth)},
	)
}

type term struct {
	weight float64
	value  float64
}

// weightedAverage divides by the total configured weight, so a missing
// input pulls the score down instead of being ignored. Result is in [0,1].
func weightedAverage(terms ...term) float64 {
	var sum, total float64
	for _, t := range terms {
		if t.weight <= 0 || !finite(t.weight) {
			continue
		}
		total += t.weight
		sum += t.weight * unit(t.value)
	}
	if total == 0 {
		return 0
	}
	return clamp01(sum / total)
}

// growth maps a rate onto [0,1]; negative or non-finite rates map to 0.
func (sc *Scorer) growth(rate float64) float64 {
	if !finite(rate) {
		return 0
	}
	return clamp01(rate / sc.saturation)
}

func hotness(h float64) float64 {
	if !finite(h) {
		return 0
	}
	return clamp01(h / 100)
}

func unit(v float64) float64 {
	if !finite(v) {
		return 0
	}
	return clamp01(v)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
