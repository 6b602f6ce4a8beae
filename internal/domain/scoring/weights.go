package scoring

import (
	"fmt"
	"math"
)

// Default momentum blend. Growth-rate inputs only.
const (
	DefaultMomentumCampaign      = 0.25
	DefaultMomentumCoverage      = 0.20
	DefaultMomentumCreativeShift = 0.15
	DefaultMomentumAudience      = 0.20
	DefaultMomentumPlaylist      = 0.20
)

// Default breakout blend.
const (
	DefaultBreakoutMomentum      = 0.30
	DefaultBreakoutConnectivity  = 0.20
	DefaultBreakoutPress         = 0.15
	DefaultBreakoutCreativeShift = 0.10
	DefaultBreakoutSceneHotness  = 0.15
	DefaultBreakoutIdentity      = 0.10
)

// Default risk blend. Each input is oriented so higher means less stable.
const (
	DefaultRiskMomentumDrop    = 0.25
	DefaultRiskOverexposure    = 0.15
	DefaultRiskCreativeShift   = 0.15
	DefaultRiskIdentityDrift   = 0.15
	DefaultRiskSceneCooling    = 0.10
	DefaultRiskAudienceDecline = 0.20
)

// DefaultGrowthSaturation is the growth rate that maps to a full 1.0 input.
const DefaultGrowthSaturation = 1.0

// MomentumWeights blends growth-rate signals into momentum.
type MomentumWeights struct {
	Campaign      float64
	Coverage      float64
	CreativeShift float64
	Audience      float64
	Playlist      float64
}

// BreakoutWeights blends growth and position signals into breakout probability.
type BreakoutWeights struct {
	Momentum      float64
	Connectivity  float64
	Press         float64
	CreativeShift float64
	SceneHotness  float64
	Identity      float64
}

// RiskWeights blends instability signals into risk.
type RiskWeights struct {
	MomentumDrop    float64
	Overexposure    float64
	CreativeShift   float64
	IdentityDrift   float64
	SceneCooling    float64
	AudienceDecline float64
}

// Weights groups the three blends.
type Weights struct {
	Momentum MomentumWeights
	Breakout BreakoutWeights
	Risk     RiskWeights
}

// DefaultWeights returns the documented default blends.
func DefaultWeights() Weights {
	return Weights{
		Momentum: MomentumWeights{
			Campaign:      DefaultMomentumCampaign,
			Coverage:      DefaultMomentumCoverage,
			CreativeShift: DefaultMomentumCreativeShift,
			Audience:      DefaultMomentumAudience,
			Playlist:      DefaultMomentumPlaylist,
		},
		Breakout: BreakoutWeights{
			Momentum:      DefaultBreakoutMomentum,
			Connectivity:  DefaultBreakoutConnectivity,
			Press:         DefaultBreakoutPress,
			CreativeShift: DefaultBreakoutCreativeShift,
			SceneHotness:  DefaultBreakoutSceneHotness,
			Identity:      DefaultBreakoutIdentity,
		},
		Risk: RiskWeights{
			MomentumDrop:    DefaultRiskMomentumDrop,
			Overexposure:    DefaultRiskOverexposure,
			CreativeShift:   DefaultRiskCreativeShift,
			IdentityDrift:   DefaultRiskIdentityDrift,
			SceneCooling:    DefaultRiskSceneCooling,
			AudienceDecline: DefaultRiskAudienceDecline,
		},
	}
}

// WeightsFromMaps overlays configured weights on the defaults.
// Keys are the snake_case input names, e.g. "creative_shift".
func WeightsFromMaps(momentum, breakout, risk map[string]float64) (Weights, error) {
	w := DefaultWeights()
	m := map[string]*float64{
		"campaign":       &w.Momentum.Campaign,
		"coverage":       &w.Momentum.Coverage,
		"creative_shift": &w.Momentum.CreativeShift,
		"audience":       &w.Momentum.Audience,
		"playlist":       &w.Momentum.Playlist,
	}
	b := map[string]*float64{
		"momentum":       &w.Breakout.Momentum,
		"connectivity":   &w.Breakout.Connectivity,
		"press":          &w.Breakout.Press,
		"creative_shift": &w.Breakout.CreativeShift,
		"scene_hotness":  &w.Breakout.SceneHotness,
		"identity":       &w.Breakout.Identity,
	}
	r := map[string]*float64{
		"momentum_drop":    &w.Risk.MomentumDrop,
		"overexposure":     &w.Risk.Overexposure,
		"creative_shift":   &w.Risk.CreativeShift,
		"identity_drift":   &w.Risk.IdentityDrift,
		"scene_cooling":    &w.Risk.SceneCooling,
		"audience_decline": &w.Risk.AudienceDecline,
	}
	for _, set := range []struct {
		name   string
		in     map[string]float64
		fields map[string]*float64
	}{{"momentum", momentum, m}, {"breakout", breakout, b}, {"risk", risk, r}} {
		for k, v := range set.in {
			dst, ok := set.fields[k]
			if !ok {
				return Weights{}, fmt.Errorf("%w: %s.%s", ErrUnknownWeight, set.name, k)
			}
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return Weights{}, fmt.Errorf("%w: %s.%s=%v", ErrInvalidWeight, set.name, k, v)
			}
			*dst = v
		}
	}
	return w, nil
}
