package recommend

import (
	"math"
	"strings"

	"github.com/okian/radar/internal/domain/model"
)

// Classification thresholds.
const (
	// RiskPenalty scales how much risk discounts the composite.
	RiskPenalty = 0.5

	PassRisk           = 0.7
	SignComposite      = 0.65
	SignMaxRisk        = 0.4
	CollaborateBreak   = 0.5
	CollaborateConnect = 0.6
	PitchMomentum      = 0.6
	WatchComposite     = 0.35

	strongSignal = 0.7
	riskySignal  = 0.6
)

// expectedSources are the upstreams every entity can report.
var expectedSources = []model.EventSource{
	model.SourceCampaign, model.SourceGraph, model.SourceCoverage, model.SourceCreative, model.SourceAudience,
}

// Composite is breakout discounted by risk: breakout * (1 - 0.5*risk), in [0,1].
func Composite(s model.Signals) float64 {
	v := s.BreakoutScore * (1 - RiskPenalty*s.RiskScore)
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// Classify picks a recommendation type. Rules are checked in order.
func Classify(s model.Signals, composite float64) model.RecommendationType {
	switch {
	case s.RiskScore >= PassRisk:
		return model.RecommendPass
	case composite >= SignComposite && s.RiskScore < SignMaxRisk:
		return model.RecommendSign
	case s.BreakoutScore >= CollaborateBreak && s.Connectivity >= CollaborateConnect:
		return model.RecommendCollaborate
	case s.MomentumScore >= PitchMomentum:
		return model.RecommendPitch
	case composite >= WatchComposite:
		return model.RecommendWatch
	default:
		return model.RecommendPass
	}
}

// Confidence is the share of expected sources that reported data. A scene
// counts as an extra expected source when the entity has one.
func Confidence(s model.Signals) float64 {
	present := make(map[string]struct{})
	for _, src := range s.Sources() {
		present[src] = struct{}{}
	}
	expected := len(expectedSources)
	got := 0
	for _, src := range expectedSources {
		if _, ok := present[string(src)]; ok {
			got++
		}
	}
	if s.SceneID != "" {
		expected++
		if _, ok := present[string(model.SourceScene)]; ok {
			got++
		}
	}
	return float64(got) / float64(expected)
}

// Opportunities lists the entity's strengths.
func Opportunities(s model.Signals) []string {
	var out []string
	if s.BreakoutScore >= strongSignal {
		out = append(out, "strong breakout signal")
	}
	if s.MomentumScore >= strongSignal {
		out = append(out, "high momentum")
	}
	if s.PressQuality >= strongSignal {
		out = append(out, "quality press coverage")
	}
	if s.Connectivity >= strongSignal {
		out = append(out, "well connected across networks")
	}
	if s.SceneID != "" && s.SceneHotness >= 70 {
		out = append(out, "scene is heating up")
	}
	if s.PlaylistGrowth >= 0.5 {
		out = append(out, "playlist traction")
	}
	return out
}

// Risks lists the entity's weaknesses.
func Risks(s model.Signals) []string {
	var out []string
	if s.RiskScore >= riskySignal {
		out = append(out, "elevated overall risk")
	}
	if s.AudienceGrowth < 0 {
		out = append(out, "audience declining")
	}
	if s.IdentityAlignment < 0.4 {
		out = append(out, "identity drift")
	}
	if s.CreativeShift >= strongSignal {
		out = append(out, "creative volatility")
	}
	if s.SceneID != "" && s.SceneHotness < 30 {
		out = append(out, "scene is cooling")
	}
	return out
}

// Rationale is a one-paragraph human summary.
func Rationale(s model.Signals, composite float64) string {
	var parts []string
	switch {
	case composite >= 0.75:
		parts = append(parts, "High breakout potential.")
	case composite >= 0.5:
		parts = append(parts, "Moderate breakout potential.")
	default:
		parts = append(parts, "Early-stage entity.")
	}
	if opp := Opportunities(s); len(opp) > 0 {
		parts = append(parts, "Strengths: "+strings.Join(opp, ", ")+".")
	}
	if risks := Risks(s); len(risks) > 0 {
		parts = append(parts, "Risks: "+strings.Join(risks, ", ")+".")
	}
	return strings.Join(parts, " ")
}
