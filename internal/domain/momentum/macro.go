package momentum

import (
	"math"
	"time"
)

// MacroTrend classifies whole-campaign health.
type MacroTrend string

// Macro trends.
const (
	Sustainable   MacroTrend = "sustainable"
	BurnoutRisk   MacroTrend = "burnout-risk"
	Underutilized MacroTrend = "underutilized"
)

// MacroSnapshot is the whole-campaign view.
type MacroSnapshot struct {
	Start               time.Time     `json:"start"`
	Elapsed             time.Duration `json:"elapsed"`
	Progress            float64       `json:"progress"`
	EstimatedCompletion *time.Time    `json:"estimated_completion,omitempty"`
	Investment          float64       `json:"investment"`
	ROI                 float64       `json:"roi"`
	Sustainability      float64       `json:"sustainability"`
	BurnoutIndicators   int           `json:"burnout_indicators"`
	Trend               MacroTrend    `json:"trend"`
}

// Level implements Snapshot.
func (MacroSnapshot) Level() Level { return LevelMacro }

// CalculateMacro projects completion linearly from the start date and scores
// return on investment and sustainability.
func CalculateMacro(c Campaign, now time.Time) MacroSnapshot {
	snap := MacroSnapshot{
		Start:             c.Start,
		Investment:        c.Investment,
		BurnoutIndicators: c.BurnoutIndicators,
	}
	if now.After(c.Start) {
		snap.Elapsed = now.Sub(c.Start)
	}
	if c.PhasesTotal > 0 {
		snap.Progress = math.Min(1, math.Max(0, float64(c.PhasesCompleted)/float64(c.PhasesTotal)))
	}
	if snap.Progress > 0 {
		eta := c.Start.Add(time.Duration(float64(snap.Elapsed) / snap.Progress))
		snap.EstimatedCompletion = &eta
	}
	if c.Investment > 0 {
		snap.ROI = c.Returns / c.Investment
	}
	snap.Sustainability = math.Max(0, 1-float64(c.BurnoutIndicators)*burnoutPenalty)
	snap.Trend = ClassifyMacro(c.BurnoutIndicators, snap.Progress, snap.Elapsed)
	return snap
}

// ClassifyMacro gives burnout precedence over every other condition.
func ClassifyMacro(burnout int, progress float64, elapsed time.Duration) MacroTrend {
	switch {
	case burnout > BurnoutThreshold:
		return BurnoutRisk
	case progress < UnderutilizedCutoff && elapsed > UnderutilizedAfter:
		return Underutilized
	}
	return Sustainable
}
