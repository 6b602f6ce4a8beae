package momentum

import "fmt"

// Alert thresholds.
const (
	MaxOpenBlockers   = 3
	MinEngagement     = 0.5
	MinROI            = 1.0
	MinSustainability = 0.5
)

// Alerts scans the three snapshots and returns one message per threshold breach.
func Alerts(micro MicroSnapshot, mid MidSnapshot, macro MacroSnapshot) []string {
	var alerts []string
	if micro.Trend == Decelerating {
		alerts = append(alerts, fmt.Sprintf("task velocity decelerating: %d completed this hour vs %d the hour before",
			micro.CompletedCurrent, micro.CompletedPrevious))
	}
	if micro.OpenBlockers > MaxOpenBlockers {
		alerts = append(alerts, fmt.Sprintf("%d open blockers", micro.OpenBlockers))
	}
	if mid.Trend == Behind {
		alerts = append(alerts, fmt.Sprintf("falling behind plan: progress ratio %.2f", mid.ProgressRatio))
	}
	if mid.EngagementRate < MinEngagement {
		alerts = append(alerts, fmt.Sprintf("low engagement: %.0f%% of outreach answered", mid.EngagementRate*100))
	}
	if macro.Trend == BurnoutRisk {
		alerts = append(alerts, fmt.Sprintf("burnout risk: %d indicators", macro.BurnoutIndicators))
	}
	if macro.Investment > 0 && macro.ROI < MinROI {
		alerts = append(alerts, fmt.Sprintf("low ROI: %.2f", macro.ROI))
	}
	if macro.Sustainability < MinSustainability {
		alerts = append(alerts, fmt.Sprintf("low sustainability: %.2f", macro.Sustainability))
	}
	return alerts
}
