package momentum

import "time"

// MicroTrend classifies hour-over-hour task velocity.
type MicroTrend string

// Micro trends.
const (
	Accelerating MicroTrend = "accelerating"
	Steady       MicroTrend = "steady"
	Decelerating MicroTrend = "decelerating"
)

// MicroSnapshot is the trailing-hour view.
type MicroSnapshot struct {
	WindowStart       time.Time     `json:"window_start"`
	WindowEnd         time.Time     `json:"window_end"`
	CompletedCurrent  int           `json:"completed_current"`
	CompletedPrevious int           `json:"completed_previous"`
	AvgCompletion     time.Duration `json:"avg_completion"`
	OpenBlockers      int           `json:"open_blockers"`
	Trend             MicroTrend    `json:"trend"`
}

// Level implements Snapshot.
func (MicroSnapshot) Level() Level { return LevelMicro }

// CalculateMicro compares tasks completed in the trailing hour with the hour before.
func CalculateMicro(log ActivityLog, now time.Time) MicroSnapshot {
	start := now.Add(-MicroWindow)
	prevStart := start.Add(-MicroWindow)

	snap := MicroSnapshot{WindowStart: start, WindowEnd: now}
	var latency time.Duration
	for _, t := range log.Tasks {
		if t.CompletedAt == nil {
			if t.Blocked {
				snap.OpenBlockers++
			}
			continue
		}
		switch done := *t.CompletedAt; {
		case within(done, start, now):
			snap.CompletedCurrent++
			latency += done.Sub(t.CreatedAt)
		case within(done, prevStart, start):
			snap.CompletedPrevious++
		}
	}
	if snap.CompletedCurrent > 0 {
		snap.AvgCompletion = latency / time.Duration(snap.CompletedCurrent)
	}
	snap.Trend = ClassifyMicro(snap.CompletedCurrent, snap.CompletedPrevious)
	return snap
}

// ClassifyMicro returns accelerating when current >= 1.2x previous,
// decelerating when current <= 0.8x previous, otherwise steady.
// With no previous activity any completion counts as accelerating.
func ClassifyMicro(current, previous int) MicroTrend {
	if previous == 0 {
		if current > 0 {
			return Accelerating
		}
		return Steady
	}
	switch {
	case current*10 >= previous*accelerateTenths:
		return Accelerating
	case current*10 <= previous*decelerateTenths:
		return Decelerating
	}
	return Steady
}
