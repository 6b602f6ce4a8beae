package momentum

import "time"

// MidTrend classifies daily progress against plan.
type MidTrend string

// Mid trends.
const (
	Ahead   MidTrend = "ahead"
	OnTrack MidTrend = "on-track"
	Behind  MidTrend = "behind"
)

// MidSnapshot is the trailing-day view.
type MidSnapshot struct {
	WindowStart     time.Time `json:"window_start"`
	WindowEnd       time.Time `json:"window_end"`
	PhasesPlanned   int       `json:"phases_planned"`
	PhasesCompleted int       `json:"phases_completed"`
	TasksPlanned    int       `json:"tasks_planned"`
	TasksCompleted  int       `json:"tasks_completed"`
	ProgressRatio   float64   `json:"progress_ratio"`
	EngagementRate  float64   `json:"engagement_rate"`
	Trend           MidTrend  `json:"trend"`
}

// Level implements Snapshot.
func (MidSnapshot) Level() Level { return LevelMid }

// CalculateMid compares completed against planned phases and tasks for the
// trailing day. With nothing planned the ratio is 1; with no outreach the
// engagement rate is 1.
func CalculateMid(log ActivityLog, now time.Time) MidSnapshot {
	start := now.Add(-MidWindow)
	snap := MidSnapshot{WindowStart: start, WindowEnd: now}

	for _, p := range log.Phases {
		if within(p.PlannedEnd, start, now) {
			snap.PhasesPlanned++
		}
		if p.CompletedAt != nil && within(*p.CompletedAt, start, now) {
			snap.PhasesCompleted++
		}
	}
	for _, t := range log.Tasks {
		if t.DueAt != nil && within(*t.DueAt, start, now) {
			snap.TasksPlanned++
		}
		if t.CompletedAt != nil && within(*t.CompletedAt, start, now) {
			snap.TasksCompleted++
		}
	}

	planned := snap.PhasesPlanned + snap.TasksPlanned
	snap.ProgressRatio = 1
	if planned > 0 {
		snap.ProgressRatio = float64(snap.PhasesCompleted+snap.TasksCompleted) / float64(planned)
	}

	var engaged, total int
	for _, o := range log.Outreach {
		if !within(o.At, start, now) {
			continue
		}
		total++
		if o.Engaged {
			engaged++
		}
	}
	snap.EngagementRate = 1
	if total > 0 {
		snap.EngagementRate = float64(engaged) / float64(total)
	}

	snap.Trend = ClassifyMid(snap.ProgressRatio, snap.EngagementRate)
	return snap
}

// ClassifyMid marks behind only when progress and engagement are both low.
func ClassifyMid(progress, engagement float64) MidTrend {
	switch {
	case progress > AheadRatio:
		return Ahead
	case progress < BehindRatio && engagement < BehindEngagement:
		return Behind
	}
	return OnTrack
}
