package momentum_test

import (
	"testing"
	"time"

	"github.com/okian/radar/internal/domain/momentum"
	. "github.com/smartystreets/goconvey/convey"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

// completions builds n tasks finished at offset, each created ten minutes earlier.
func completions(n int, offset time.Duration) []momentum.Task {
	tasks := make([]momentum.Task, 0, n)
	for i := 0; i < n; i++ {
		done := at(offset)
		tasks = append(tasks, momentum.Task{CreatedAt: done.Add(-10 * time.Minute), CompletedAt: done})
	}
	return tasks
}

func TestClassifyMicro(t *testing.T) {
	Convey("Given hour-over-hour completion counts", t, func() {
		Convey("Then exactly 1.2x is accelerating", func() {
			So(momentum.ClassifyMicro(12, 10), ShouldEqual, momentum.Accelerating)
			So(momentum.ClassifyMicro(6, 5), ShouldEqual, momentum.Accelerating)
		})
		Convey("Then just under 1.2x is steady", func() {
			So(momentum.ClassifyMicro(11, 10), ShouldEqual, momentum.Steady)
		})
		Convey("Then exactly 0.8x is decelerating", func() {
			So(momentum.ClassifyMicro(8, 10), ShouldEqual, momentum.Decelerating)
			So(momentum.ClassifyMicro(4, 5), ShouldEqual, momentum.Decelerating)
		})
		Convey("Then just over 0.8x is steady", func() {
			So(momentum.ClassifyMicro(9, 10), ShouldEqual, momentum.Steady)
		})
		Convey("Then a quiet previous hour is handled", func() {
			So(momentum.ClassifyMicro(0, 0), ShouldEqual, momentum.Steady)
			So(momentum.ClassifyMicro(1, 0), ShouldEqual, momentum.Accelerating)
		})
	})
}

func TestCalculateMicro(t *testing.T) {
	Convey("Given a task log spanning two hours", t, func() {
		tasks := append(completions(6, -30*time.Minute), completions(5, -90*time.Minute)...)
		tasks = append(tasks,
			momentum.Task{Blocked: true},
			momentum.Task{Blocked: true},
			momentum.Task{Blocked: true, CompletedAt: at(-time.Minute)},
			momentum.Task{CompletedAt: at(-3 * time.Hour)},
		)
		snap := momentum.CalculateMicro(momentum.ActivityLog{Tasks: tasks}, now)

		Convey("Then the windows are counted separately", func() {
			So(snap.Level(), ShouldEqual, momentum.LevelMicro)
			So(snap.CompletedCurrent, ShouldEqual, 7)
			So(snap.CompletedPrevious, ShouldEqual, 5)
			So(snap.Trend, ShouldEqual, momentum.Accelerating)
			So(snap.OpenBlockers, ShouldEqual, 2)
		})
	})

	Convey("Given completions with known latency", t, func() {
		snap := momentum.CalculateMicro(momentum.ActivityLog{Tasks: completions(3, -5*time.Minute)}, now)

		So(snap.AvgCompletion, ShouldEqual, 10*time.Minute)
	})
}

func TestCalculateMid(t *testing.T) {
	Convey("Given daily plan and outreach", t, func() {
		phases := []momentum.Phase{
			{PlannedEnd: *at(-2 * time.Hour), CompletedAt: at(-3 * time.Hour)},
			{PlannedEnd: *at(-time.Hour)},
		}
		tasks := []momentum.Task{
			{DueAt: at(-time.Hour), CompletedAt: at(-2 * time.Hour)},
			{DueAt: at(-time.Hour)},
			{DueAt: at(-time.Hour)},
		}

		Convey("When engagement is low the entity is behind", func() {
			outreach := []momentum.Outreach{{At: *at(-time.Hour)}, {At: *at(-time.Hour)}, {At: *at(-time.Hour), Engaged: true}}
			snap := momentum.CalculateMid(momentum.ActivityLog{Phases: phases, Tasks: tasks, Outreach: outreach}, now)

			So(snap.Level(), ShouldEqual, momentum.LevelMid)
			So(snap.ProgressRatio, ShouldAlmostEqual, 0.4, 1e-12)
			So(snap.EngagementRate, ShouldAlmostEqual, 1.0/3, 1e-12)
			So(snap.Trend, ShouldEqual, momentum.Behind)
		})

		Convey("When engagement is still high a low ratio stays on track", func() {
			outreach := []momentum.Outreach{{At: *at(-time.Hour), Engaged: true}}
			snap := momentum.CalculateMid(momentum.ActivityLog{Phases: phases, Tasks: tasks, Outreach: outreach}, now)

			So(snap.Trend, ShouldEqual, momentum.OnTrack)
		})
	})

	Convey("Given classification boundaries", t, func() {
		So(momentum.ClassifyMid(1.2, 0), ShouldEqual, momentum.Ahead)
		So(momentum.ClassifyMid(1.1, 0.1), ShouldEqual, momentum.OnTrack)
		So(momentum.ClassifyMid(0.5, 0.8), ShouldEqual, momentum.OnTrack)
		So(momentum.ClassifyMid(0.5, 0.79), ShouldEqual, momentum.Behind)
	})

	Convey("Given an empty log", t, func() {
		snap := momentum.CalculateMid(momentum.ActivityLog{}, now)

		So(snap.ProgressRatio, ShouldEqual, 1)
		So(snap.EngagementRate, ShouldEqual, 1)
		So(snap.Trend, ShouldEqual, momentum.OnTrack)
	})
}

func TestCalculateMacro(t *testing.T) {
	Convey("Given a campaign ten days in and half done", t, func() {
		c := momentum.Campaign{
			Start:           now.Add(-10 * 24 * time.Hour),
			PhasesTotal:     4,
			PhasesCompleted: 2,
			Investment:      1000,
			Returns:         1500,
		}
		snap := momentum.CalculateMacro(c, now)

		So(snap.Level(), ShouldEqual, momentum.LevelMacro)
		So(snap.Progress, ShouldEqual, 0.5)
		So(snap.ROI, ShouldEqual, 1.5)
		So(snap.Sustainability, ShouldEqual, 1)
		So(snap.EstimatedCompletion.Equal(now.Add(10*24*time.Hour)), ShouldBeTrue)
		So(snap.Trend, ShouldEqual, momentum.Sustainable)
	})

	Convey("Given more than five burnout indicators", t, func() {
		c := momentum.Campaign{Start: now.Add(-30 * 24 * time.Hour), PhasesTotal: 10, PhasesCompleted: 1, BurnoutIndicators: 6}
		snap := momentum.CalculateMacro(c, now)

		Convey("Then burnout wins over underutilization", func() {
			So(snap.Trend, ShouldEqual, momentum.BurnoutRisk)
			So(snap.Sustainability, ShouldAlmostEqual, 0.4, 1e-12)
		})
	})

	Convey("Given burnout precedence regardless of other fields", t, func() {
		So(momentum.ClassifyMacro(6, 1, 0), ShouldEqual, momentum.BurnoutRisk)
		So(momentum.ClassifyMacro(6, 0, 365*24*time.Hour), ShouldEqual, momentum.BurnoutRisk)
		So(momentum.ClassifyMacro(5, 0.1, 8*24*time.Hour), ShouldEqual, momentum.Underutilized)
		So(momentum.ClassifyMacro(0, 0.1, 6*24*time.Hour), ShouldEqual, momentum.Sustainable)
	})

	Convey("Given no progress and no investment", t, func() {
		snap := momentum.CalculateMacro(momentum.Campaign{Start: now}, now)

		So(snap.EstimatedCompletion, ShouldBeNil)
		So(snap.ROI, ShouldEqual, 0)
		So(snap.Sustainability, ShouldEqual, 1)
	})
}

func TestAlerts(t *testing.T) {
	healthyMicro := momentum.MicroSnapshot{Trend: momentum.Steady, OpenBlockers: 3}
	healthyMid := momentum.MidSnapshot{Trend: momentum.OnTrack, EngagementRate: 0.5}
	healthyMacro := momentum.MacroSnapshot{Trend: momentum.Sustainable, Investment: 10, ROI: 1, Sustainability: 0.5}

	Convey("Given healthy snapshots at the edge of every threshold", t, func() {
		So(momentum.Alerts(healthyMicro, healthyMid, healthyMacro), ShouldBeEmpty)
	})

	Convey("Given one breach at a time", t, func() {
		micro, mid, macro := healthyMicro, healthyMid, healthyMacro

		Convey("deceleration", func() {
			micro.Trend = momentum.Decelerating
			So(momentum.Alerts(micro, mid, macro), ShouldHaveLength, 1)
		})
		Convey("blockers", func() {
			micro.OpenBlockers = 4
			So(momentum.Alerts(micro, mid, macro), ShouldHaveLength, 1)
		})
		Convey("behind", func() {
			mid.Trend = momentum.Behind
			So(momentum.Alerts(micro, mid, macro), ShouldHaveLength, 1)
		})
		Convey("engagement", func() {
			mid.EngagementRate = 0.49
			So(momentum.Alerts(micro, mid, macro), ShouldHaveLength, 1)
		})
		Convey("burnout", func() {
			macro.Trend = momentum.BurnoutRisk
			So(momentum.Alerts(micro, mid, macro), ShouldHaveLength, 1)
		})
		Convey("roi", func() {
			macro.ROI = 0.5
			So(momentum.Alerts(micro, mid, macro), ShouldHaveLength, 1)
		})
		Convey("roi without investment is ignored", func() {
			macro.Investment = 0
			macro.ROI = 0
			So(momentum.Alerts(micro, mid, macro), ShouldBeEmpty)
		})
		Convey("sustainability", func() {
			macro.Sustainability = 0.4
			So(momentum.Alerts(micro, mid, macro), ShouldHaveLength, 1)
		})
	})

	Convey("Given every threshold breached", t, func() {
		alerts := momentum.Alerts(
			momentum.MicroSnapshot{Trend: momentum.Decelerating, OpenBlockers: 9},
			momentum.MidSnapshot{Trend: momentum.Behind, EngagementRate: 0.1},
			momentum.MacroSnapshot{Trend: momentum.BurnoutRisk, Investment: 1, ROI: 0.1, Sustainability: 0.2},
		)
		So(alerts, ShouldHaveLength, 7)
	})
}

func TestCalculate(t *testing.T) {
	Convey("Given an empty log and a fresh campaign", t, func() {
		r := momentum.Calculate(momentum.ActivityLog{}, momentum.Campaign{Start: now}, now)

		So(r.Micro.Trend, ShouldEqual, momentum.Steady)
		So(r.Mid.Trend, ShouldEqual, momentum.OnTrack)
		So(r.Macro.Trend, ShouldEqual, momentum.Sustainable)
		So(r.Alerts, ShouldBeEmpty)
	})
}
