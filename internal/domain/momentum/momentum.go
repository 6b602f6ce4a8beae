// Package momentum computes point-in-time velocity views over campaign
// activity at three time scales. Nothing here is persisted; snapshots are
// recomputed from the activity log on demand.
package momentum

import (
	"time"
)

// Level discriminates the three snapshot kinds.
type Level string

// Snapshot levels.
const (
	LevelMicro Level = "micro"
	LevelMid   Level = "mid"
	LevelMacro Level = "macro"
)

// Window sizes and thresholds.
const (
	MicroWindow = time.Hour
	MidWindow   = 24 * time.Hour

	// Micro trend ratios, expressed in tenths so the comparison stays exact.
	accelerateTenths = 12
	decelerateTenths = 8

	AheadRatio          = 1.1
	BehindRatio         = 0.9
	BehindEngagement    = 0.8
	BurnoutThreshold    = 5
	UnderutilizedCutoff = 0.3
	UnderutilizedAfter  = 7 * 24 * time.Hour
	burnoutPenalty      = 0.1
)

// Snapshot is implemented by MicroSnapshot, MidSnapshot and MacroSnapshot.
type Snapshot interface {
	Level() Level
}

// Task is one unit of campaign work.
type Task struct {
	ID          string     `json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Blocked     bool       `json:"blocked,omitempty"`
}

// Phase is a campaign milestone.
type Phase struct {
	ID          string     `json:"id"`
	PlannedEnd  time.Time  `json:"planned_end"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Outreach is one contact attempt and whether it drew a response.
type Outreach struct {
	At      time.Time `json:"at"`
	Engaged bool      `json:"engaged"`
}

// ActivityLog is the task and phase history the calculators read.
type ActivityLog struct {
	Tasks    []Task     `json:"tasks"`
	Phases   []Phase    `json:"phases"`
	Outreach []Outreach `json:"outreach"`
}

// Campaign carries the whole-campaign totals for the macro view.
type Campaign struct {
	Start             time.Time `json:"start"`
	PhasesTotal       int       `json:"phases_total"`
	PhasesCompleted   int       `json:"phases_completed"`
	Investment        float64   `json:"investment"`
	Returns           float64   `json:"returns"`
	BurnoutIndicators int       `json:"burnout_indicators"`
}

// Report bundles all three snapshots with the alerts they raise.
type Report struct {
	Micro  MicroSnapshot `json:"micro"`
	Mid    MidSnapshot   `json:"mid"`
	Macro  MacroSnapshot `json:"macro"`
	Alerts []string      `json:"alerts"`
}

// Calculate computes every snapshot at now and scans them for alerts.
func Calculate(log ActivityLog, campaign Campaign, now time.Time) Report {
	micro := CalculateMicro(log, now)
	mid := CalculateMid(log, now)
	macro := CalculateMacro(campaign, now)
	return Report{Micro: micro, Mid: mid, Macro: macro, Alerts: Alerts(micro, mid, macro)}
}

// within reports whether t is in the half-open window (from, to].
func within(t, from, to time.Time) bool {
	return t.After(from) && !t.After(to)
}
