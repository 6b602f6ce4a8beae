// Package model contains domain models passed between layers.
package model

import (
	"math"
	"time"
)

// MaxEventWeight bounds how much any single event can move aggregate scores.
const MaxEventWeight = 3.0

// EventType classifies an event.
type EventType string

// Known event types.
const (
	EventCampaignWin       EventType = "campaign_win"
	EventPlaylistAdd       EventType = "playlist_add"
	EventPressMention      EventType = "press_mention"
	EventSceneCrossover    EventType = "scene_crossover"
	EventAudienceMilestone EventType = "audience_milestone"
	EventRelease           EventType = "release"
)

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	switch t {
	case EventCampaignWin, EventPlaylistAdd, EventPressMention,
		EventSceneCrossover, EventAudienceMilestone, EventRelease:
		return true
	}
	return false
}

// EventSource names the subsystem that produced an event.
type EventSource string

// Known event sources. SourceManual marks operator-entered facts.
const (
	SourceCampaign EventSource = "campaign"
	SourceGraph    EventSource = "graph"
	SourceCoverage EventSource = "coverage"
	SourceCreative EventSource = "creative"
	SourceAudience EventSource = "audience"
	SourceScene    EventSource = "scene"
	SourceManual   EventSource = "manual"
)

// Valid reports whether s is a known source.
func (s EventSource) Valid() bool {
	switch s {
	case SourceCampaign, SourceGraph, SourceCoverage, SourceCreative,
		SourceAudience, SourceScene, SourceManual:
		return true
	}
	return false
}

// Event is an immutable, weighted, dated fact about an entity.
// Events are appended and never updated or deleted.
type Event struct {
	ID         string            `json:"id"`
	EntityID   string            `json:"entity_id"`
	Type       EventType         `json:"event_type"`
	Date       time.Time         `json:"event_date"`
	Weight     float64           `json:"weight"`
	Source     EventSource       `json:"source"`
	ExternalID string            `json:"external_id,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// IdempotencyKey identifies the upstream fact an event came from.
// Empty when the event has no upstream id (manual entries).
func (e Event) IdempotencyKey() string {
	if e.ExternalID == "" {
		return ""
	}
	return string(e.Source) + ":" + e.ExternalID
}

// ClampWeight keeps w within [0, MaxEventWeight]. NaN becomes 0.
func ClampWeight(w float64) float64 {
	switch {
	case math.IsNaN(w), w < 0:
		return 0
	case w > MaxEventWeight:
		return MaxEventWeight
	}
	return w
}
