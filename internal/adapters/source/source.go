// Package source defines the read-only contracts for the upstream subsystems
// the radar aggregates from, plus implementations: a deterministic fake for
// tests, a synthetic generator, a JSON/HTTP client, a static no-data adapter,
// and guards (circuit breaker, rate limit, timeout, cache) that wrap them.
//
// Every adapter returns (option.Option[T], error). None means the upstream
// has no data for the key; an error means the call itself failed.
// Implementations must be safe for concurrent use.
package source

import (
	"context"
	"time"

	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/pkg/option"
)

// CampaignMetrics is what the campaign subsystem reports for an entity.
type CampaignMetrics struct {
	Velocity       float64 `json:"velocity"`
	EngagementRate float64 `json:"engagement_rate"`
}

// GraphMetrics is the collaboration graph position of an entity.
type GraphMetrics struct {
	Connectivity   float64 `json:"connectivity"`
	PrimarySceneID string  `json:"primary_scene_id,omitempty"`
}

// CoverageMetrics is press and external coverage for an entity.
type CoverageMetrics struct {
	Velocity     float64 `json:"velocity"`
	PressQuality float64 `json:"press_quality"`
}

// CreativeMetrics is creative-output change for an entity.
type CreativeMetrics struct {
	Shift             float64 `json:"shift"`
	IdentityAlignment float64 `json:"identity_alignment"`
}

// AudienceMetrics is audience and playlist growth for an entity.
type AudienceMetrics struct {
	Growth         float64 `json:"growth"`
	PlaylistGrowth float64 `json:"playlist_growth"`
}

// CampaignAdapter reads campaign activity.
type CampaignAdapter interface {
	CampaignMetrics(ctx context.Context, entityID string) (option.Option[CampaignMetrics], error)
}

// GraphAdapter reads cross-network connectivity and scene membership.
type GraphAdapter interface {
	GraphMetrics(ctx context.Context, entityID string) (option.Option[GraphMetrics], error)
}

// CoverageAdapter reads coverage velocity and press quality.
type CoverageAdapter interface {
	CoverageMetrics(ctx context.Context, entityID string) (option.Option[CoverageMetrics], error)
}

// CreativeAdapter reads creative shift and identity alignment.
type CreativeAdapter interface {
	CreativeMetrics(ctx context.Context, entityID string) (option.Option[CreativeMetrics], error)
}

// AudienceAdapter reads audience and playlist growth.
type AudienceAdapter interface {
	AudienceMetrics(ctx context.Context, entityID string) (option.Option[AudienceMetrics], error)
}

// SceneAdapter reads scene hotness on a 0-100 scale.
type SceneAdapter interface {
	SceneHotness(ctx context.Context, sceneID string) (option.Option[float64], error)
}

// Set groups one adapter per upstream subsystem.
type Set struct {
	Campaign CampaignAdapter
	Graph    GraphAdapter
	Coverage CoverageAdapter
	Creative CreativeAdapter
	Audience AudienceAdapter
	Scene    SceneAdapter
}

// Fact is one raw upstream fact that ingestion turns into an Event.
type Fact struct {
	ExternalID string          `json:"external_id"`
	Type       model.EventType `json:"type"`
	Date       time.Time       `json:"date"`
	// Audience is the follower count or outlet reach behind the fact, if known.
	Audience option.Option[int64] `json:"-"`
	Metadata map[string]string    `json:"metadata,omitempty"`
}

// FactSource lists raw facts about an entity. An empty slice means no data.
type FactSource interface {
	Facts(ctx context.Context, entityID string) ([]Fact, error)
}

// FactSourceFunc adapts a function to FactSource.
type FactSourceFunc func(ctx context.Context, entityID string) ([]Fact, error)

// Facts implements FactSource.
func (f FactSourceFunc) Facts(ctx context.Context, entityID string) ([]Fact, error) {
	return f(ctx, entityID)
}

// FactSet maps each ingesting source to its fact feed.
type FactSet map[model.EventSource]FactSource
