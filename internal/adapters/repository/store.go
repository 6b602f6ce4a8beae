// Package repository is the radar store: entity signals, scene aggregates,
// recommendations, the entity registry, the append-only event log and the
// per-entity score history.
//
// Writes are idempotent upserts keyed by natural id with last-write-wins
// semantics. Reads that find nothing return found=false rather than an
// error. Infrastructure failures are returned as *Error.
package repository

import (
	"context"

	"github.com/okian/radar/internal/domain/model"
)

// SignalStore persists per-entity signals and serves ranked reads.
type SignalStore interface {
	// SaveEntitySignals replaces the stored signals for s.EntityID.
	SaveEntitySignals(ctx context.Context, s model.Signals) error
	GetEntitySignals(ctx context.Context, entityID string) (model.Signals, bool, error)

	// TopByMomentum, TopByBreakout and AtRisk return up to n entities ordered
	// by the respective score descending, ties broken by entity id.
	TopByMomentum(ctx context.Context, n int) ([]model.Signals, error)
	TopByBreakout(ctx context.Context, n int) ([]model.Signals, error)
	AtRisk(ctx context.Context, n int) ([]model.Signals, error)

	// ListByScene returns every entity whose signals name sceneID.
	ListByScene(ctx context.Context, sceneID string) ([]model.Signals, error)

	// CountSignals returns how many entities have signals.
	CountSignals(ctx context.Context) (int, error)
}

// SceneStore persists scene aggregates.
type SceneStore interface {
	SaveSceneSignals(ctx context.Context, s model.SceneSignals) error
	GetSceneSignals(ctx context.Context, sceneID string) (model.SceneSignals, bool, error)
}

// RecommendationStore persists generated recommendations.
type RecommendationStore interface {
	SaveRecommendation(ctx context.Context, r model.Recommendation) error
	// RecommendationsForWorkspace returns up to n unexpired recommendations,
	// best score first.
	RecommendationsForWorkspace(ctx context.Context, workspaceID string, n int) ([]model.Recommendation, error)
}

// EntityStore is the registry of tracked entities.
type EntityStore interface {
	SaveEntity(ctx context.Context, e model.Entity) error
	GetEntity(ctx context.Context, id string) (model.Entity, bool, error)
	ListEntities(ctx context.Context, workspaceID string) ([]model.Entity, error)
}

// EventStore is the append-only event log.
type EventStore interface {
	// AppendEvent stores e. It returns false without error when an event with
	// the same source and external id already exists.
	AppendEvent(ctx context.Context, e model.Event) (bool, error)
	// ListEvents returns up to n events for an entity, newest first.
	ListEvents(ctx context.Context, entityID string, n int) ([]model.Event, error)
}

// HistoryStore keeps an append-only score history per entity.
type HistoryStore interface {
	AppendScoreSnapshot(ctx context.Context, snap model.ScoreSnapshot) error
	// ScoreHistory returns up to n snapshots for an entity, newest first.
	ScoreHistory(ctx context.Context, entityID string, n int) ([]model.ScoreSnapshot, error)
}

// Store is the full radar store.
type Store interface {
	SignalStore
	SceneStore
	RecommendationStore
	EntityStore
	EventStore
	HistoryStore
	Close() error
}
