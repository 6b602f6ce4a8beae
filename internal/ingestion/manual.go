package ingestion

import (
	"context"
	"fmt"
	"maps"
	"math"
	"time"

	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/internal/domain/scoring"
	"github.com/okian/radar/pkg/logger"
)

// ManualEvent is an operator-entered fact.
type ManualEvent struct {
	EntityID string          `json:"entity_id"`
	Type     model.EventType `json:"type"`
	Date     time.Time       `json:"date"`
	// Weight overrides the base weight when set. Zero is a valid weight.
	Weight *float64 `json:"weight,omitempty"`
	// ExternalID makes the call idempotent when set.
	ExternalID string            `json:"external_id,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Validate checks everything that can be checked without I/O.
func (m ManualEvent) Validate() error {
	switch {
	case !model.ValidID(m.EntityID):
		return fmt.Errorf("%w: entity id %q", ErrInvalidInput, m.EntityID)
	case !m.Type.Valid():
		return fmt.Errorf("%w: event type %q", ErrInvalidInput, m.Type)
	case m.Date.IsZero():
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	case m.Weight != nil && (math.IsNaN(*m.Weight) || *m.Weight < 0 || *m.Weight > model.MaxEventWeight):
		return fmt.Errorf("%w: weight must be within [0, %.1f]", ErrInvalidInput, model.MaxEventWeight)
	}
	return nil
}

// RecordManualEvent validates m, checks the entity exists and appends it
// with Source=manual.
func (in *Ingestor) RecordManualEvent(ctx context.Context, m ManualEvent) (model.Event, error) {
	if err := m.Validate(); err != nil {
		return model.Event{}, err
	}
	_, found, err := in.entities.GetEntity(ctx, m.EntityID)
	if err != nil {
		return model.Event{}, fmt.Errorf("resolve entity %s: %w", m.EntityID, err)
	}
	if !found {
		return model.Event{}, fmt.Errorf("%w: %s", ErrEntityNotFound, m.EntityID)
	}

	weight := scoring.BaseEventWeight
	if m.Weight != nil {
		weight = *m.Weight
	}
	now := in.now().UTC()
	ev := model.Event{
		ID:         in.newID(),
		EntityID:   m.EntityID,
		Type:       m.Type,
		Date:       m.Date.UTC(),
		Weight:     weight,
		Source:     model.SourceManual,
		ExternalID: m.ExternalID,
		Metadata:   maps.Clone(m.Metadata),
		CreatedAt:  now,
	}

	ok, err := in.events.AppendEvent(ctx, ev)
	if err != nil {
		return model.Event{}, fmt.Errorf("append manual event: %w", err)
	}
	if !ok {
		return model.Event{}, fmt.Errorf("%w: %s", ErrDuplicateEvent, ev.IdempotencyKey())
	}

	in.log.Info(ctx, "manual event recorded",
		logger.EntityID(ev.EntityID),
		logger.String("event_id", ev.ID),
		logger.String("type", string(ev.Type)),
	)
	in.publish(ctx, ev)
	return ev, nil
}
