package model

import "time"

// RecommendationType is the suggested action for an entity.
type RecommendationType string

// Recommendation types.
const (
	RecommendSign        RecommendationType = "sign"
	RecommendWatch       RecommendationType = "watch"
	RecommendCollaborate RecommendationType = "collaborate"
	RecommendPitch       RecommendationType = "pitch"
	RecommendPass        RecommendationType = "pass"
)

// Recommendation is a generated, expiring suggestion for one entity in a workspace.
type Recommendation struct {
	ID            string             `json:"id"`
	WorkspaceID   string             `json:"workspace_id"`
	EntityID      string             `json:"entity_id"`
	Type          RecommendationType `json:"recommendation_type"`
	Score         float64            `json:"score"`
	Confidence    float64            `json:"confidence"`
	Rationale     string             `json:"rationale"`
	Opportunities []string           `json:"opportunities"`
	Risks         []string           `json:"risks"`
	CreatedAt     time.Time          `json:"created_at"`
	ExpiresAt     *time.Time         `json:"expires_at,omitempty"`
}

// Expired reports whether r has an expiry at or before now.
func (r Recommendation) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && !r.ExpiresAt.After(now)
}
