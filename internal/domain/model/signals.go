package model

import (
	"sort"
	"strings"
	"time"
)

// NeutralSceneHotness is used when an entity has no identified scene.
const NeutralSceneHotness = 50.0

// MetaSources is the Signals metadata key listing, comma separated and
// sorted, the upstream sources that reported data.
const MetaSources = "sources"

// Signals is the flat per-entity signal record. The raw fields come from
// upstream adapters; the three scores are derived from them by a scoring pass.
type Signals struct {
	EntityID string   `json:"entity_id" db:"entity_id"`
	SceneID  string   `json:"scene_id,omitempty" db:"scene_id"`
	Tags     []string `json:"tags,omitempty" db:"-"`

	// Raw signals.
	CampaignVelocity  float64 `json:"campaign_velocity" db:"campaign_velocity"`
	EngagementRate    float64 `json:"engagement_rate" db:"engagement_rate"`
	Connectivity      float64 `json:"connectivity" db:"connectivity"`
	CoverageVelocity  float64 `json:"coverage_velocity" db:"coverage_velocity"`
	PressQuality      float64 `json:"press_quality" db:"press_quality"`
	CreativeShift     float64 `json:"creative_shift" db:"creative_shift"`
	IdentityAlignment float64 `json:"identity_alignment" db:"identity_alignment"`
	AudienceGrowth    float64 `json:"audience_growth" db:"audience_growth"`
	PlaylistGrowth    float64 `json:"playlist_growth" db:"playlist_growth"`
	SceneHotness      float64 `json:"scene_hotness" db:"scene_hotness"`

	// Derived scores, each in [0,1].
	MomentumScore float64 `json:"momentum_score" db:"momentum_score"`
	BreakoutScore float64 `json:"breakout_score" db:"breakout_score"`
	RiskScore     float64 `json:"risk_score" db:"risk_score"`

	Metadata  map[string]string `json:"metadata,omitempty" db:"-"`
	UpdatedAt time.Time         `json:"updated_at" db:"-"`
}

// SceneSignals aggregates the member signals of one scene.
type SceneSignals struct {
	SceneID          string            `json:"scene_id"`
	Hotness          float64           `json:"hotness"`
	Influence        float64           `json:"influence"`
	AudienceTrend    float64           `json:"audience_trend"`
	BreakoutEntities []string          `json:"breakout_entities"`
	RisingEntities   []string          `json:"rising_entities"`
	MemberCount      int               `json:"member_count"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// NormalizeTags trims, de-duplicates and sorts tags so they behave as a set.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	if len(out) == 0 {
		return nil
	}
	return out
}

// Sources returns the upstream sources recorded under MetaSources.
func (s Signals) Sources() []string {
	raw := s.Metadata[MetaSources]
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

// ScoreSnapshot is one point in an entity's score history. Snapshots are
// append only; the latest Signals stay the source of truth for rankings.
type ScoreSnapshot struct {
	EntityID      string    `json:"entity_id"`
	MomentumScore float64   `json:"momentum_score"`
	BreakoutScore float64   `json:"breakout_score"`
	RiskScore     float64   `json:"risk_score"`
	SceneHotness  float64   `json:"scene_hotness"`
	TakenAt       time.Time `json:"taken_at"`
}

// Snapshot captures the derived scores of s at its UpdatedAt.
func (s Signals) Snapshot() ScoreSnapshot {
	return ScoreSnapshot{
		EntityID:      s.EntityID,
		MomentumScore: s.MomentumScore,
		BreakoutScore: s.BreakoutScore,
		RiskScore:     s.RiskScore,
		SceneHotness:  s.SceneHotness,
		TakenAt:       s.UpdatedAt,
	}
}
