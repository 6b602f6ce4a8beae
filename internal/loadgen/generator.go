package loadgen

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/internal/ingestion"
)

var eventTypes = []model.EventType{
	model.EventCampaignWin,
	model.EventPlaylistAdd,
	model.EventPressMention,
	model.EventSceneCrossover,
	model.EventAudienceMilestone,
	model.EventRelease,
}

// pick maps key onto [0, n).
func pick(key string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(n))
}

// generateEntities returns cfg.Entities deterministic entities. Running twice
// with the same config re-registers the same ids.
func generateEntities(cfg Config) []model.Entity {
	out := make([]model.Entity, cfg.Entities)
	for i := range out {
		id := fmt.Sprintf("%s-%05d", cfg.Prefix, i)
		e := model.Entity{
			ID:          id,
			Name:        fmt.Sprintf("Load Artist %d", i),
			WorkspaceID: cfg.Workspace,
			Tags:        []string{"loadgen"},
		}
		if len(cfg.Scenes) > 0 {
			e.SceneID = cfg.Scenes[pick(id, len(cfg.Scenes))]
		}
		out[i] = e
	}
	return out
}

// generateEvents returns cfg.EventsPerEntity manual events per entity, dated
// within the last 90 days of now. External ids make resubmission idempotent.
func generateEvents(cfg Config, entities []model.Entity, now time.Time) []ingestion.ManualEvent {
	out := make([]ingestion.ManualEvent, 0, len(entities)*cfg.EventsPerEntity)
	for _, e := range entities {
		for i := 0; i < cfg.EventsPerEntity; i++ {
			key := fmt.Sprintf("%s-%d", e.ID, i)
			out = append(out, ingestion.ManualEvent{
				EntityID:   e.ID,
				Type:       eventTypes[pick(key, len(eventTypes))],
				Date:       now.AddDate(0, 0, -pick(key+".date", 90)).Truncate(24 * time.Hour),
				ExternalID: "loadgen-" + key,
			})
		}
	}
	return out
}
