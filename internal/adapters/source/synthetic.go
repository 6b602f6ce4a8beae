package source

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/pkg/option"
)

// Synthetic derives stable pseudo-metrics from a hash of the key. Identical
// ids always produce identical values, which makes it useful for local runs
// and demos without any upstream.
type Synthetic struct {
	// Scenes is the pool primary scenes are drawn from. Empty means no entity has a scene.
	Scenes []string
	// Epoch anchors synthetic fact dates.
	Epoch time.Time
}

// NewSynthetic returns a Synthetic generator over scenes.
func NewSynthetic(scenes ...string) *Synthetic {
	return &Synthetic{Scenes: scenes, Epoch: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Set returns the generator as a full adapter set.
func (s *Synthetic) Set() Set {
	return Set{Campaign: s, Graph: s, Coverage: s, Creative: s, Audience: s, Scene: s}
}

// FactSet returns generated fact feeds for every ingesting source.
func (s *Synthetic) FactSet() FactSet {
	return FactSet{
		model.SourceCampaign: s.feed(model.SourceCampaign, model.EventCampaignWin),
		model.SourceAudience: s.feed(model.SourceAudience, model.EventPlaylistAdd),
		model.SourceCoverage: s.feed(model.SourceCoverage, model.EventPressMention),
		model.SourceScene:    s.feed(model.SourceScene, model.EventSceneCrossover),
	}
}

// unit returns a value in [0,1) that depends only on key and salt.
func unit(key, salt string) float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(salt))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(key))
	return float64(h.Sum64()%10_000) / 10_000
}

// CampaignMetrics implements CampaignAdapter.
func (s *Synthetic) CampaignMetrics(_ context.Context, id string) (option.Option[CampaignMetrics], error) {
	return option.Some(CampaignMetrics{
		Velocity:       unit(id, "campaign.velocity") * 1.5,
		EngagementRate: unit(id, "campaign.engagement"),
	}), nil
}

// GraphMetrics implements GraphAdapter.
func (s *Synthetic) GraphMetrics(_ context.Context, id string) (option.Option[GraphMetrics], error) {
	g := GraphMetrics{Connectivity: unit(id, "graph.connectivity")}
	if len(s.Scenes) > 0 {
		g.PrimarySceneID = s.Scenes[int(unit(id, "graph.scene")*float64(len(s.Scenes)))]
	}
	return option.Some(g), nil
}

// CoverageMetrics implements CoverageAdapter.
func (s *Synthetic) CoverageMetrics(_ context.Context, id string) (option.Option[CoverageMetrics], error) {
	return option.Some(CoverageMetrics{
		Velocity:     unit(id, "coverage.velocity"),
		PressQuality: unit(id, "coverage.quality"),
	}), nil
}

// CreativeMetrics implements CreativeAdapter.
func (s *Synthetic) CreativeMetrics(_ context.Context, id string) (option.Option[CreativeMetrics], error) {
	return option.Some(CreativeMetrics{
		Shift:             unit(id, "creative.shift"),
		IdentityAlignment: unit(id, "creative.identity"),
	}), nil
}

// AudienceMetrics implements AudienceAdapter.
func (s *Synthetic) AudienceMetrics(_ context.Context, id string) (option.Option[AudienceMetrics], error) {
	return option.Some(AudienceMetrics{
		Growth:         unit(id, "audience.growth")*1.2 - 0.2,
		PlaylistGrowth: unit(id, "audience.playlist") * 2,
	}), nil
}

// SceneHotness implements SceneAdapter.
func (s *Synthetic) SceneHotness(_ context.Context, sceneID string) (option.Option[float64], error) {
	return option.Some(unit(sceneID, "scene.hotness") * 100), nil
}

func (s *Synthetic) feed(src model.EventSource, typ model.EventType) FactSource {
	return FactSourceFunc(func(_ context.Context, id string) ([]Fact, error) {
		n := int(unit(id, string(src)+".facts") * 4)
		facts := make([]Fact, 0, n)
		for i := 0; i < n; i++ {
			salt := fmt.Sprintf("%s.fact.%d", src, i)
			facts = append(facts, Fact{
				ExternalID: fmt.Sprintf("%s-%s-%d", src, id, i),
				Type:       typ,
				Date:       s.Epoch.Add(time.Duration(unit(id, salt)*365*24) * time.Hour),
				Audience:   option.Some(int64(unit(id, salt+".audience") * 2_000_000)),
			})
		}
		return facts, nil
	})
}
