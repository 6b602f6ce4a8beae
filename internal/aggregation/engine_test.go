package aggregation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/radar/internal/adapters/source"
	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/pkg/option"
)

var fixedNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func seed(f *source.Fake, id, scene string) {
	f.PutEntity(id,
		source.CampaignMetrics{Velocity: 0.8, EngagementRate: 0.6},
		source.GraphMetrics{Connectivity: 0.7, PrimarySceneID: scene},
		source.CoverageMetrics{Velocity: 0.5, PressQuality: 0.9},
		source.CreativeMetrics{Shift: 0.2, IdentityAlignment: 0.8},
		source.AudienceMetrics{Growth: 0.4, PlaylistGrowth: 0.3},
	)
}

// stuckCampaign never looks at ctx; it answers only when released.
type stuckCampaign struct {
	release <-chan struct{}
}

func (s stuckCampaign) CampaignMetrics(context.Context, string) (option.Option[source.CampaignMetrics], error) {
	<-s.release
	return option.Some(source.CampaignMetrics{Velocity: 1}), nil
}

func TestAggregate(t *testing.T) {
	ctx := context.Background()

	Convey("Given an engine over a fake adapter set", t, func() {
		fake := source.NewFake()
		engine := NewEngine(fake.Set(), WithClock(func() time.Time { return fixedNow }), WithAdapterTimeout(time.Second))

		Convey("When the entity has a primary scene", func() {
			seed(fake, "artist-1", "scene-a")
			fake.PutScene("scene-a", 80)

			sig, err := engine.Aggregate(ctx, "artist-1")

			Convey("Then every raw field is populated and scored", func() {
				So(err, ShouldBeNil)
				So(sig.EntityID, ShouldEqual, "artist-1")
				So(sig.SceneID, ShouldEqual, "scene-a")
				So(sig.SceneHotness, ShouldEqual, 80)
				So(sig.CampaignVelocity, ShouldEqual, 0.8)
				So(sig.PressQuality, ShouldEqual, 0.9)
				So(sig.PlaylistGrowth, ShouldEqual, 0.3)
				So(sig.MomentumScore, ShouldBeBetweenOrEqual, 0, 1)
				So(sig.MomentumScore, ShouldBeGreaterThan, 0)
				So(sig.BreakoutScore, ShouldBeBetweenOrEqual, 0, 1)
				So(sig.RiskScore, ShouldBeBetweenOrEqual, 0, 1)
				So(sig.UpdatedAt.Equal(fixedNow), ShouldBeTrue)
				So(sig.Metadata[model.MetaSources], ShouldEqual, "audience,campaign,coverage,creative,graph,scene")
				So(fake.Calls(model.SourceScene), ShouldEqual, 1)
			})
		})

		Convey("When the graph reports no scene", func() {
			seed(fake, "artist-2", "")
			sig, err := engine.Aggregate(ctx, "artist-2")

			Convey("Then hotness is neutral and the scene adapter is not called", func() {
				So(err, ShouldBeNil)
				So(sig.SceneHotness, ShouldEqual, model.NeutralSceneHotness)
				So(fake.Calls(model.SourceScene), ShouldEqual, 0)
			})
		})

		Convey("When no adapter has data", func() {
			sig, err := engine.Aggregate(ctx, "unknown")

			Convey("Then the record is empty but valid", func() {
				So(err, ShouldBeNil)
				So(sig.CampaignVelocity, ShouldEqual, 0)
				So(sig.SceneHotness, ShouldEqual, model.NeutralSceneHotness)
				So(sig.Metadata[model.MetaSources], ShouldEqual, "")
			})
		})

		Convey("When one adapter fails", func() {
			seed(fake, "artist-3", "")
			boom := errors.New("coverage down")
			fake.FailOn(model.SourceCoverage, "artist-3", boom)

			_, err := engine.Aggregate(ctx, "artist-3")

			Convey("Then an AggregationError names the source", func() {
				var aggErr *AggregationError
				So(errors.As(err, &aggErr), ShouldBeTrue)
				So(aggErr.EntityID, ShouldEqual, "artist-3")
				So(aggErr.Source, ShouldEqual, model.SourceCoverage)
				So(errors.Is(err, boom), ShouldBeTrue)
			})
		})

		Convey("When the scene adapter fails", func() {
			seed(fake, "artist-4", "scene-b")
			fake.FailOn(model.SourceScene, "scene-b", errors.New("scene down"))

			_, err := engine.Aggregate(ctx, "artist-4")

			var aggErr *AggregationError
			So(errors.As(err, &aggErr), ShouldBeTrue)
			So(aggErr.Source, ShouldEqual, model.SourceScene)
		})

		Convey("When an adapter is slower than the timeout", func() {
			seed(fake, "artist-5", "")
			fake.SetDelay(200 * time.Millisecond)
			slow := NewEngine(fake.Set(), WithAdapterTimeout(20*time.Millisecond))

			began := time.Now()
			_, err := slow.Aggregate(ctx, "artist-5")

			Convey("Then it fails as a timeout without waiting for the adapter", func() {
				So(errors.Is(err, source.ErrAdapterTimeout), ShouldBeTrue)
				So(time.Since(began), ShouldBeLessThan, 150*time.Millisecond)
			})
		})

		Convey("When the entity id is invalid", func() {
			_, err := engine.Aggregate(ctx, "bad id!")

			Convey("Then nothing is called", func() {
				So(errors.Is(err, ErrInvalidInput), ShouldBeTrue)
				So(fake.Calls(model.SourceCampaign), ShouldEqual, 0)
			})
		})

		Convey("Aggregating the same inputs twice is deterministic", func() {
			seed(fake, "artist-6", "")
			a, err := engine.Aggregate(ctx, "artist-6")
			So(err, ShouldBeNil)
			b, err := engine.Aggregate(ctx, "artist-6")
			So(err, ShouldBeNil)
			So(a.MomentumScore, ShouldEqual, b.MomentumScore)
			So(a.BreakoutScore, ShouldEqual, b.BreakoutScore)
			So(a.RiskScore, ShouldEqual, b.RiskScore)
		})
	})
}

func TestBatchAggregate(t *testing.T) {
	ctx := context.Background()

	Convey("Given a fake adapter set with five entities", t, func() {
		fake := source.NewFake()
		ids := make([]string, 5)
		for i := range ids {
			ids[i] = fmt.Sprintf("artist-%d", i)
			seed(fake, ids[i], "")
		}

		Convey("When one of them fails", func() {
			fake.FailOn(model.SourceAudience, "artist-2", errors.New("audience down"))
			engine := NewEngine(fake.Set(), WithMaxConcurrency(2))

			out, err := engine.BatchAggregate(ctx, ids)

			Convey("Then N-1 results come back in input order", func() {
				So(err, ShouldBeNil)
				So(len(out), ShouldEqual, 4)
				got := make([]string, 0, len(out))
				for _, s := range out {
					got = append(got, s.EntityID)
				}
				So(got, ShouldResemble, []string{"artist-0", "artist-1", "artist-3", "artist-4"})
			})
		})

		Convey("When the batch exceeds MaxBatch", func() {
			engine := NewEngine(fake.Set(), WithMaxBatch(3))
			out, err := engine.BatchAggregate(ctx, ids)

			Convey("Then it is truncated", func() {
				So(err, ShouldBeNil)
				So(len(out), ShouldEqual, 3)
				So(out[2].EntityID, ShouldEqual, "artist-2")
			})
		})

		Convey("When any id is invalid", func() {
			engine := NewEngine(fake.Set())
			_, err := engine.BatchAggregate(ctx, append([]string{""}, ids...))

			Convey("Then the batch is rejected before any call", func() {
				So(errors.Is(err, ErrInvalidInput), ShouldBeTrue)
				So(fake.Calls(model.SourceCampaign), ShouldEqual, 0)
			})
		})

		Convey("An empty batch returns no results", func() {
			out, err := NewEngine(fake.Set()).BatchAggregate(ctx, nil)
			So(err, ShouldBeNil)
			So(out, ShouldBeEmpty)
		})
	})

	Convey("Given a batch larger than MaxConcurrency", t, func() {
		fake := source.NewFake()
		fake.SetDelay(20 * time.Millisecond)
		ids := make([]string, 25)
		for i := range ids {
			ids[i] = fmt.Sprintf("e%02d", i)
			seed(fake, ids[i], "")
		}
		engine := NewEngine(fake.Set(), WithMaxConcurrency(10))

		out, err := engine.BatchAggregate(ctx, ids)

		Convey("Then no more than MaxConcurrency entities are ever in flight", func() {
			So(err, ShouldBeNil)
			So(len(out), ShouldEqual, 25)
			So(fake.HighWater(), ShouldBeLessThanOrEqualTo, 10)
			So(fake.HighWater(), ShouldBeGreaterThan, 1)
		})
	})

	Convey("Given a campaign adapter that ignores its context", t, func() {
		fake := source.NewFake()
		ids := []string{"a", "b", "c"}
		for _, id := range ids {
			seed(fake, id, "")
		}
		release := make(chan struct{})
		defer close(release)
		set := fake.Set()
		set.Campaign = stuckCampaign{release: release}
		engine := NewEngine(set, WithAdapterTimeout(50*time.Millisecond))

		began := time.Now()
		out, err := engine.BatchAggregate(ctx, ids)
		took := time.Since(began)

		Convey("Then the chunk finishes at the timeout and every entity is excluded", func() {
			So(err, ShouldBeNil)
			So(out, ShouldBeEmpty)
			So(took, ShouldBeLessThan, time.Second)
		})

		Convey("Then a single aggregation fails as a timeout", func() {
			_, err := engine.Aggregate(ctx, "a")
			var aggErr *AggregationError
			So(errors.As(err, &aggErr), ShouldBeTrue)
			So(aggErr.Source, ShouldEqual, model.SourceCampaign)
			So(errors.Is(err, source.ErrAdapterTimeout), ShouldBeTrue)
		})
	})

	Convey("Given a cancelled context", t, func() {
		fake := source.NewFake()
		seed(fake, "a", "")
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		out, err := NewEngine(fake.Set()).BatchAggregate(cctx, []string{"a"})

		So(errors.Is(err, context.Canceled), ShouldBeTrue)
		So(out, ShouldBeEmpty)
	})
}
