package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	service "github.com/okian/radar/internal/app"
	"github.com/okian/radar/internal/adapters/repository"
	"github.com/okian/radar/internal/adapters/source"
	"github.com/okian/radar/internal/config"
	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/internal/domain/momentum"
	"github.com/okian/radar/internal/ingestion"
	"github.com/okian/radar/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

// flakyStore fails signal writes for one entity.
type flakyStore struct {
	*repository.MemoryStore
	failID string
}

func (f *flakyStore) SaveEntitySignals(ctx context.Context, s model.Signals) error {
	if s.EntityID == f.failID {
		return &repository.Error{Op: "save_entity_signals", Err: errors.New("disk full")}
	}
	return f.MemoryStore.SaveEntitySignals(ctx, s)
}

func seededFake() *source.Fake {
	fake := source.NewFake()
	fake.PutEntity("artist-a",
		source.CampaignMetrics{Velocity: 2, EngagementRate: 0.8},
		source.GraphMetrics{Connectivity: 0.9, PrimarySceneID: "berlin"},
		source.CoverageMetrics{Velocity: 1.5, PressQuality: 0.7},
		source.CreativeMetrics{Shift: 0.2, IdentityAlignment: 0.9},
		source.AudienceMetrics{Growth: 0.6, PlaylistGrowth: 1.2},
	)
	fake.PutEntity("artist-b",
		source.CampaignMetrics{Velocity: 0.1, EngagementRate: 0.1},
		source.GraphMetrics{Connectivity: 0.1, PrimarySceneID: "berlin"},
		source.CoverageMetrics{},
		source.CreativeMetrics{Shift: 0.9, IdentityAlignment: 0.1},
		source.AudienceMetrics{Growth: -0.4},
	)
	fake.PutScene("berlin", 80)
	fake.PutFacts(model.SourceCampaign, "artist-a",
		source.Fact{ExternalID: "c-1", Type: model.EventCampaignWin, Date: testNow.Add(-time.Hour)})
	return fake
}

func startService(store repository.Store, fake *source.Fake, mutate func(*config.Config)) *service.Service {
	cfg := config.New()
	cfg.WorkerCount = 2
	cfg.MaxTopLimit = 5
	if mutate != nil {
		mutate(cfg)
	}
	svc := service.New(
		service.WithConfig(cfg),
		service.WithStore(store),
		service.WithSources(fake.Set(), fake.FactSet()),
		service.WithClock(testClock),
		service.WithLogger(logger.Nop()),
	)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		svc := service.New(service.WithLogger(logger.Nop()))

		Convey("Then operations report it is not started", func() {
			_, err := svc.TriggerAggregation(context.Background(), "artist-a")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.Stats(context.Background())["started"], ShouldEqual, false)
		})
	})

	Convey("Given a started service", t, func() {
		svc := startService(repository.NewMemoryStore(repository.WithClock(testClock)), seededFake(), nil)

		Convey("Start again is a no-op and Stop marks it stopped", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			stats := svc.Stats(context.Background())
			So(stats["started"], ShouldEqual, true)
			So(stats["workers"], ShouldEqual, 2)

			svc.Stop()
			So(svc.Stats(context.Background())["started"], ShouldEqual, false)
			svc.Stop()
		})
	})
}

func TestService_Aggregation(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service over a fake upstream", t, func() {
		store := repository.NewMemoryStore(repository.WithClock(testClock))
		svc := startService(store, seededFake(), nil)
		defer svc.Stop()

		So(store.SaveEntity(ctx, model.Entity{ID: "artist-a", Name: "A", Tags: []string{"techno", "berlin"}}), ShouldBeNil)

		Convey("When one entity is aggregated", func() {
			sig, err := svc.TriggerAggregation(ctx, "artist-a")

			Convey("Then it is persisted with registry tags and scene hotness", func() {
				So(err, ShouldBeNil)
				So(sig.Tags, ShouldResemble, []string{"berlin", "techno"})
				So(sig.SceneHotness, ShouldEqual, 80)

				stored, err := svc.Signals(ctx, "artist-a")
				So(err, ShouldBeNil)
				So(stored.MomentumScore, ShouldEqual, sig.MomentumScore)
			})
		})

		Convey("When the id is invalid", func() {
			_, err := svc.TriggerAggregation(ctx, "")
			So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("When an entity has never been aggregated", func() {
			_, err := svc.Signals(ctx, "artist-z")
			So(errors.Is(err, service.ErrNoData), ShouldBeTrue)
		})

		Convey("When a batch is aggregated and ranked", func() {
			saved, err := svc.TriggerBatchAggregation(ctx, []string{"artist-a", "artist-b"})
			So(err, ShouldBeNil)
			So(len(saved), ShouldEqual, 2)

			top, err := svc.TopN(ctx, service.RankMomentum, 10)
			So(err, ShouldBeNil)
			So(len(top), ShouldEqual, 2)
			So(top[0].EntityID, ShouldEqual, "artist-a")

			risky, err := svc.TopN(ctx, service.RankRisk, 1)
			So(err, ShouldBeNil)
			So(risky[0].EntityID, ShouldEqual, "artist-b")

			_, err = svc.TopN(ctx, service.RankBreakout, 0)
			So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
		})
	})

	Convey("Given an upstream that fails for one entity", t, func() {
		fake := seededFake()
		fake.FailOn(model.SourceCoverage, "artist-b", errors.New("coverage down"))
		svc := startService(repository.NewMemoryStore(repository.WithClock(testClock)), fake, nil)
		defer svc.Stop()

		Convey("Then a single aggregation reports an upstream error", func() {
			_, err := svc.TriggerAggregation(ctx, "artist-b")
			So(errors.Is(err, service.ErrUpstream), ShouldBeTrue)
		})

		Convey("Then a batch leaves that entity out", func() {
			saved, err := svc.TriggerBatchAggregation(ctx, []string{"artist-a", "artist-b"})
			So(err, ShouldBeNil)
			So(len(saved), ShouldEqual, 1)
			So(saved[0].EntityID, ShouldEqual, "artist-a")
		})
	})

	Convey("Given a store that rejects one entity", t, func() {
		store := &flakyStore{MemoryStore: repository.NewMemoryStore(repository.WithClock(testClock)), failID: "artist-a"}
		svc := startService(store, seededFake(), nil)
		defer svc.Stop()

		Convey("Then a single aggregation surfaces the store error", func() {
			_, err := svc.TriggerAggregation(ctx, "artist-a")
			So(errors.Is(err, repository.ErrStore), ShouldBeTrue)
		})

		Convey("Then a batch logs and skips it", func() {
			saved, err := svc.TriggerBatchAggregation(ctx, []string{"artist-a", "artist-b"})
			So(err, ShouldBeNil)
			So(len(saved), ShouldEqual, 1)
			So(saved[0].EntityID, ShouldEqual, "artist-b")
		})
	})
}

func TestService_Async(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service", t, func() {
		svc := startService(repository.NewMemoryStore(repository.WithClock(testClock)), seededFake(), nil)
		defer svc.Stop()

		Convey("When an aggregation is enqueued", func() {
			job, err := svc.EnqueueAggregation(ctx, "artist-a")
			So(err, ShouldBeNil)
			So(job.ID, ShouldNotBeBlank)

			Convey("Then a worker eventually persists it", func() {
				deadline := time.Now().Add(2 * time.Second)
				var serr error
				for time.Now().Before(deadline) {
					if _, serr = svc.Signals(ctx, "artist-a"); serr == nil {
						break
					}
					time.Sleep(10 * time.Millisecond)
				}
				So(serr, ShouldBeNil)
			})
		})

		Convey("When the id is invalid nothing is enqueued", func() {
			_, err := svc.EnqueueAggregation(ctx, "bad id")
			So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
		})
	})
}

func TestService_EventsScenesRecommendations(t *testing.T) {
	ctx := context.Background()

	Convey("Given registered entities with signals", t, func() {
		svc := startService(repository.NewMemoryStore(repository.WithClock(testClock)), seededFake(), func(c *config.Config) {
			c.RecommendationTTLHours = 24
		})
		defer svc.Stop()

		for _, id := range []string{"artist-a", "artist-b"} {
			_, err := svc.RegisterEntity(ctx, model.Entity{ID: id, Name: id, WorkspaceID: "ws-1"})
			So(err, ShouldBeNil)
		}
		_, err := svc.TriggerBatchAggregation(ctx, []string{"artist-a", "artist-b"})
		So(err, ShouldBeNil)

		Convey("Ingestion appends each upstream fact once", func() {
			n, err := svc.IngestAll(ctx, "artist-a")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)

			n, err = svc.IngestAll(ctx, "artist-a")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 0)

			events, err := svc.ListEvents(ctx, "artist-a", 10)
			So(err, ShouldBeNil)
			So(len(events), ShouldEqual, 1)
		})

		Convey("Every save appends a score snapshot", func() {
			history, err := svc.ScoreHistory(ctx, "artist-a", 10)
			So(err, ShouldBeNil)
			So(history, ShouldHaveLength, 1)

			sig, err := svc.TriggerAggregation(ctx, "artist-a")
			So(err, ShouldBeNil)
			history, err = svc.ScoreHistory(ctx, "artist-a", 10)
			So(err, ShouldBeNil)
			So(history, ShouldHaveLength, 2)
			So(history[0].MomentumScore, ShouldEqual, sig.MomentumScore)
			So(history[0].TakenAt.Equal(testNow), ShouldBeTrue)

			_, err = svc.ScoreHistory(ctx, "bad id!", 10)
			So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("Manual events need a registered entity", func() {
			ev, err := svc.RecordManualEvent(ctx, ingestion.ManualEvent{
				EntityID: "artist-a", Type: model.EventRelease, Date: testNow,
			})
			So(err, ShouldBeNil)
			So(ev.Source, ShouldEqual, model.SourceManual)

			_, err = svc.RecordManualEvent(ctx, ingestion.ManualEvent{
				EntityID: "ghost", Type: model.EventRelease, Date: testNow,
			})
			So(errors.Is(err, service.ErrNoData), ShouldBeTrue)

			_, err = svc.RecordManualEvent(ctx, ingestion.ManualEvent{EntityID: "artist-a", Type: "nope", Date: testNow})
			So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("Scene refresh aggregates members", func() {
			sc, err := svc.RefreshScene(ctx, "berlin")
			So(err, ShouldBeNil)
			So(sc.MemberCount, ShouldEqual, 2)

			stored, err := svc.Scene(ctx, "berlin")
			So(err, ShouldBeNil)
			So(stored.Hotness, ShouldEqual, sc.Hotness)

			_, err = svc.RefreshScene(ctx, "lagos")
			So(errors.Is(err, service.ErrNoData), ShouldBeTrue)
		})

		Convey("Generated recommendations are listed best first", func() {
			recs, err := svc.GenerateRecommendations(ctx, "ws-1", 10)
			So(err, ShouldBeNil)
			So(len(recs), ShouldEqual, 2)

			listed, err := svc.RecommendationsForWorkspace(ctx, "ws-1", 10)
			So(err, ShouldBeNil)
			So(len(listed), ShouldEqual, 2)
			So(listed[0].Score, ShouldBeGreaterThanOrEqualTo, listed[1].Score)
			So(listed[0].ExpiresAt, ShouldNotBeNil)

			_, err = svc.RecommendationsForWorkspace(ctx, "", 10)
			So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
		})
	})
}

func TestService_ConfiguredStoreUsesServiceClock(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service that opens its own store and runs on a fixed clock", t, func() {
		cfg := config.New()
		cfg.WorkerCount = 1
		cfg.RecommendationTTLHours = 24
		fake := seededFake()
		svc := service.New(
			service.WithConfig(cfg),
			service.WithSources(fake.Set(), fake.FactSet()),
			service.WithClock(testClock),
			service.WithLogger(logger.Nop()),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		_, err := svc.RegisterEntity(ctx, model.Entity{ID: "artist-a", Name: "A", WorkspaceID: "ws-1"})
		So(err, ShouldBeNil)
		_, err = svc.TriggerAggregation(ctx, "artist-a")
		So(err, ShouldBeNil)
		_, err = svc.GenerateRecommendations(ctx, "ws-1", 10)
		So(err, ShouldBeNil)

		Convey("Then recommendations inside their TTL on that clock are listed", func() {
			listed, err := svc.RecommendationsForWorkspace(ctx, "ws-1", 10)
			So(err, ShouldBeNil)
			So(len(listed), ShouldEqual, 1)
			So(listed[0].ExpiresAt.After(testNow), ShouldBeTrue)
		})
	})
}

func TestService_Momentum(t *testing.T) {
	Convey("Given a burnt-out campaign", t, func() {
		svc := service.New(service.WithClock(testClock), service.WithLogger(logger.Nop()))
		report := svc.Momentum(momentum.ActivityLog{}, momentum.Campaign{
			Start:             testNow.Add(-30 * 24 * time.Hour),
			PhasesTotal:       4,
			PhasesCompleted:   1,
			BurnoutIndicators: 6,
		})

		Convey("Then the macro trend flags burnout", func() {
			So(report.Macro.Trend, ShouldEqual, momentum.BurnoutRisk)
			So(len(report.Alerts), ShouldBeGreaterThan, 0)
		})
	})
}

func TestParseRanking(t *testing.T) {
	Convey("Rankings parse by name", t, func() {
		r, err := service.ParseRanking("")
		So(err, ShouldBeNil)
		So(r, ShouldEqual, service.RankMomentum)

		r, err = service.ParseRanking("risk")
		So(err, ShouldBeNil)
		So(r, ShouldEqual, service.RankRisk)

		_, err = service.ParseRanking("vibes")
		So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
	})
}
