package service_test

import (
	"context"
	"path/filepath"
	"testing"

	service "github.com/okian/radar/internal/app"
	"github.com/okian/radar/internal/config"
	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// Builds everything from config: sqlite store, synthetic upstreams behind
// guards, and runs the full aggregate -> rank -> recommend loop.
func TestService_ConfigWiredPipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("sqlite pipeline")
	}
	ctx := context.Background()

	Convey("Given a service configured for sqlite and synthetic upstreams", t, func() {
		cfg := config.New()
		cfg.StoreDriver = config.DriverSQLite
		cfg.StoreDSN = filepath.Join(t.TempDir(), "radar.db")
		cfg.FakeSources = true
		cfg.FakeScenes = []string{"berlin", "lagos"}
		cfg.WorkerCount = 1

		svc := service.New(service.WithConfig(cfg), service.WithLogger(logger.Nop()))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		ids := []string{"artist-1", "artist-2", "artist-3", "artist-4"}
		for _, id := range ids {
			_, err := svc.RegisterEntity(ctx, model.Entity{ID: id, Name: id, WorkspaceID: "label-1", Tags: []string{"demo"}})
			So(err, ShouldBeNil)
		}

		Convey("When the batch is aggregated", func() {
			saved, err := svc.TriggerBatchAggregation(ctx, ids)
			So(err, ShouldBeNil)
			So(len(saved), ShouldEqual, len(ids))

			Convey("Then rankings come back from the SQL store", func() {
				top, err := svc.TopN(ctx, service.RankBreakout, 3)
				So(err, ShouldBeNil)
				So(len(top), ShouldEqual, 3)
				for i := 1; i < len(top); i++ {
					So(top[i-1].BreakoutScore, ShouldBeGreaterThanOrEqualTo, top[i].BreakoutScore)
				}
				So(top[0].Tags, ShouldResemble, []string{"demo"})
			})

			Convey("Then recommendations are generated for the workspace", func() {
				recs, err := svc.GenerateRecommendations(ctx, "label-1", 2)
				So(err, ShouldBeNil)
				So(len(recs), ShouldEqual, 2)

				listed, err := svc.RecommendationsForWorkspace(ctx, "label-1", 10)
				So(err, ShouldBeNil)
				So(len(listed), ShouldEqual, 2)
			})

			Convey("Then synthetic facts are ingested once", func() {
				n, err := svc.IngestAll(ctx, "artist-1")
				So(err, ShouldBeNil)
				again, err := svc.IngestAll(ctx, "artist-1")
				So(err, ShouldBeNil)
				So(again, ShouldEqual, 0)

				events, err := svc.ListEvents(ctx, "artist-1", 100)
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, n)
			})
		})

		Convey("Stats report the store and workers", func() {
			stats := svc.Stats(ctx)
			So(stats["store_driver"], ShouldEqual, config.DriverSQLite)
			So(stats["workers"], ShouldEqual, 1)
			So(stats["tracked_entities"], ShouldEqual, 0)
		})
	})
}
