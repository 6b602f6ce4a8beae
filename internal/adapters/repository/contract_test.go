package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/radar/internal/domain/model"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

// runStoreContract exercises behaviour every Store implementation shares.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	Convey("Given an empty store", t, func() {
		store := newStore(t)
		Reset(func() { _ = store.Close() })

		Convey("Missing signals are reported as not found", func() {
			_, found, err := store.GetEntitySignals(ctx, "nobody")
			So(err, ShouldBeNil)
			So(found, ShouldBeFalse)
		})

		Convey("Saving signals twice keeps the last write", func() {
			first := model.Signals{EntityID: "e1", SceneID: "s1", MomentumScore: 0.2, Tags: []string{"b", "a"}, UpdatedAt: testNow}
			second := first
			second.MomentumScore = 0.7
			second.Metadata = map[string]string{"k": "v"}
			So(store.SaveEntitySignals(ctx, first), ShouldBeNil)
			So(store.SaveEntitySignals(ctx, second), ShouldBeNil)

			got, found, err := store.GetEntitySignals(ctx, "e1")
			So(err, ShouldBeNil)
			So(found, ShouldBeTrue)
			So(got.MomentumScore, ShouldEqual, 0.7)
			So(got.Tags, ShouldResemble, []string{"a", "b"})
			So(got.Metadata, ShouldResemble, map[string]string{"k": "v"})
			So(got.UpdatedAt.Equal(testNow), ShouldBeTrue)

			n, err := store.CountSignals(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)
		})

		Convey("An empty entity id is rejected", func() {
			So(store.SaveEntitySignals(ctx, model.Signals{}), ShouldWrap, ErrInvalidInput)
		})

		Convey("With several scored entities", func() {
			for _, s := range []model.Signals{
				{EntityID: "a", SceneID: "x", MomentumScore: 0.9, BreakoutScore: 0.1, RiskScore: 0.5, UpdatedAt: testNow},
				{EntityID: "b", SceneID: "x", MomentumScore: 0.5, BreakoutScore: 0.8, RiskScore: 0.5, UpdatedAt: testNow},
				{EntityID: "c", SceneID: "y", MomentumScore: 0.5, BreakoutScore: 0.3, RiskScore: 0.9, UpdatedAt: testNow},
			} {
				So(store.SaveEntitySignals(ctx, s), ShouldBeNil)
			}

			Convey("TopByMomentum orders by score then id", func() {
				top, err := store.TopByMomentum(ctx, 10)
				So(err, ShouldBeNil)
				So(entityIDs(top), ShouldResemble, []string{"a", "b", "c"})
			})

			Convey("TopByBreakout honours the limit", func() {
				top, err := store.TopByBreakout(ctx, 2)
				So(err, ShouldBeNil)
				So(entityIDs(top), ShouldResemble, []string{"b", "c"})
			})

			Convey("AtRisk puts the riskiest first", func() {
				top, err := store.AtRisk(ctx, 1)
				So(err, ShouldBeNil)
				So(entityIDs(top), ShouldResemble, []string{"c"})
			})

			Convey("A limit below one is rejected", func() {
				_, err := store.TopByMomentum(ctx, 0)
				So(err, ShouldEqual, ErrInvalidLimit)
			})

			Convey("A rescore moves the entity", func() {
				So(store.SaveEntitySignals(ctx, model.Signals{EntityID: "c", SceneID: "y", MomentumScore: 1, UpdatedAt: testNow}), ShouldBeNil)
				top, err := store.TopByMomentum(ctx, 1)
				So(err, ShouldBeNil)
				So(entityIDs(top), ShouldResemble, []string{"c"})
			})

			Convey("ListByScene returns only members", func() {
				members, err := store.ListByScene(ctx, "x")
				So(err, ShouldBeNil)
				So(entityIDs(members), ShouldResemble, []string{"a", "b"})
			})
		})

		Convey("Scene signals round trip", func() {
			sc := model.SceneSignals{
				SceneID:          "s1",
				Hotness:          72.5,
				Influence:        0.4,
				AudienceTrend:    0.1,
				BreakoutEntities: []string{"a"},
				RisingEntities:   []string{"a", "b"},
				MemberCount:      2,
				UpdatedAt:        testNow,
			}
			So(store.SaveSceneSignals(ctx, sc), ShouldBeNil)

			got, found, err := store.GetSceneSignals(ctx, "s1")
			So(err, ShouldBeNil)
			So(found, ShouldBeTrue)
			So(got.Hotness, ShouldEqual, 72.5)
			So(got.RisingEntities, ShouldResemble, []string{"a", "b"})
			So(got.MemberCount, ShouldEqual, 2)

			_, found, err = store.GetSceneSignals(ctx, "other")
			So(err, ShouldBeNil)
			So(found, ShouldBeFalse)
		})

		Convey("Recommendations are filtered and ranked", func() {
			past := testNow.Add(-time.Hour)
			future := testNow.Add(time.Hour)
			for _, r := range []model.Recommendation{
				{ID: "r1", WorkspaceID: "w", EntityID: "a", Type: model.RecommendSign, Score: 0.6, CreatedAt: testNow},
				{ID: "r2", WorkspaceID: "w", EntityID: "b", Type: model.RecommendWatch, Score: 0.9, CreatedAt: testNow, ExpiresAt: &future},
				{ID: "r3", WorkspaceID: "w", EntityID: "c", Type: model.RecommendPass, Score: 0.99, CreatedAt: testNow, ExpiresAt: &past},
				{ID: "r4", WorkspaceID: "other", EntityID: "d", Type: model.RecommendSign, Score: 1, CreatedAt: testNow},
			} {
				So(store.SaveRecommendation(ctx, r), ShouldBeNil)
			}

			recs, err := store.RecommendationsForWorkspace(ctx, "w", 10)
			So(err, ShouldBeNil)
			So(len(recs), ShouldEqual, 2)
			So(recs[0].ID, ShouldEqual, "r2")
			So(recs[0].ExpiresAt, ShouldNotBeNil)
			So(recs[0].ExpiresAt.Equal(future), ShouldBeTrue)
			So(recs[1].ID, ShouldEqual, "r1")
			So(recs[1].ExpiresAt, ShouldBeNil)

			recs, err = store.RecommendationsForWorkspace(ctx, "w", 1)
			So(err, ShouldBeNil)
			So(len(recs), ShouldEqual, 1)
		})

		Convey("Entities are listed per workspace", func() {
			So(store.SaveEntity(ctx, model.Entity{ID: "b", Name: "B", WorkspaceID: "w1", CreatedAt: testNow}), ShouldBeNil)
			So(store.SaveEntity(ctx, model.Entity{ID: "a", Name: "A", WorkspaceID: "w2", Tags: []string{"pop"}, CreatedAt: testNow}), ShouldBeNil)

			all, err := store.ListEntities(ctx, "")
			So(err, ShouldBeNil)
			So(len(all), ShouldEqual, 2)
			So(all[0].ID, ShouldEqual, "a")

			w1, err := store.ListEntities(ctx, "w1")
			So(err, ShouldBeNil)
			So(len(w1), ShouldEqual, 1)
			So(w1[0].Name, ShouldEqual, "B")

			e, found, err := store.GetEntity(ctx, "a")
			So(err, ShouldBeNil)
			So(found, ShouldBeTrue)
			So(e.Tags, ShouldResemble, []string{"pop"})
		})

		Convey("Events are idempotent on source and external id", func() {
			ev := model.Event{
				ID: "ev1", EntityID: "a", Type: model.EventPressMention, Date: testNow.Add(-2 * time.Hour),
				Weight: 1.5, Source: model.SourceCoverage, ExternalID: "art-1", CreatedAt: testNow,
			}
			ok, err := store.AppendEvent(ctx, ev)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)

			dup := ev
			dup.ID = "ev2"
			ok, err = store.AppendEvent(ctx, dup)
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)

			manual := model.Event{ID: "ev3", EntityID: "a", Type: model.EventRelease, Date: testNow, Weight: 1, Source: model.SourceManual, CreatedAt: testNow}
			ok, err = store.AppendEvent(ctx, manual)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			manual.ID = "ev4"
			ok, err = store.AppendEvent(ctx, manual)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)

			events, err := store.ListEvents(ctx, "a", 10)
			So(err, ShouldBeNil)
			So(len(events), ShouldEqual, 3)
			So(events[0].Date.Equal(testNow), ShouldBeTrue)
			So(events[2].ID, ShouldEqual, "ev1")
			So(events[2].ExternalID, ShouldEqual, "art-1")

			_, err = store.ListEvents(ctx, "a", 0)
			So(err, ShouldEqual, ErrInvalidLimit)
		})

		Convey("Score history is appended and read newest first", func() {
			for i, score := range []float64{0.2, 0.5, 0.4} {
				sig := model.Signals{
					EntityID: "a", MomentumScore: score, BreakoutScore: score / 2, RiskScore: 0.1,
					SceneHotness: 60, UpdatedAt: testNow.Add(time.Duration(i) * time.Hour),
				}
				So(store.AppendScoreSnapshot(ctx, sig.Snapshot()), ShouldBeNil)
			}
			So(store.AppendScoreSnapshot(ctx, model.ScoreSnapshot{EntityID: "b", MomentumScore: 0.9, TakenAt: testNow}), ShouldBeNil)

			history, err := store.ScoreHistory(ctx, "a", 2)
			So(err, ShouldBeNil)
			So(history, ShouldHaveLength, 2)
			So(history[0].MomentumScore, ShouldEqual, 0.4)
			So(history[0].TakenAt.Equal(testNow.Add(2*time.Hour)), ShouldBeTrue)
			So(history[1].MomentumScore, ShouldEqual, 0.5)
			So(history[1].BreakoutScore, ShouldEqual, 0.25)
			So(history[1].SceneHotness, ShouldEqual, 60)

			none, err := store.ScoreHistory(ctx, "nobody", 5)
			So(err, ShouldBeNil)
			So(none, ShouldBeEmpty)

			_, err = store.ScoreHistory(ctx, "a", 0)
			So(err, ShouldEqual, ErrInvalidLimit)
			So(errors.Is(store.AppendScoreSnapshot(ctx, model.ScoreSnapshot{}), ErrInvalidInput), ShouldBeTrue)

			latest, found, err := store.GetEntitySignals(ctx, "a")
			So(err, ShouldBeNil)
			So(found, ShouldBeFalse)
			So(latest.EntityID, ShouldBeBlank)
		})
	})
}

func entityIDs(sigs []model.Signals) []string {
	out := make([]string, 0, len(sigs))
	for _, s := range sigs {
		out = append(out, s.EntityID)
	}
	return out
}
