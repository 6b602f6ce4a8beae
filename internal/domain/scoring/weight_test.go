package scoring_test

import (
	"testing"

	"github.com/okian/radar/internal/domain/model"
	scoring "github.com/okian/radar/internal/domain/scoring"
	"github.com/okian/radar/pkg/option"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPlaylistWeight(t *testing.T) {
	Convey("Given playlist follower counts", t, func() {
		cases := []struct {
			followers int64
			want      float64
		}{
			{1_000, 1.0},
			{10_000, 1.5},
			{100_000, 2.0},
			{1_000_000, 2.5},
			{10_000_000, 3.0},
		}
		for _, c := range cases {
			So(scoring.PlaylistWeight(option.Some(c.followers)), ShouldAlmostEqual, c.want, 1e-9)
		}

		Convey("Then an unknown count is the base weight", func() {
			So(scoring.PlaylistWeight(option.None[int64]()), ShouldEqual, 1.0)
		})

		Convey("Then small playlists never drop below the base weight", func() {
			So(scoring.PlaylistWeight(option.Some[int64](10)), ShouldEqual, 1.0)
			So(scoring.PlaylistWeight(option.Some[int64](0)), ShouldEqual, 1.0)
			So(scoring.PlaylistWeight(option.Some[int64](-5)), ShouldEqual, 1.0)
		})

		Convey("Then huge playlists are capped", func() {
			So(scoring.PlaylistWeight(option.Some[int64](1<<62)), ShouldEqual, model.MaxEventWeight)
		})
	})
}

func TestPopularityWeightRange(t *testing.T) {
	Convey("Given any audience size", t, func() {
		for f := 1.0; f < 1e15; f *= 3.7 {
			w := scoring.PopularityWeight(f, scoring.PlaylistFollowerBaseline)
			So(w, ShouldBeBetweenOrEqual, 1.0, 3.0)
		}
	})
}

func TestPressWeight(t *testing.T) {
	Convey("Given outlet reach", t, func() {
		So(scoring.PressWeight(option.Some[int64](100_000)), ShouldAlmostEqual, 1.5, 1e-9)
		So(scoring.PressWeight(option.None[int64]()), ShouldEqual, 1.0)
	})
}
