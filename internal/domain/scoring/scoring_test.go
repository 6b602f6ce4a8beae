package scoring_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/radar/internal/domain/model"
	scoring "github.com/okian/radar/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func strong() model.Signals {
	return model.Signals{
		EntityID:          "artist-1",
		CampaignVelocity:  0.8,
		EngagementRate:    0.7,
		Connectivity:      0.9,
		CoverageVelocity:  0.6,
		PressQuality:      0.8,
		CreativeShift:     0.3,
		IdentityAlignment: 0.9,
		AudienceGrowth:    0.5,
		PlaylistGrowth:    1.4,
		SceneHotness:      80,
	}
}

func TestScorer_Bounds(t *testing.T) {
	Convey("Given a default scorer", t, func() {
		sc := scoring.NewScorer()

		inputs := map[string]model.Signals{
			"zero":   {},
			"strong": strong(),
			"extreme": {
				CampaignVelocity: 1e9, CoverageVelocity: 1e9, AudienceGrowth: -1e9,
				PlaylistGrowth: 1e9, Connectivity: 5, PressQuality: -3, CreativeShift: 2,
				IdentityAlignment: -1, SceneHotness: 1e6,
			},
			"non-finite": {
				CampaignVelocity: math.NaN(), CoverageVelocity: math.Inf(1),
				AudienceGrowth: math.Inf(-1), SceneHotness: math.NaN(), Connectivity: math.NaN(),
			},
		}

		for name, in := range inputs {
			out := sc.Apply(in)
			Convey("Then every score is within [0,1] for "+name, func() {
				for _, v := range []float64{out.MomentumScore, out.BreakoutScore, out.RiskScore} {
					So(math.IsNaN(v), ShouldBeFalse)
					So(v, ShouldBeBetweenOrEqual, 0, 1)
				}
			})
		}
	})
}

func TestScorer_ZeroInputs(t *testing.T) {
	Convey("Given an all-zero signal vector", t, func() {
		out := scoring.NewScorer().Apply(model.Signals{})

		Convey("Then momentum and breakout are zero and risk is well defined", func() {
			So(out.MomentumScore, ShouldEqual, 0)
			So(out.BreakoutScore, ShouldEqual, 0)
			// momentum drop + identity drift + scene cooling
			So(out.RiskScore, ShouldAlmostEqual, 0.5, 1e-12)
		})
	})
}

func TestScorer_Determinism(t *testing.T) {
	Convey("Given the same raw data scored twice", t, func() {
		sc := scoring.NewScorer()
		a := sc.Apply(strong())
		b := sc.Apply(strong())

		Convey("Then derived scores are bit-identical", func() {
			So(math.Float64bits(a.MomentumScore), ShouldEqual, math.Float64bits(b.MomentumScore))
			So(math.Float64bits(a.BreakoutScore), ShouldEqual, math.Float64bits(b.BreakoutScore))
			So(math.Float64bits(a.RiskScore), ShouldEqual, math.Float64bits(b.RiskScore))
		})
	})
}

func TestScorer_Ordering(t *testing.T) {
	Convey("Given a strong and a weak entity", t, func() {
		sc := scoring.NewScorer()
		hi := sc.Apply(strong())
		weak := model.Signals{AudienceGrowth: -0.6, IdentityAlignment: 0.2, SceneHotness: 10, CreativeShift: 0.9}
		lo := sc.Apply(weak)

		Convey("Then the strong entity has more momentum and breakout and less risk", func() {
			So(hi.MomentumScore, ShouldBeGreaterThan, lo.MomentumScore)
			So(hi.BreakoutScore, ShouldBeGreaterThan, lo.BreakoutScore)
			So(hi.RiskScore, ShouldBeLessThan, lo.RiskScore)
		})
	})
}

func TestScorer_MissingInputsCountAsZero(t *testing.T) {
	Convey("Given only campaign velocity at saturation", t, func() {
		m := scoring.Momentum(model.Signals{CampaignVelocity: 1})

		Convey("Then momentum equals the campaign weight share", func() {
			So(m, ShouldAlmostEqual, scoring.DefaultMomentumCampaign, 1e-12)
		})
	})
}

func TestScorer_CustomWeights(t *testing.T) {
	Convey("Given weights that only consider playlist growth", t, func() {
		w := scoring.DefaultWeights()
		w.Momentum = scoring.MomentumWeights{Playlist: 1}
		sc := scoring.NewScorer(scoring.WithWeights(w), scoring.WithGrowthSaturation(2))

		Convey("Then momentum is playlist growth over saturation", func() {
			So(sc.Momentum(model.Signals{PlaylistGrowth: 1, CampaignVelocity: 5}), ShouldAlmostEqual, 0.5, 1e-12)
		})

		Convey("Then an all-zero weight set yields zero rather than NaN", func() {
			w.Momentum = scoring.MomentumWeights{}
			So(scoring.NewScorer(scoring.WithWeights(w)).Momentum(strong()), ShouldEqual, 0)
		})
	})
}

func TestWeightsFromMaps(t *testing.T) {
	Convey("Given configured weight maps", t, func() {
		Convey("When keys are known", func() {
			w, err := scoring.WeightsFromMaps(
				map[string]float64{"campaign": 0.5},
				map[string]float64{"scene_hotness": 0},
				map[string]float64{"audience_decline": 0.4},
			)
			So(err, ShouldBeNil)
			So(w.Momentum.Campaign, ShouldEqual, 0.5)
			So(w.Momentum.Playlist, ShouldEqual, scoring.DefaultMomentumPlaylist)
			So(w.Breakout.SceneHotness, ShouldEqual, 0)
			So(w.Risk.AudienceDecline, ShouldEqual, 0.4)
		})

		Convey("When a key is unknown", func() {
			_, err := scoring.WeightsFromMaps(map[string]float64{"vibes": 1}, nil, nil)
			So(errors.Is(err, scoring.ErrUnknownWeight), ShouldBeTrue)
		})

		Convey("When a weight is negative", func() {
			_, err := scoring.WeightsFromMaps(nil, nil, map[string]float64{"overexposure": -1})
			So(errors.Is(err, scoring.ErrInvalidWeight), ShouldBeTrue)
		})
	})
}
