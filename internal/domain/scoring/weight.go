package scoring

import (
	"math"

	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/pkg/option"
)

// Event weighting constants.
const (
	// BaseEventWeight is used when nothing is known about the audience.
	BaseEventWeight = 1.0
	// PlaylistFollowerBaseline is the follower count that earns exactly the base weight.
	PlaylistFollowerBaseline = 1_000
	// PressReachBaseline is the outlet reach that earns exactly the base weight.
	PressReachBaseline = 10_000
	// popularityBonusPerDecade is the weight added per 10x audience over the baseline.
	popularityBonusPerDecade = 0.5
)

// PopularityWeight scales an event by audience size on a log scale:
// 1 + max(0, log10(audience/baseline) * 0.5), capped at model.MaxEventWeight.
// Unknown or non-positive inputs yield the base weight.
func PopularityWeight(audience, baseline float64) float64 {
	if audience <= 0 || baseline <= 0 || !finite(audience) || !finite(baseline) {
		return BaseEventWeight
	}
	bonus := math.Max(0, math.Log10(audience/baseline)*popularityBonusPerDecade)
	return math.Min(model.MaxEventWeight, BaseEventWeight+bonus)
}

// PlaylistWeight weights a playlist add by the playlist's follower count.
// 1k -> 1.0, 10k -> 1.5, 100k -> 2.0, 1M -> 2.5; None -> 1.0.
func PlaylistWeight(followers option.Option[int64]) float64 {
	f, ok := followers.Get()
	if !ok {
		return BaseEventWeight
	}
	return PopularityWeight(float64(f), PlaylistFollowerBaseline)
}

// PressWeight weights a press mention by outlet reach.
func PressWeight(reach option.Option[int64]) float64 {
	r, ok := reach.Get()
	if !ok {
		return BaseEventWeight
	}
	return PopularityWeight(float64(r), PressReachBaseline)
}
