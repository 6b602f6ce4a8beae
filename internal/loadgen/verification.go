package loadgen

import (
	"errors"
	"fmt"

	"github.com/okian/radar/internal/domain/model"
)

// ErrRankingOrder is returned when a ranking is not sorted best first.
var ErrRankingOrder = errors.New("ranking out of order")

func rankingScore(by string, s model.Signals) float64 {
	switch by {
	case "breakout":
		return s.BreakoutScore
	case "risk":
		return s.RiskScore
	default:
		return s.MomentumScore
	}
}

// verifyRanking checks a top-N response: at most n entries, no repeated
// entity, scores non-increasing.
func verifyRanking(by string, entries []model.Signals, n int) error {
	if len(entries) > n {
		return fmt.Errorf("%w: %s returned %d entries for n=%d", ErrRankingOrder, by, len(entries), n)
	}
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if _, dup := seen[e.EntityID]; dup {
			return fmt.Errorf("%w: %s lists %s twice", ErrRankingOrder, by, e.EntityID)
		}
		seen[e.EntityID] = struct{}{}
		if i > 0 && rankingScore(by, e) > rankingScore(by, entries[i-1]) {
			return fmt.Errorf("%w: %s entry %d (%.4f) outranks entry %d (%.4f)",
				ErrRankingOrder, by, i, rankingScore(by, e), i-1, rankingScore(by, entries[i-1]))
		}
	}
	return nil
}
