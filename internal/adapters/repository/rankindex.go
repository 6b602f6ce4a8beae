package repository

import (
	"hash/fnv"
	"math"
)

// rankIndex is a treap ordered by score DESC, then id ASC, so an in-order
// walk yields the ranking from best to worst. Node priorities come from a
// hash of the id, which keeps the tree balanced in expectation while staying
// deterministic. Not safe for concurrent use; the owning store locks.

// scoreScale gives 12 decimal places of fixed-point precision. Scores are in
// [0,1], so there is no overflow to worry about.
const scoreScale = 1_000_000_000_000

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	if math.IsNaN(x) {
		return 0
	}
	return scoreFP(math.Round(math.Max(0, math.Min(1, x)) * scoreScale))
}

type node struct {
	id    string
	score scoreFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less reports whether (aScore, aID) ranks before (bScore, bID).
func less(aScore scoreFP, aID string, bScore scoreFP, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func priority(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, score scoreFP) *node {
	if n == nil {
		return &node{id: id, score: score, prio: priority(id), size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score scoreFP) *node {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	case less(score, id, n.score, n.id):
		n.left = deleteNode(n.left, id, score)
	default:
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// collectTop appends up to limit ids in rank order.
func collectTop(n *node, limit int, out *[]string) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTop(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n.id)
	}
	if len(*out) < limit {
		collectTop(n.right, limit, out)
	}
}

type rankIndex struct {
	root   *node
	scores map[string]scoreFP
}

func newRankIndex() *rankIndex {
	return &rankIndex{scores: make(map[string]scoreFP)}
}

// set places id at score, replacing any previous position.
func (r *rankIndex) set(id string, score float64) {
	fp := toFixedPoint(score)
	if old, ok := r.scores[id]; ok {
		if old == fp {
			return
		}
		r.root = deleteNode(r.root, id, old)
	}
	r.scores[id] = fp
	r.root = insert(r.root, id, fp)
}

func (r *rankIndex) top(n int) []string {
	out := make([]string, 0, min(n, len(r.scores)))
	collectTop(r.root, n, &out)
	return out
}

func (r *rankIndex) size() int { return nsize(r.root) }
