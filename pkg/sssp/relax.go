package sssp

import (
	"math"
	"sync/atomic"
)

// Relax improves dist[v] through the edge u->v of weight w. It returns true
// when dist[v] and pred[v] were updated. Unreached u never relaxes.
// Not safe for concurrent writers to the same v.
func Relax(u, v uint32, w int64, dist []int64, pred []uint32) bool {
	du := dist[u]
	if du == Inf {
		return false
	}
	if cand := AddWeight(du, w); cand < dist[v] {
		dist[v] = cand
		pred[v] = u
		return true
	}
	return false
}

// relaxAtomic lowers dist[v] to dist[u]+w with a compare-and-swap loop.
// It returns the candidate and whether this call performed the write.
// Predecessors are resolved by the caller after the parallel batch.
func relaxAtomic(u, v uint32, w int64, dist []int64) (int64, bool) {
	du := atomic.LoadInt64(&dist[u])
	if du == Inf {
		return 0, false
	}
	cand := AddWeight(du, w)
	for {
		old := atomic.LoadInt64(&dist[v])
		if cand >= old {
			return cand, false
		}
		if atomic.CompareAndSwapInt64(&dist[v], old, cand) {
			return cand, true
		}
	}
}

// AddWeight returns d+w clamped to [math.MinInt64, Inf]. A sum that
// saturates at Inf never improves a distance.
func AddWeight(d, w int64) int64 {
	sum := d + w
	switch {
	case w > 0 && sum < d:
		return Inf
	case w < 0 && sum > d:
		return math.MinInt64
	}
	return sum
}
