package sssp

import (
	"golang.org/x/sync/errgroup"

	"github.com/azybler/delaypath/pkg/graph"
)

// minChunk keeps tiny graphs from spawning one goroutine per vertex.
var minChunk = 256

// candidate is a (distance, vertex) pair produced by the min-reduction.
type candidate struct {
	v uint32
	d int64
}

func (c candidate) less(o candidate) bool {
	if c.d != o.d {
		return c.d < o.d
	}
	return c.v < o.v
}

var noCandidate = candidate{v: NoVertex, d: Inf}

// ParallelDijkstra is the array-scan formulation of Dijkstra: each round
// finds the closest unfinalized vertex and relaxes its edges. The search for
// that vertex is a parallel min-reduction. Workers scan disjoint vertex
// ranges with read-only access and write only their own slot; the slots are
// combined after the group returns, and the winner is finalized and relaxed
// by the calling goroutine alone. Ties go to the smaller vertex id.
//
// Complexity: O(n² / workers + m). All weights must be nonnegative.
func ParallelDijkstra(g *graph.Graph, source uint32, opts ...Option) (*Result, error) {
	o := NewOptions(opts...)
	if err := CheckEndpoints(g, source, o.Target); err != nil {
		return nil, err
	}
	if err := CheckNonNegative(g); err != nil {
		return nil, err
	}

	o.Hooks.Start(AlgoParallelDijkstra, PhasePreprocess)
	n := g.NumNodes
	res := newResult(g, source)
	done := make([]bool, n+1)

	chunk := (int(n) + o.Workers - 1) / o.Workers
	if chunk < minChunk {
		chunk = minChunk
	}
	numChunks := (int(n) + chunk - 1) / chunk
	locals := make([]candidate, numChunks)
	o.Hooks.End(AlgoParallelDijkstra, PhasePreprocess)

	o.Hooks.Start(AlgoParallelDijkstra, PhaseCompute)
	defer o.Hooks.End(AlgoParallelDijkstra, PhaseCompute)

	for round := uint32(0); round < n; round++ {
		var eg errgroup.Group
		for c := range numChunks {
			lo := uint32(1 + c*chunk)
			hi := min(lo+uint32(chunk)-1, n)
			eg.Go(func() error {
				locals[c] = localMin(res.Dist, done, lo, hi)
				return nil
			})
		}
		_ = eg.Wait() // workers never fail

		best := noCandidate
		for _, c := range locals {
			if c.less(best) {
				best = c
			}
		}
		if best.v == NoVertex {
			break // every remaining vertex is unreachable
		}

		u := best.v
		done[u] = true
		if u == o.Target {
			break
		}
		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			if v := g.Head[e]; !done[v] {
				Relax(u, v, g.Weight[e], res.Dist, res.Pred)
			}
		}
	}

	return res, nil
}

// localMin returns the closest unfinalized reached vertex in [lo, hi].
func localMin(dist []int64, done []bool, lo, hi uint32) candidate {
	best := noCandidate
	for v := lo; v <= hi; v++ {
		if !done[v] && dist[v] < best.d {
			best = candidate{v: v, d: dist[v]}
		}
	}
	return best
}
