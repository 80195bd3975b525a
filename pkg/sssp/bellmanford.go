package sssp

import (
	"fmt"

	"github.com/azybler/delaypath/pkg/graph"
)

// BellmanFord runs up to n-1 rounds relaxing every edge out of every reached
// vertex, stopping early after a round with no improvement. A further round
// that still improves a distance reports ErrNegativeCycle. Negative weights
// are allowed.
//
// Complexity: O(n·m).
func BellmanFord(g *graph.Graph, source uint32, opts ...Option) (*Result, error) {
	o := NewOptions(opts...)
	if err := CheckEndpoints(g, source, o.Target); err != nil {
		return nil, err
	}

	o.Hooks.Start(AlgoBellmanFord, PhasePreprocess)
	res := newResult(g, source)
	o.Hooks.End(AlgoBellmanFord, PhasePreprocess)

	o.Hooks.Start(AlgoBellmanFord, PhaseCompute)
	defer o.Hooks.End(AlgoBellmanFord, PhaseCompute)

	for round := uint32(1); round < g.NumNodes; round++ {
		if !relaxAllEdges(g, res) {
			return res, nil
		}
	}
	if relaxAllEdges(g, res) {
		return nil, fmt.Errorf("%w: still relaxing after %d rounds", ErrNegativeCycle, g.NumNodes)
	}
	return res, nil
}

// relaxAllEdges performs one Bellman-Ford round and reports whether any
// distance improved.
func relaxAllEdges(g *graph.Graph, res *Result) bool {
	changed := false
	for u := uint32(1); u <= g.NumNodes; u++ {
		if res.Dist[u] == Inf {
			continue
		}
		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			if Relax(u, g.Head[e], g.Weight[e], res.Dist, res.Pred) {
				changed = true
			}
		}
	}
	return changed
}
