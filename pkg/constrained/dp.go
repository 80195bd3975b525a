package constrained

import (
	"github.com/azybler/delaypath/pkg/graph"
	"github.com/azybler/delaypath/pkg/sssp"
)

// DP fills a delay-indexed table level by level. The source is rooted at
// every delay level with weight 0, so D[v][l] is the cheapest weight of a
// path to v with total delay at most l. For each level it runs up to n-1
// Bellman-Ford rounds over the edges whose delay fits, reading lower levels
// that are already final. Negative weights are allowed; a negative cycle of
// zero-delay edges is not detected and yields an undefined table.
//
// Complexity: O(b·n·m).
func DP(g *graph.Graph, source uint32, bound int, opts ...sssp.Option) (*Table, error) {
	o := sssp.NewOptions(opts...)
	if err := sssp.CheckEndpoints(g, source, o.Target); err != nil {
		return nil, err
	}

	o.Hooks.Start(AlgoDP, sssp.PhasePreprocess)
	t, err := newTable(g, source, bound)
	if err != nil {
		o.Hooks.End(AlgoDP, sssp.PhasePreprocess)
		return nil, err
	}
	for l := 0; l <= bound; l++ {
		t.root(l)
	}
	o.Hooks.End(AlgoDP, sssp.PhasePreprocess)

	o.Hooks.Start(AlgoDP, sssp.PhaseCompute)
	defer o.Hooks.End(AlgoDP, sssp.PhaseCompute)

	n := g.NumNodes
	for level := 0; level <= bound; level++ {
		for round := uint32(1); round < n; round++ {
			if !t.relaxLevel(g, level) {
				break
			}
		}
	}
	return t, nil
}

// relaxLevel relaxes every edge u->v with delay z <= level out of (u, level-z)
// into (v, level). It reports whether any cell improved.
func (t *Table) relaxLevel(g *graph.Graph, level int) bool {
	changed := false
	for u := uint32(1); u <= g.NumNodes; u++ {
		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			z := g.Delay[e]
			if z > int64(level) {
				continue
			}
			if _, ok := t.relaxDelay(u, level-int(z), g.Head[e], g.Weight[e], z); ok {
				changed = true
			}
		}
	}
	return changed
}
