package sssp

import (
	"github.com/azybler/delaypath/pkg/graph"
)

// Dijkstra computes shortest distances from source with a binary heap and
// lazy deletion: stale heap entries are skipped on pop instead of being
// decreased in place. With WithTarget the search stops once the target is
// popped. All weights must be nonnegative.
//
// Complexity: O((n+m) log n), since a vertex may be pushed once per improvement.
func Dijkstra(g *graph.Graph, source uint32, opts ...Option) (*Result, error) {
	o := NewOptions(opts...)
	if err := CheckEndpoints(g, source, o.Target); err != nil {
		return nil, err
	}
	if err := CheckNonNegative(g); err != nil {
		return nil, err
	}

	o.Hooks.Start(AlgoDijkstra, PhasePreprocess)
	res := newResult(g, source)
	pq := NewMinHeap(int(g.NumNodes) / 4)
	o.Hooks.End(AlgoDijkstra, PhasePreprocess)

	o.Hooks.Start(AlgoDijkstra, PhaseCompute)
	defer o.Hooks.End(AlgoDijkstra, PhaseCompute)

	pq.Push(source, 0)
	for pq.Len() > 0 {
		item := pq.Pop()
		u := item.Node
		if u == o.Target {
			break
		}
		if item.Dist > res.Dist[u] {
			continue // stale entry
		}

		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			v := g.Head[e]
			if Relax(u, v, g.Weight[e], res.Dist, res.Pred) {
				pq.Push(v, res.Dist[v])
			}
		}
	}

	return res, nil
}
