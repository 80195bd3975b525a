package constrained

import (
	"cmp"

	"github.com/emirpasic/gods/queues/priorityqueue"

	"github.com/azybler/delaypath/pkg/graph"
	"github.com/azybler/delaypath/pkg/sssp"
)

// label is a queued (delay, weight, vertex) state.
type label struct {
	delay  int
	weight int64
	vertex uint32
}

// byDelayThenWeight orders labels by delay, then weight, then vertex.
func byDelayThenWeight(a, b interface{}) int {
	x, y := a.(label), b.(label)
	if c := cmp.Compare(x.delay, y.delay); c != 0 {
		return c
	}
	if c := cmp.Compare(x.weight, y.weight); c != 0 {
		return c
	}
	return cmp.Compare(x.vertex, y.vertex)
}

// Dijkstra fills a delay-indexed table by expanding (vertex, delay) states in
// ascending order of delay, then weight. Successor states whose delay would
// exceed bound are pruned. All weights must be nonnegative.
//
// Without a target every reachable state is settled, so D[v][l] is exact and
// Table.Best gives the cheapest path within the bound. With WithTarget the
// search stops the first time the target is popped; that state has the least
// delay of any path to the target and is reported by Table.FirstFinite.
func Dijkstra(g *graph.Graph, source uint32, bound int, opts ...sssp.Option) (*Table, error) {
	o := sssp.NewOptions(opts...)
	if err := sssp.CheckEndpoints(g, source, o.Target); err != nil {
		return nil, err
	}
	if err := sssp.CheckNonNegative(g); err != nil {
		return nil, err
	}

	o.Hooks.Start(AlgoDijkstra, sssp.PhasePreprocess)
	t, err := newTable(g, source, bound)
	if err != nil {
		o.Hooks.End(AlgoDijkstra, sssp.PhasePreprocess)
		return nil, err
	}
	t.root(0)
	pq := priorityqueue.NewWith(byDelayThenWeight)
	o.Hooks.End(AlgoDijkstra, sssp.PhasePreprocess)

	o.Hooks.Start(AlgoDijkstra, sssp.PhaseCompute)
	defer o.Hooks.End(AlgoDijkstra, sssp.PhaseCompute)

	pq.Enqueue(label{delay: 0, weight: 0, vertex: source})
	for !pq.Empty() {
		item, _ := pq.Dequeue()
		cur := item.(label)
		if cur.vertex == o.Target {
			break
		}
		if cur.weight > t.D[cur.vertex][cur.delay] {
			continue // stale
		}

		start, end := g.EdgesFrom(cur.vertex)
		for e := start; e < end; e++ {
			v := g.Head[e]
			if nl, ok := t.relaxDelay(cur.vertex, cur.delay, v, g.Weight[e], g.Delay[e]); ok {
				pq.Enqueue(label{delay: nl, weight: t.D[v][nl], vertex: v})
			}
		}
	}
	return t, nil
}
