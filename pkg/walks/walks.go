// Package walks enumerates the k cheapest walks leaving a source vertex.
//
// A walk may revisit vertices and edges. Walks are ranked by total weight;
// ties are broken by discovery order, so results are deterministic for a
// given graph.
package walks

import (
	"cmp"
	"errors"
	"fmt"

	"github.com/emirpasic/gods/queues/priorityqueue"

	"github.com/azybler/delaypath/pkg/graph"
	"github.com/azybler/delaypath/pkg/sssp"
)

// Algo is the algorithm name reported to sssp.Hooks.
const Algo = "k-walks"

// ErrInvalidK is returned for a nonpositive k.
var ErrInvalidK = errors.New("walks: k must be positive")

// Walk is a ranked walk from the source.
type Walk struct {
	Weight   int64
	Vertices []uint32
}

// seq is an immutable vertex sequence. Extending shares the prefix, so every
// queued walk costs one node regardless of length.
type seq struct {
	last   uint32
	prefix *seq
	length int
}

func (s *seq) extend(v uint32) *seq {
	return &seq{last: v, prefix: s, length: s.length + 1}
}

func (s *seq) vertices() []uint32 {
	out := make([]uint32, s.length)
	for i, cur := s.length-1, s; cur != nil; i, cur = i-1, cur.prefix {
		out[i] = cur.last
	}
	return out
}

type entry struct {
	weight int64
	order  uint64
	walk   *seq
}

func byWeightThenOrder(a, b interface{}) int {
	x, y := a.(entry), b.(entry)
	if c := cmp.Compare(x.weight, y.weight); c != 0 {
		return c
	}
	return cmp.Compare(x.order, y.order)
}

// KCheapest returns up to k walks of at least one edge leaving source, in
// non-decreasing weight order. Fewer than k are returned only when the
// reachable part of the graph is acyclic and has fewer than k walks. All
// weights must be nonnegative.
func KCheapest(g *graph.Graph, source uint32, k int, opts ...sssp.Option) ([]Walk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}
	o := sssp.NewOptions(opts...)
	if err := g.CheckVertex(source); err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	if err := sssp.CheckNonNegative(g); err != nil {
		return nil, err
	}

	o.Hooks.Start(Algo, sssp.PhasePreprocess)
	pq := priorityqueue.NewWith(byWeightThenOrder)
	out := make([]Walk, 0, k)
	var order uint64
	o.Hooks.End(Algo, sssp.PhasePreprocess)

	o.Hooks.Start(Algo, sssp.PhaseCompute)
	defer o.Hooks.End(Algo, sssp.PhaseCompute)

	pq.Enqueue(entry{weight: 0, order: order, walk: &seq{last: source, length: 1}})
	for len(out) < k && !pq.Empty() {
		item, _ := pq.Dequeue()
		cur := item.(entry)
		if cur.walk.length > 1 {
			out = append(out, Walk{Weight: cur.weight, Vertices: cur.walk.vertices()})
			if len(out) == k {
				break
			}
		}

		u := cur.walk.last
		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			order++
			pq.Enqueue(entry{
				weight: sssp.AddWeight(cur.weight, g.Weight[e]),
				order:  order,
				walk:   cur.walk.extend(g.Head[e]),
			})
		}
	}
	return out, nil
}
