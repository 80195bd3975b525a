package sssp

import (
	"fmt"

	"github.com/azybler/delaypath/pkg/graph"
)

// dagSplit holds the edges of g split by a vertex permutation into a
// forward DAG (pos[u] < pos[v]) and a backward DAG (everything else), both in
// CSR form over the original edge indices.
type dagSplit struct {
	order    []uint32 // order[p] is the vertex at permutation position p
	fwdFirst []uint32
	fwdEdges []uint32
	bwdFirst []uint32
	bwdEdges []uint32
}

func newDAGSplit(g *graph.Graph, perm []int) *dagSplit {
	n := g.NumNodes
	pos := make([]int, n+1)
	order := make([]uint32, n)
	for i, p := range perm {
		v := uint32(i + 1)
		pos[v] = p
		order[p] = v
	}

	s := &dagSplit{
		order:    order,
		fwdFirst: make([]uint32, n+2),
		bwdFirst: make([]uint32, n+2),
	}

	// Count edges per side.
	for u := uint32(1); u <= n; u++ {
		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			if pos[u] < pos[g.Head[e]] {
				s.fwdFirst[u+1]++
			} else {
				s.bwdFirst[u+1]++
			}
		}
	}
	for i := uint32(1); i <= n+1; i++ {
		s.fwdFirst[i] += s.fwdFirst[i-1]
		s.bwdFirst[i] += s.bwdFirst[i-1]
	}

	s.fwdEdges = make([]uint32, s.fwdFirst[n+1])
	s.bwdEdges = make([]uint32, s.bwdFirst[n+1])
	for u := uint32(1); u <= n; u++ {
		fi, bi := s.fwdFirst[u], s.bwdFirst[u]
		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			if pos[u] < pos[g.Head[e]] {
				s.fwdEdges[fi] = e
				fi++
			} else {
				s.bwdEdges[bi] = e
				bi++
			}
		}
	}
	return s
}

// BellmanFordYen is Bellman-Ford with Yen's ordering and the randomized
// improvement of Bannister and Eppstein. A random vertex permutation splits
// the edges into two DAGs; each iteration sweeps the forward DAG in
// permutation order and the backward DAG in reverse order, relaxing only out
// of vertices whose distance changed since they were last swept. It stops
// after an iteration without improvement. More than n improving iterations
// report ErrNegativeCycle.
//
// Use WithSeed for a reproducible permutation.
func BellmanFordYen(g *graph.Graph, source uint32, opts ...Option) (*Result, error) {
	o := NewOptions(opts...)
	if err := CheckEndpoints(g, source, o.Target); err != nil {
		return nil, err
	}

	o.Hooks.Start(AlgoYen, PhasePreprocess)
	n := g.NumNodes
	res := newResult(g, source)
	split := newDAGSplit(g, o.Rand.Perm(int(n)))
	toRelax := make([]bool, n+1)
	queued := make([]bool, n+1)
	o.Hooks.End(AlgoYen, PhasePreprocess)

	o.Hooks.Start(AlgoYen, PhaseCompute)
	defer o.Hooks.End(AlgoYen, PhaseCompute)

	toRelax[source] = true
	for iter := uint32(1); ; iter++ {
		changed := false

		for p := 0; p < int(n); p++ {
			u := split.order[p]
			if !toRelax[u] && !queued[u] {
				continue
			}
			for _, e := range split.fwdEdges[split.fwdFirst[u]:split.fwdFirst[u+1]] {
				v := g.Head[e]
				if Relax(u, v, g.Weight[e], res.Dist, res.Pred) {
					queued[v] = true
					changed = true
				}
			}
		}

		for p := int(n) - 1; p >= 0; p-- {
			u := split.order[p]
			if !toRelax[u] && !queued[u] {
				continue
			}
			for _, e := range split.bwdEdges[split.bwdFirst[u]:split.bwdFirst[u+1]] {
				v := g.Head[e]
				if Relax(u, v, g.Weight[e], res.Dist, res.Pred) {
					queued[v] = true
					changed = true
				}
			}
		}

		if !changed {
			return res, nil
		}
		if iter >= n {
			return nil, fmt.Errorf("%w: still relaxing after %d iterations", ErrNegativeCycle, iter)
		}

		toRelax, queued = queued, toRelax
		clear(queued)
	}
}
