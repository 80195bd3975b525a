// Package constrained solves delay-bounded shortest path problems. Every
// edge carries a weight and a nonnegative delay; solvers fill a table of the
// cheapest weight per (vertex, accumulated delay) for delays up to a bound.
package constrained

import (
	"errors"
	"fmt"
	"slices"

	"github.com/azybler/delaypath/pkg/graph"
	"github.com/azybler/delaypath/pkg/sssp"
)

// Algorithm names reported to sssp.Hooks.
const (
	AlgoDijkstra = "constrained-dijkstra"
	AlgoDP       = "constrained-dp"
)

// maxCells caps the size of a table, (n+1)·(bound+1).
const maxCells = 1 << 28

var (
	// ErrInvalidBound is returned for a negative bound or an oversized table.
	ErrInvalidBound = errors.New("constrained: invalid delay bound")
	// ErrNoPath is returned when reconstructing an unreached (vertex, delay) cell.
	ErrNoPath = errors.New("constrained: no path within delay bound")
	// ErrBrokenChain is returned when a predecessor chain does not lead back to the source.
	ErrBrokenChain = errors.New("constrained: predecessor chain does not reach source")
)

// State is a (vertex, accumulated delay) pair.
type State struct {
	Vertex uint32
	Delay  int
}

// Table holds delay-indexed distances and predecessors. D[v][l] is the
// cheapest weight found for reaching v with accumulated delay l, or sssp.Inf.
type Table struct {
	Source uint32
	Bound  int
	D      [][]int64
	Pred   [][]State
}

func newTable(g *graph.Graph, source uint32, bound int) (*Table, error) {
	if bound < 0 {
		return nil, fmt.Errorf("%w: %d is negative", ErrInvalidBound, bound)
	}
	if cells := (int64(g.NumNodes) + 1) * (int64(bound) + 1); cells > maxCells {
		return nil, fmt.Errorf("%w: table of %d cells exceeds %d", ErrInvalidBound, cells, maxCells)
	}

	n := int(g.NumNodes) + 1
	levels := bound + 1
	dBuf := make([]int64, n*levels)
	pBuf := make([]State, n*levels)
	for i := range dBuf {
		dBuf[i] = sssp.Inf
	}

	t := &Table{Source: source, Bound: bound, D: make([][]int64, n), Pred: make([][]State, n)}
	for v := range n {
		t.D[v] = dBuf[v*levels : (v+1)*levels : (v+1)*levels]
		t.Pred[v] = pBuf[v*levels : (v+1)*levels : (v+1)*levels]
	}
	return t, nil
}

// root marks (source, l) as a zero-weight start state.
func (t *Table) root(l int) {
	t.D[t.Source][l] = 0
	t.Pred[t.Source][l] = State{Vertex: t.Source, Delay: 0}
}

func (t *Table) isRoot(s State) bool {
	return s.Vertex == t.Source && t.D[s.Vertex][s.Delay] == 0 &&
		t.Pred[s.Vertex][s.Delay] == State{Vertex: t.Source, Delay: 0}
}

// relaxDelay improves D[v][l+z] through an edge u->v of weight w and delay z
// leaving state (u, l). It returns the new delay level and whether the cell
// improved. Levels past the bound are pruned.
func (t *Table) relaxDelay(u uint32, l int, v uint32, w, z int64) (int, bool) {
	du := t.D[u][l]
	if du == sssp.Inf {
		return 0, false
	}
	if z < 0 || z > int64(t.Bound-l) {
		return 0, false
	}
	nl := l + int(z)
	if cand := sssp.AddWeight(du, w); cand < t.D[v][nl] {
		t.D[v][nl] = cand
		t.Pred[v][nl] = State{Vertex: u, Delay: l}
		return nl, true
	}
	return 0, false
}

// RunningMin returns m with m[l] = min over l' <= l of D[v][l'], the cheapest
// weight reachable with total delay at most l. It is non-increasing in l.
func (t *Table) RunningMin(v uint32) []int64 {
	m := make([]int64, t.Bound+1)
	best := sssp.Inf
	for l, d := range t.D[v] {
		best = min(best, d)
		m[l] = best
	}
	return m
}

// FirstFinite returns the smallest delay level at which v was reached.
func (t *Table) FirstFinite(v uint32) (int, bool) {
	for l, d := range t.D[v] {
		if d != sssp.Inf {
			return l, true
		}
	}
	return 0, false
}

// Best returns the cheapest weight over all delay levels for v and the
// smallest delay achieving it.
func (t *Table) Best(v uint32) (weight int64, delay int, ok bool) {
	weight = sssp.Inf
	for l, d := range t.D[v] {
		if d < weight {
			weight, delay = d, l
		}
	}
	return weight, delay, weight != sssp.Inf
}

// States walks the predecessor chain from (target, delay) back to a source
// state and returns it in source-to-target order. The delay actually spent
// along the path is the last state's Delay minus the first one's.
func (t *Table) States(target uint32, delay int) ([]State, error) {
	if int(target) >= len(t.D) || delay < 0 || delay > t.Bound {
		return nil, fmt.Errorf("%w: state (%d, %d) outside table", ErrNoPath, target, delay)
	}
	if t.D[target][delay] == sssp.Inf {
		return nil, fmt.Errorf("%w: vertex %d at delay %d", ErrNoPath, target, delay)
	}

	limit := len(t.D) * (t.Bound + 1)
	s := State{Vertex: target, Delay: delay}
	chain := []State{s}
	for !t.isRoot(s) {
		s = t.Pred[s.Vertex][s.Delay]
		if s.Vertex == 0 || len(chain) > limit {
			return nil, fmt.Errorf("%w: stuck after %d states", ErrBrokenChain, len(chain))
		}
		chain = append(chain, s)
	}
	slices.Reverse(chain)
	return chain, nil
}

// Path returns the vertices of the path stored for (target, delay).
func (t *Table) Path(target uint32, delay int) ([]uint32, error) {
	chain, err := t.States(target, delay)
	if err != nil {
		return nil, err
	}
	path := make([]uint32, len(chain))
	for i, s := range chain {
		path[i] = s.Vertex
	}
	return path, nil
}

// SpentDelay returns the delay accumulated along the path stored for
// (target, delay). It is below delay when a DP table reached the target
// with slack.
func (t *Table) SpentDelay(target uint32, delay int) (int, error) {
	chain, err := t.States(target, delay)
	if err != nil {
		return 0, err
	}
	return chain[len(chain)-1].Delay - chain[0].Delay, nil
}
