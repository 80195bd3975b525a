package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidVertex is returned when a vertex id is outside [1, NumNodes].
	ErrInvalidVertex = errors.New("graph: vertex id out of range")
	// ErrNegativeDelay is returned when an edge carries a negative delay.
	ErrNegativeDelay = errors.New("graph: negative edge delay")
	// ErrNoEdge is returned by PathCost when consecutive path vertices are not adjacent.
	ErrNoEdge = errors.New("graph: no edge between path vertices")
	// ErrWeightRange is returned when |weight| exceeds MaxWeight.
	ErrWeightRange = errors.New("graph: edge weight out of range")
	// ErrDelayRange is returned when a delay exceeds MaxDelay.
	ErrDelayRange = errors.New("graph: edge delay out of range")
)

// MaxWeight and MaxDelay bound edge values so that a sum over maxNodes edges
// stays within int64.
const (
	MaxWeight = int64(1) << 38
	MaxDelay  = int64(1) << 38
)

// checkEdgeValues reports the first weight or delay outside its range.
func checkEdgeValues(i int, from, to uint32, w, z int64) error {
	switch {
	case z < 0:
		return fmt.Errorf("edge %d (%d->%d) delay=%d: %w", i, from, to, z, ErrNegativeDelay)
	case z > MaxDelay:
		return fmt.Errorf("edge %d (%d->%d) delay=%d: %w", i, from, to, z, ErrDelayRange)
	case w > MaxWeight || w < -MaxWeight:
		return fmt.Errorf("edge %d (%d->%d) weight=%d: %w", i, from, to, w, ErrWeightRange)
	}
	return nil
}

// Edge is a directed edge as supplied to Build.
type Edge struct {
	From   uint32
	To     uint32
	Weight int64
	Delay  int64
}

// Graph represents a directed graph in CSR (Compressed Sparse Row) format.
// Vertices are numbered 1..NumNodes; index 0 is reserved and has no edges.
type Graph struct {
	NumNodes uint32
	NumEdges uint32
	FirstOut []uint32 // len: NumNodes + 2; FirstOut[u]..FirstOut[u+1] are edges from vertex u
	Head     []uint32 // len: NumEdges; target vertex for each edge
	Weight   []int64  // len: NumEdges
	Delay    []int64  // len: NumEdges; nonnegative

	// Optional coordinates, present for graphs built from OSM data.
	NodeLat []float64 // len: NumNodes + 1 or 0
	NodeLon []float64 // len: NumNodes + 1 or 0
}

// EdgesFrom returns the range of edge indices for edges originating from vertex u.
func (g *Graph) EdgesFrom(u uint32) (start, end uint32) {
	return g.FirstOut[u], g.FirstOut[u+1]
}

// OutDegree returns the number of edges leaving u.
func (g *Graph) OutDegree(u uint32) int {
	return int(g.FirstOut[u+1] - g.FirstOut[u])
}

// CheckVertex returns ErrInvalidVertex if v is not a vertex of g.
func (g *Graph) CheckVertex(v uint32) error {
	if v == 0 || v > g.NumNodes {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidVertex, v, g.NumNodes)
	}
	return nil
}

// HasCoords reports whether the graph carries vertex coordinates.
func (g *Graph) HasCoords() bool {
	return len(g.NodeLat) == int(g.NumNodes)+1 && g.NumNodes > 0
}

// MinWeight returns the smallest edge weight, or 0 for an edgeless graph.
func (g *Graph) MinWeight() int64 {
	if len(g.Weight) == 0 {
		return 0
	}
	m := g.Weight[0]
	for _, w := range g.Weight[1:] {
		if w < m {
			m = w
		}
	}
	return m
}

// Edges returns the edge list in CSR order.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.NumEdges)
	for u := uint32(1); u <= g.NumNodes; u++ {
		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			edges = append(edges, Edge{From: u, To: g.Head[e], Weight: g.Weight[e], Delay: g.Delay[e]})
		}
	}
	return edges
}

// PathCost sums weight and delay along a vertex path. Each hop uses the
// cheapest edge between its endpoints, the smaller delay breaking ties.
func (g *Graph) PathCost(path []uint32) (weight, delay int64, err error) {
	for i := 0; i+1 < len(path); i++ {
		u, v := path[i], path[i+1]
		if err := g.CheckVertex(u); err != nil {
			return 0, 0, err
		}
		found := false
		var bestW, bestZ int64
		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			if g.Head[e] != v {
				continue
			}
			if w, z := g.Weight[e], g.Delay[e]; !found || w < bestW || (w == bestW && z < bestZ) {
				bestW, bestZ, found = w, z, true
			}
		}
		if !found {
			return 0, 0, fmt.Errorf("%w: %d->%d", ErrNoEdge, u, v)
		}
		weight += bestW
		delay += bestZ
	}
	return weight, delay, nil
}
