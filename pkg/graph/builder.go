package graph

import (
	"fmt"
	"sort"

	"github.com/paulmach/osm"

	osmparser "github.com/azybler/delaypath/pkg/osm"
)

// Build creates a CSR Graph with n vertices from a list of directed edges.
// Edges leaving the same vertex keep their input order.
func Build(n uint32, edges []Edge) (*Graph, error) {
	for i, e := range edges {
		if e.From == 0 || e.From > n || e.To == 0 || e.To > n {
			return nil, fmt.Errorf("edge %d (%d->%d): %w", i, e.From, e.To, ErrInvalidVertex)
		}
		if err := checkEdgeValues(i, e.From, e.To, e.Weight, e.Delay); err != nil {
			return nil, err
		}
	}

	sorted := make([]Edge, len(edges))
	copy(sorted, edges)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].From < sorted[j].From
	})

	numEdges := uint32(len(sorted))
	firstOut := make([]uint32, n+2)
	head := make([]uint32, numEdges)
	weight := make([]int64, numEdges)
	delay := make([]int64, numEdges)

	for i, e := range sorted {
		head[i] = e.To
		weight[i] = e.Weight
		delay[i] = e.Delay
	}

	// Build FirstOut via counting.
	for _, e := range sorted {
		firstOut[e.From+1]++
	}
	// Prefix sum.
	for i := uint32(1); i <= n+1; i++ {
		firstOut[i] += firstOut[i-1]
	}

	return &Graph{
		NumNodes: n,
		NumEdges: numEdges,
		FirstOut: firstOut,
		Head:     head,
		Weight:   weight,
		Delay:    delay,
	}, nil
}

// BuildFromOSM creates a Graph from parsed OSM edges. OSM node ids are
// compacted to vertex ids 1..n in order of first appearance.
func BuildFromOSM(result *osmparser.ParseResult) (*Graph, error) {
	if len(result.Edges) == 0 {
		return Build(0, nil)
	}

	nodeSet := make(map[osm.NodeID]uint32)
	nodeIDs := []osm.NodeID{0} // vertex 0 is reserved

	addNode := func(id osm.NodeID) uint32 {
		if idx, ok := nodeSet[id]; ok {
			return idx
		}
		idx := uint32(len(nodeIDs))
		nodeSet[id] = idx
		nodeIDs = append(nodeIDs, id)
		return idx
	}

	edges := make([]Edge, len(result.Edges))
	for i, e := range result.Edges {
		edges[i] = Edge{
			From:   addNode(e.FromNodeID),
			To:     addNode(e.ToNodeID),
			Weight: int64(e.Weight),
			Delay:  int64(e.Delay),
		}
	}

	n := uint32(len(nodeIDs) - 1)
	g, err := Build(n, edges)
	if err != nil {
		return nil, err
	}

	g.NodeLat = make([]float64, n+1)
	g.NodeLon = make([]float64, n+1)
	for v := uint32(1); v <= n; v++ {
		g.NodeLat[v] = result.NodeLat[nodeIDs[v]]
		g.NodeLon[v] = result.NodeLon[nodeIDs[v]]
	}
	return g, nil
}
