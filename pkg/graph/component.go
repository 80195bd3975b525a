package graph

// UnionFind implements a disjoint-set data structure with path compression
// and union by rank.
type UnionFind struct {
	parent []uint32
	rank   []byte

	size []uint32
}

// NewUnionFind creates a UnionFind for n elements.
func NewUnionFind(n uint32) *UnionFind {
	parent := make([]uint32, n)
	size := make([]uint32, n)
	for i := range n {
		parent[i] = i
		size[i] = 1
	}
	return &UnionFind{
		parent: parent,
		rank:   make([]byte, n),
		size:   size,
	}
}

// Find returns the representative of the set containing x, with path halving.
func (uf *UnionFind) Find(x uint32) uint32 {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]] // path halving
		x = uf.parent[x]
	}
	return x
}

// Union merges the sets containing x and y. Returns false if already same set.
func (uf *UnionFind) Union(x, y uint32) bool {
	rx := uf.Find(x)
	ry := uf.Find(y)
	if rx == ry {
		return false
	}

	// Union by rank.
	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	uf.size[rx] += uf.size[ry]
	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
	return true
}

// Size returns the number of elements in the set containing x.
func (uf *UnionFind) Size(x uint32) uint32 {
	return uf.size[uf.Find(x)]
}

// LargestComponent returns the vertex ids belonging to the largest
// weakly connected component (treating the directed graph as undirected),
// in increasing order.
func LargestComponent(g *Graph) []uint32 {
	if g.NumNodes == 0 {
		return nil
	}

	uf := NewUnionFind(g.NumNodes + 1)

	// Union all edges (both directions treated as undirected).
	for u := uint32(1); u <= g.NumNodes; u++ {
		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			uf.Union(u, g.Head[e])
		}
	}

	// Find the representative with the largest size.
	bestRoot := uint32(0)
	bestSize := uint32(0)
	for v := uint32(1); v <= g.NumNodes; v++ {
		root := uf.Find(v)
		if size := uf.Size(root); size > bestSize {
			bestRoot = root
			bestSize = size
		}
	}

	// Collect all vertices in the largest component.
	nodes := make([]uint32, 0, bestSize)
	for v := uint32(1); v <= g.NumNodes; v++ {
		if uf.Find(v) == bestRoot {
			nodes = append(nodes, v)
		}
	}

	return nodes
}

// FilterToComponent creates a new graph containing only the specified
// vertices, renumbered 1..len(nodes) in the given order. Edges with an
// endpoint outside the set are dropped.
func FilterToComponent(g *Graph, nodes []uint32) *Graph {
	oldToNew := make(map[uint32]uint32, len(nodes))
	for i, oldIdx := range nodes {
		oldToNew[oldIdx] = uint32(i + 1)
	}

	var edges []Edge
	for _, oldU := range nodes {
		start, end := g.EdgesFrom(oldU)
		for e := start; e < end; e++ {
			if newV, ok := oldToNew[g.Head[e]]; ok {
				edges = append(edges, Edge{
					From:   oldToNew[oldU],
					To:     newV,
					Weight: g.Weight[e],
					Delay:  g.Delay[e],
				})
			}
		}
	}

	numNodes := uint32(len(nodes))
	// Renumbered endpoints are in range and delays were already validated.
	filtered, _ := Build(numNodes, edges)

	if g.HasCoords() {
		filtered.NodeLat = make([]float64, numNodes+1)
		filtered.NodeLon = make([]float64, numNodes+1)
		for i, oldIdx := range nodes {
			filtered.NodeLat[i+1] = g.NodeLat[oldIdx]
			filtered.NodeLon[i+1] = g.NodeLon[oldIdx]
		}
	}

	return filtered
}
