package routing

import (
	"errors"
	"math"

	"github.com/tidwall/rtree"

	"github.com/azybler/delaypath/pkg/geo"
	"github.com/azybler/delaypath/pkg/graph"
)

// ErrPointTooFar is returned when the query point is too far from any vertex.
var ErrPointTooFar = errors.New("point too far from road")

// ErrNoCoordinates is returned for coordinate queries on a graph without coordinates.
var ErrNoCoordinates = errors.New("graph has no coordinates")

// Snapper finds the vertex nearest to a coordinate using an R-tree over
// vertex positions. Points are stored as degenerate [lon, lat] boxes.
type Snapper struct {
	tr      rtree.RTreeG[uint32]
	g       *graph.Graph
	maxDist float64
}

// NewSnapper indexes every vertex of g. Queries farther than maxDistMeters
// from every vertex fail with ErrPointTooFar.
func NewSnapper(g *graph.Graph, maxDistMeters float64) *Snapper {
	s := &Snapper{g: g, maxDist: maxDistMeters}
	for v := uint32(1); v <= g.NumNodes; v++ {
		p := [2]float64{g.NodeLon[v], g.NodeLat[v]}
		s.tr.Insert(p, p, v)
	}
	return s
}

// Len returns the number of indexed vertices.
func (s *Snapper) Len() int {
	return s.tr.Len()
}

// Nearest returns the vertex closest to (lat, lng) and its great-circle
// distance in meters.
func (s *Snapper) Nearest(lat, lng float64) (uint32, float64, error) {
	var best uint32
	bestDist := math.Inf(1)

	s.tr.Nearby(
		func(lo, hi [2]float64, _ uint32, _ bool) float64 {
			return geo.PointToBoxDist(lat, lng, lo, hi)
		},
		func(_, _ [2]float64, v uint32, _ float64) bool {
			best = v
			bestDist = geo.Haversine(lat, lng, s.g.NodeLat[v], s.g.NodeLon[v])
			return false
		},
	)

	if best == 0 {
		return 0, 0, ErrNoCoordinates
	}
	if bestDist > s.maxDist {
		return 0, bestDist, ErrPointTooFar
	}
	return best, bestDist, nil
}
