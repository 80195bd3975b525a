package sssp

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azybler/delaypath/pkg/graph"
)

// scenarioGraph is 1->2 (w1), 2->3 (w2), 1->3 (w5), 3->4 (w1).
func scenarioGraph(t testing.TB) *graph.Graph {
	t.Helper()
	g, err := graph.Build(4, []graph.Edge{
		{From: 1, To: 2, Weight: 1, Delay: 1},
		{From: 2, To: 3, Weight: 2, Delay: 1},
		{From: 1, To: 3, Weight: 5, Delay: 0},
		{From: 3, To: 4, Weight: 1, Delay: 1},
	})
	require.NoError(t, err)
	return g
}

// randomGraph builds a reproducible graph with n vertices and m edges.
func randomGraph(t testing.TB, seed uint64, n uint32, m int, maxW int64) *graph.Graph {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed+1))
	edges := make([]graph.Edge, m)
	for i := range edges {
		edges[i] = graph.Edge{
			From:   1 + rng.Uint32N(n),
			To:     1 + rng.Uint32N(n),
			Weight: rng.Int64N(maxW + 1),
			Delay:  rng.Int64N(4),
		}
	}
	g, err := graph.Build(n, edges)
	require.NoError(t, err)
	return g
}

type solver struct {
	name  string
	solve func(g *graph.Graph, source uint32, opts ...Option) (*Result, error)
}

func allSolvers() []solver {
	delta := func(d int64) func(*graph.Graph, uint32, ...Option) (*Result, error) {
		return func(g *graph.Graph, s uint32, opts ...Option) (*Result, error) {
			return DeltaStepping(g, s, d, opts...)
		}
	}
	return []solver{
		{"dijkstra", Dijkstra},
		{"parallel-dijkstra", ParallelDijkstra},
		{"bellman-ford", BellmanFord},
		{"yen", func(g *graph.Graph, s uint32, opts ...Option) (*Result, error) {
			return BellmanFordYen(g, s, append(opts, WithSeed(42))...)
		}},
		{"delta-1", delta(1)},
		{"delta-3", delta(3)},
		{"delta-100", delta(100)},
	}
}

func TestScenarioAllAlgorithms(t *testing.T) {
	g := scenarioGraph(t)
	for _, s := range allSolvers() {
		t.Run(s.name, func(t *testing.T) {
			res, err := s.solve(g, 1)
			require.NoError(t, err)
			assert.Equal(t, []int64{0, 1, 3, 4}, res.Dist[1:])

			path, err := res.PathTo(4)
			require.NoError(t, err)
			assert.Equal(t, []uint32{1, 2, 3, 4}, path)
		})
	}
}

func TestCrossAlgorithmAgreement(t *testing.T) {
	for seed := uint64(1); seed <= 12; seed++ {
		g := randomGraph(t, seed, 60, 240, 20)
		want, err := Dijkstra(g, 1)
		require.NoError(t, err)

		for _, s := range allSolvers() {
			got, err := s.solve(g, 1)
			require.NoError(t, err, "seed %d %s", seed, s.name)
			assert.Equal(t, want.Dist, got.Dist, "seed %d %s", seed, s.name)
			assertPathsConsistent(t, g, got)
		}
	}
}

func TestParallelPathsWithSmallChunks(t *testing.T) {
	saved := minChunk
	minChunk = 1
	defer func() { minChunk = saved }()

	for seed := uint64(20); seed < 26; seed++ {
		g := randomGraph(t, seed, 80, 400, 9)
		want, err := Dijkstra(g, 1)
		require.NoError(t, err)

		par, err := ParallelDijkstra(g, 1, WithWorkers(4))
		require.NoError(t, err)
		assert.Equal(t, want.Dist, par.Dist)
		assertPathsConsistent(t, g, par)

		for _, d := range []int64{1, 2, 5, 50} {
			ds, err := DeltaStepping(g, 1, d, WithWorkers(4))
			require.NoError(t, err)
			assert.Equal(t, want.Dist, ds.Dist, "delta %d", d)
			assertPathsConsistent(t, g, ds)
		}
	}
}

func TestDeltaInvariance(t *testing.T) {
	g := randomGraph(t, 99, 100, 500, 50)
	base, err := DeltaStepping(g, 3, 1, WithWorkers(1))
	require.NoError(t, err)
	for _, d := range []int64{2, 7, 25, 50, 51, 1000} {
		res, err := DeltaStepping(g, 3, d, WithWorkers(1))
		require.NoError(t, err)
		assert.Equal(t, base.Dist, res.Dist, "delta %d", d)
	}
}

// assertPathsConsistent checks that every reached vertex has a predecessor
// chain from the source whose weights sum to its distance.
func assertPathsConsistent(t *testing.T, g *graph.Graph, res *Result) {
	t.Helper()
	for v := uint32(1); v <= g.NumNodes; v++ {
		d, ok := res.Distance(v)
		if !ok {
			_, err := res.PathTo(v)
			assert.ErrorIs(t, err, ErrNoPath)
			continue
		}
		path, err := res.PathTo(v)
		require.NoError(t, err, "vertex %d", v)
		require.Equal(t, res.Source, path[0])
		require.Equal(t, v, path[len(path)-1])

		var sum int64
		for i := 0; i+1 < len(path); i++ {
			w, found := cheapestEdge(g, path[i], path[i+1])
			require.True(t, found, "no edge %d->%d", path[i], path[i+1])
			sum += w
		}
		assert.Equal(t, d, sum, "path weight to %d", v)
	}
}

func cheapestEdge(g *graph.Graph, u, v uint32) (int64, bool) {
	best, found := Inf, false
	start, end := g.EdgesFrom(u)
	for e := start; e < end; e++ {
		if g.Head[e] == v && g.Weight[e] < best {
			best, found = g.Weight[e], true
		}
	}
	return best, found
}

func TestUnreachableTarget(t *testing.T) {
	g, err := graph.Build(3, []graph.Edge{{From: 1, To: 2, Weight: 4}})
	require.NoError(t, err)

	for _, s := range allSolvers() {
		res, err := s.solve(g, 1)
		require.NoError(t, err, s.name)
		_, ok := res.Distance(3)
		assert.False(t, ok, s.name)
		_, err = res.PathTo(3)
		assert.ErrorIs(t, err, ErrNoPath, s.name)
	}
}

func TestDijkstraStopsAtTarget(t *testing.T) {
	g := scenarioGraph(t)
	res, err := Dijkstra(g, 1, WithTarget(2))
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Dist[2])
	// Vertex 4 is never relaxed before the target is popped.
	_, ok := res.Distance(4)
	assert.False(t, ok)

	res, err = ParallelDijkstra(g, 1, WithTarget(3))
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Dist[3])
	path, err := res.PathTo(3)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 3}, path)
}

func TestInvalidEndpoints(t *testing.T) {
	g := scenarioGraph(t)
	for _, s := range allSolvers() {
		_, err := s.solve(g, 0)
		assert.ErrorIs(t, err, graph.ErrInvalidVertex, s.name)
		_, err = s.solve(g, 5)
		assert.ErrorIs(t, err, graph.ErrInvalidVertex, s.name)
		_, err = s.solve(g, 1, WithTarget(9))
		assert.ErrorIs(t, err, graph.ErrInvalidVertex, s.name)
	}
}

func TestInvalidDelta(t *testing.T) {
	g := scenarioGraph(t)
	_, err := DeltaStepping(g, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidDelta)
	_, err = DeltaStepping(g, 1, -3)
	assert.ErrorIs(t, err, ErrInvalidDelta)
}

func negativeGraph(t *testing.T, cycle bool) *graph.Graph {
	t.Helper()
	back := int64(3)
	if cycle {
		back = -5
	}
	g, err := graph.Build(4, []graph.Edge{
		{From: 1, To: 2, Weight: 4},
		{From: 2, To: 3, Weight: -2},
		{From: 3, To: 2, Weight: back},
		{From: 3, To: 4, Weight: 3},
	})
	require.NoError(t, err)
	return g
}

func TestBellmanFordNegativeWeights(t *testing.T) {
	g := negativeGraph(t, false)
	for seed := uint64(0); seed < 8; seed++ {
		yen, err := BellmanFordYen(g, 1, WithSeed(seed))
		require.NoError(t, err)
		assert.Equal(t, []int64{0, 4, 2, 5}, yen.Dist[1:])
	}
	bf, err := BellmanFord(g, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 4, 2, 5}, bf.Dist[1:])

	_, err = Dijkstra(g, 1)
	assert.ErrorIs(t, err, ErrNegativeWeight)
	_, err = DeltaStepping(g, 1, 2)
	assert.ErrorIs(t, err, ErrNegativeWeight)
}

func TestBellmanFordNegativeCycle(t *testing.T) {
	g := negativeGraph(t, true)

	_, err := BellmanFord(g, 1)
	assert.ErrorIs(t, err, ErrNegativeCycle)

	for seed := uint64(0); seed < 8; seed++ {
		_, err := BellmanFordYen(g, 1, WithSeed(seed))
		assert.ErrorIs(t, err, ErrNegativeCycle, "seed %d", seed)
	}

	// The cycle is unreachable from 4.
	res, err := BellmanFord(g, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Dist[4])
}

func TestRelax(t *testing.T) {
	dist := []int64{Inf, 0, 10, Inf}
	pred := make([]uint32, 4)

	assert.True(t, Relax(1, 2, 3, dist, pred))
	assert.Equal(t, int64(3), dist[2])
	assert.Equal(t, uint32(1), pred[2])

	assert.False(t, Relax(1, 2, 3, dist, pred), "equal candidate must not relax")
	assert.False(t, Relax(3, 2, 1, dist, pred), "unreached source must not relax")
}

func TestAddWeight(t *testing.T) {
	tests := []struct {
		d, w, want int64
	}{
		{3, 4, 7},
		{-3, 4, 1},
		{2, math.MaxInt64 - 1, Inf},
		{Inf - 1, 1, Inf},
		{-2, math.MinInt64 + 1, math.MinInt64},
		{math.MinInt64, -1, math.MinInt64},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AddWeight(tt.d, tt.w), "AddWeight(%d, %d)", tt.d, tt.w)
	}
}

func TestRelaxDoesNotWrap(t *testing.T) {
	dist := []int64{Inf, 2, Inf}
	pred := make([]uint32, 3)
	assert.False(t, Relax(1, 2, math.MaxInt64-1, dist, pred))
	assert.Equal(t, Inf, dist[2])

	_, ok := relaxAtomic(1, 2, math.MaxInt64-1, dist)
	assert.False(t, ok)
	assert.Equal(t, Inf, dist[2])
}

// A weight too large for Build is patched in; sums must saturate instead
// of turning into negative distances.
func TestHugeWeightStaysNonNegative(t *testing.T) {
	g, err := graph.Build(3, []graph.Edge{
		{From: 1, To: 2, Weight: 2},
		{From: 2, To: 3, Weight: 1},
	})
	require.NoError(t, err)
	start, _ := g.EdgesFrom(2)
	g.Weight[start] = math.MaxInt64 - 1

	for _, s := range allSolvers() {
		t.Run(s.name, func(t *testing.T) {
			res, err := s.solve(g, 1, WithWorkers(4))
			require.NoError(t, err)
			assert.Equal(t, int64(2), res.Dist[2])
			_, ok := res.Distance(3)
			assert.False(t, ok, "dist[3] = %d", res.Dist[3])
		})
	}
}

func TestRelaxAtomic(t *testing.T) {
	dist := []int64{Inf, 0, 10}
	d, ok := relaxAtomic(1, 2, 4, dist)
	assert.True(t, ok)
	assert.Equal(t, int64(4), d)
	_, ok = relaxAtomic(1, 2, 4, dist)
	assert.False(t, ok)
}

func TestHooksReportPhases(t *testing.T) {
	g := scenarioGraph(t)
	timer := NewPhaseTimer()

	var events []string
	record := Hooks{
		OnPhaseStart: func(algo string, p Phase, _ time.Time) { events = append(events, "start "+algo+" "+string(p)) },
		OnPhaseEnd:   func(algo string, p Phase, _ time.Time) { events = append(events, "end "+algo+" "+string(p)) },
	}

	_, err := Dijkstra(g, 1, WithHooks(record.Chain(timer.Hooks())))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"start dijkstra preprocess",
		"end dijkstra preprocess",
		"start dijkstra compute",
		"end dijkstra compute",
	}, events)
	assert.Contains(t, timer.Total, PhasePreprocess)
	assert.Contains(t, timer.Total, PhaseCompute)
}

func TestMinHeapOrder(t *testing.T) {
	h := NewMinHeap(4)
	for i, d := range []int64{5, 1, 4, 1, 9, 0} {
		h.Push(uint32(i+1), d)
	}
	var got []int64
	for h.Len() > 0 {
		got = append(got, h.Pop().Dist)
	}
	assert.Equal(t, []int64{0, 1, 1, 4, 5, 9}, got)
	assert.Zero(t, h.Len())
}

func TestPathToBrokenChain(t *testing.T) {
	res := &Result{Source: 1, Dist: []int64{Inf, 0, 3, 5}, Pred: []uint32{0, 0, 3, 2}}
	_, err := res.PathTo(3)
	assert.True(t, errors.Is(err, ErrBrokenChain))
}
