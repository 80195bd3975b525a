package constrained

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azybler/delaypath/pkg/graph"
	"github.com/azybler/delaypath/pkg/sssp"
)

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

func randomGraph(t testing.TB, seed uint64, n uint32, m int) *graph.Graph {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed+7))
	edges := make([]graph.Edge, m)
	for i := range edges {
		edges[i] = graph.Edge{
			From:   1 + rng.Uint32N(n),
			To:     1 + rng.Uint32N(n),
			Weight: rng.Int64N(20),
			Delay:  rng.Int64N(3),
		}
	}
	g, err := graph.Build(n, edges)
	require.NoError(t, err)
	return g
}

type solver struct {
	name  string
	solve func(*graph.Graph, uint32, int, ...sssp.Option) (*Table, error)
}

var solvers = []solver{
	{AlgoDijkstra, Dijkstra},
	{AlgoDP, DP},
}

func TestScenarioBoundTwo(t *testing.T) {
	g := scenarioGraph(t)
	for _, s := range solvers {
		t.Run(s.name, func(t *testing.T) {
			tbl, err := s.solve(g, 1, 2)
			require.NoError(t, err)

			w, l, ok := tbl.Best(4)
			require.True(t, ok)
			assert.Equal(t, int64(6), w)
			assert.Equal(t, 1, l)

			path, err := tbl.Path(4, l)
			require.NoError(t, err)
			assert.Equal(t, []uint32{1, 3, 4}, path)

			spent, err := tbl.SpentDelay(4, l)
			require.NoError(t, err)
			assert.Equal(t, 1, spent)

			weight, delay, err := g.PathCost(path)
			require.NoError(t, err)
			assert.Equal(t, int64(6), weight)
			assert.Equal(t, int64(1), delay)
		})
	}
}

func TestScenarioLooseBound(t *testing.T) {
	g := scenarioGraph(t)
	for _, s := range solvers {
		t.Run(s.name, func(t *testing.T) {
			tbl, err := s.solve(g, 1, 3)
			require.NoError(t, err)

			w, l, ok := tbl.Best(4)
			require.True(t, ok)
			assert.Equal(t, int64(4), w)
			assert.Equal(t, 3, l)

			path, err := tbl.Path(4, l)
			require.NoError(t, err)
			assert.Equal(t, []uint32{1, 2, 3, 4}, path)
		})
	}
}

func TestScenarioTable(t *testing.T) {
	g := scenarioGraph(t)
	inf := sssp.Inf

	dij, err := Dijkstra(g, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, inf, 3}, dij.D[3])
	assert.Equal(t, []int64{inf, 6, inf}, dij.D[4])

	dp, err := DP(g, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 0, 0}, dp.D[1])
	assert.Equal(t, []int64{inf, 1, 1}, dp.D[2])
	assert.Equal(t, []int64{5, 5, 3}, dp.D[3])
	assert.Equal(t, []int64{inf, 6, 6}, dp.D[4])
}

func TestTargetStopGivesLeastDelay(t *testing.T) {
	g := scenarioGraph(t)
	tbl, err := Dijkstra(g, 1, 3, sssp.WithTarget(4))
	require.NoError(t, err)

	l, ok := tbl.FirstFinite(4)
	require.True(t, ok)
	assert.Equal(t, 1, l)
	assert.Equal(t, int64(6), tbl.D[4][l])
}

func TestUnreachableWithinBound(t *testing.T) {
	g := scenarioGraph(t)
	for _, s := range solvers {
		t.Run(s.name, func(t *testing.T) {
			tbl, err := s.solve(g, 1, 0)
			require.NoError(t, err)

			_, _, ok := tbl.Best(4)
			assert.False(t, ok)
			_, ok = tbl.FirstFinite(4)
			assert.False(t, ok)

			_, err = tbl.Path(4, 0)
			assert.ErrorIs(t, err, ErrNoPath)
			_, err = tbl.Path(4, 5)
			assert.ErrorIs(t, err, ErrNoPath)

			path, err := tbl.Path(3, 0)
			require.NoError(t, err)
			assert.Equal(t, []uint32{1, 3}, path)
		})
	}
}

func TestSpentDelayWithSlack(t *testing.T) {
	g := scenarioGraph(t)
	tbl, err := DP(g, 1, 2)
	require.NoError(t, err)

	// D[4][2] holds 1-3-4, which spends one unit of delay.
	states, err := tbl.States(4, 2)
	require.NoError(t, err)
	assert.Equal(t, []State{{1, 1}, {3, 1}, {4, 2}}, states)

	spent, err := tbl.SpentDelay(4, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, spent)
}

func TestSourceOnlyPath(t *testing.T) {
	g := scenarioGraph(t)
	tbl, err := Dijkstra(g, 1, 2)
	require.NoError(t, err)
	path, err := tbl.Path(1, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1}, path)
}

func TestCycleBackToSource(t *testing.T) {
	g, err := graph.Build(2, []graph.Edge{
		{From: 1, To: 2, Weight: 3, Delay: 1},
		{From: 2, To: 1, Weight: 4, Delay: 1},
	})
	require.NoError(t, err)

	tbl, err := Dijkstra(g, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(7), tbl.D[1][2])

	path, err := tbl.Path(1, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 1}, path)
}

func TestDPMatchesDijkstraRunningMin(t *testing.T) {
	for seed := uint64(1); seed <= 8; seed++ {
		g := randomGraph(t, seed, 30, 120)
		bound := int(seed % 5)

		dij, err := Dijkstra(g, 1, bound)
		require.NoError(t, err)
		dp, err := DP(g, 1, bound)
		require.NoError(t, err)

		for v := uint32(1); v <= g.NumNodes; v++ {
			require.Equal(t, dij.RunningMin(v), dp.RunningMin(v), "seed %d vertex %d", seed, v)
		}
	}
}

func TestRunningMinNonIncreasing(t *testing.T) {
	g := randomGraph(t, 99, 40, 160)
	tbl, err := Dijkstra(g, 1, 6)
	require.NoError(t, err)

	for v := uint32(1); v <= g.NumNodes; v++ {
		m := tbl.RunningMin(v)
		for l := 1; l < len(m); l++ {
			assert.LessOrEqual(t, m[l], m[l-1], "vertex %d level %d", v, l)
		}
	}
}

func TestLargeBoundMatchesUnconstrained(t *testing.T) {
	g := randomGraph(t, 5, 25, 90)
	// A simple path has at most n-1 edges of delay <= 2.
	bound := 2 * int(g.NumNodes)

	want, err := sssp.Dijkstra(g, 1)
	require.NoError(t, err)
	tbl, err := Dijkstra(g, 1, bound)
	require.NoError(t, err)

	for v := uint32(1); v <= g.NumNodes; v++ {
		d, reached := want.Distance(v)
		w, l, ok := tbl.Best(v)
		require.Equal(t, reached, ok, "vertex %d", v)
		if !ok {
			continue
		}
		assert.Equal(t, d, w, "vertex %d", v)

		path, err := tbl.Path(v, l)
		require.NoError(t, err)
		assert.Equal(t, uint32(1), path[0])
		assert.Equal(t, v, path[len(path)-1])
	}
}

func TestRelaxDelay(t *testing.T) {
	g := scenarioGraph(t)
	tbl, err := newTable(g, 1, 2)
	require.NoError(t, err)
	tbl.root(0)

	l, ok := tbl.relaxDelay(1, 0, 2, 1, 1)
	assert.True(t, ok)
	assert.Equal(t, 1, l)
	assert.Equal(t, State{Vertex: 1, Delay: 0}, tbl.Pred[2][1])

	_, ok = tbl.relaxDelay(1, 0, 2, 1, 1)
	assert.False(t, ok, "equal weight is not an improvement")

	_, ok = tbl.relaxDelay(1, 0, 3, 1, 3)
	assert.False(t, ok, "delay past bound is pruned")

	_, ok = tbl.relaxDelay(3, 0, 4, 1, 1)
	assert.False(t, ok, "unreached state does not relax")

	_, ok = tbl.relaxDelay(2, 1, 3, 2, math.MaxInt64)
	assert.False(t, ok, "delay that would wrap around is pruned")
}

// hugeDelayGraph is 1->2 (z=1), 2->3 with a delay no bound can hold. Build
// rejects such a delay, so it is patched into the CSR afterwards.
func hugeDelayGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.Build(3, []graph.Edge{
		{From: 1, To: 2, Weight: 1, Delay: 1},
		{From: 2, To: 3, Weight: 1, Delay: 1},
	})
	require.NoError(t, err)
	start, _ := g.EdgesFrom(2)
	g.Delay[start] = math.MaxInt64
	return g
}

func TestHugeDelayFromNonzeroLevel(t *testing.T) {
	g := hugeDelayGraph(t)
	for _, s := range solvers {
		t.Run(s.name, func(t *testing.T) {
			var tbl *Table
			var err error
			require.NotPanics(t, func() { tbl, err = s.solve(g, 1, 5) })
			require.NoError(t, err)

			w, _, ok := tbl.Best(2)
			assert.True(t, ok)
			assert.Equal(t, int64(1), w)
			_, _, ok = tbl.Best(3)
			assert.False(t, ok, "vertex 3 lies beyond any bound")
		})
	}
}

func TestWeightSumSaturates(t *testing.T) {
	g, err := graph.Build(3, []graph.Edge{
		{From: 1, To: 2, Weight: 2, Delay: 0},
		{From: 2, To: 3, Weight: 1, Delay: 0},
	})
	require.NoError(t, err)
	start, _ := g.EdgesFrom(2)
	g.Weight[start] = math.MaxInt64 - 1

	for _, s := range solvers {
		t.Run(s.name, func(t *testing.T) {
			tbl, err := s.solve(g, 1, 2)
			require.NoError(t, err)
			for l, d := range tbl.D[3] {
				assert.Equal(t, sssp.Inf, d, "level %d", l)
			}
		})
	}
}

func TestErrors(t *testing.T) {
	g := scenarioGraph(t)
	for _, s := range solvers {
		t.Run(s.name, func(t *testing.T) {
			_, err := s.solve(g, 1, -1)
			assert.ErrorIs(t, err, ErrInvalidBound)

			_, err = s.solve(g, 9, 2)
			assert.ErrorIs(t, err, graph.ErrInvalidVertex)

			_, err = s.solve(g, 1, maxCells)
			assert.ErrorIs(t, err, ErrInvalidBound)
		})
	}

	neg, err := graph.Build(2, []graph.Edge{{From: 1, To: 2, Weight: -1, Delay: 0}})
	require.NoError(t, err)
	_, err = Dijkstra(neg, 1, 1)
	assert.ErrorIs(t, err, sssp.ErrNegativeWeight)

	tbl, err := DP(neg, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{-1, -1}, tbl.D[2])
}

func TestHooksReportPhases(t *testing.T) {
	g := scenarioGraph(t)
	for _, s := range solvers {
		t.Run(s.name, func(t *testing.T) {
			var events []string
			hooks := sssp.Hooks{
				OnPhaseStart: func(algo string, p sssp.Phase, _ time.Time) {
					events = append(events, "start "+algo+" "+string(p))
				},
				OnPhaseEnd: func(algo string, p sssp.Phase, _ time.Time) {
					events = append(events, "end "+algo+" "+string(p))
				},
			}
			_, err := s.solve(g, 1, 2, sssp.WithHooks(hooks))
			require.NoError(t, err)
			assert.Equal(t, []string{
				"start " + s.name + " preprocess",
				"end " + s.name + " preprocess",
				"start " + s.name + " compute",
				"end " + s.name + " compute",
			}, events)
		})
	}
}
