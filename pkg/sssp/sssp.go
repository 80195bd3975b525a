// Package sssp implements unconstrained single-source shortest path
// algorithms over graph.Graph: lazy-deletion Dijkstra, an array-scan
// parallel Dijkstra, naive and randomized Bellman-Ford, and Delta-stepping.
//
// Every solver owns all of its state for the duration of one call and
// returns a Result holding the distance and predecessor arrays.
package sssp

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"

	"github.com/azybler/delaypath/pkg/graph"
)

// Inf marks an unreached vertex in a distance array.
const Inf = int64(math.MaxInt64)

// NoVertex marks a missing predecessor.
const NoVertex = uint32(0)

// Algorithm names, reported to Hooks and used by the routing engine.
const (
	AlgoDijkstra         = "dijkstra"
	AlgoParallelDijkstra = "parallel-dijkstra"
	AlgoBellmanFord      = "bellman-ford"
	AlgoYen              = "yen"
	AlgoDeltaStepping    = "delta-stepping"
)

var (
	// ErrNoPath is returned when reconstructing a path to an unreached vertex.
	ErrNoPath = errors.New("sssp: no path to target")
	// ErrNegativeCycle is returned when a negative cycle is reachable from the source.
	ErrNegativeCycle = errors.New("sssp: negative cycle detected")
	// ErrNegativeWeight is returned by algorithms that require nonnegative weights.
	ErrNegativeWeight = errors.New("sssp: negative edge weight")
	// ErrInvalidDelta is returned when Delta-stepping gets a nonpositive Δ.
	ErrInvalidDelta = errors.New("sssp: delta must be positive")
	// ErrBrokenChain is returned when a predecessor chain does not lead back to the source.
	ErrBrokenChain = errors.New("sssp: predecessor chain does not reach source")
)

// Result holds the output of a single-source solve.
type Result struct {
	Source uint32
	Dist   []int64  // len: NumNodes + 1; Inf when unreached
	Pred   []uint32 // len: NumNodes + 1; NoVertex when undefined
}

func newResult(g *graph.Graph, source uint32) *Result {
	dist := make([]int64, g.NumNodes+1)
	pred := make([]uint32, g.NumNodes+1)
	for i := range dist {
		dist[i] = Inf
	}
	dist[source] = 0
	return &Result{Source: source, Dist: dist, Pred: pred}
}

// Distance returns the distance to v and whether v was reached.
func (r *Result) Distance(v uint32) (int64, bool) {
	if int(v) >= len(r.Dist) || r.Dist[v] == Inf {
		return Inf, false
	}
	return r.Dist[v], true
}

// Options configures a solve.
type Options struct {
	// Target stops Dijkstra-family searches once it is settled. 0 means
	// compute the full shortest path tree.
	Target uint32
	// Workers bounds the goroutines used by parallel algorithms.
	Workers int
	// Rand drives the permutation of BellmanFordYen.
	Rand *rand.Rand
	// Hooks receives phase notifications.
	Hooks Hooks
}

// Option mutates Options.
type Option func(*Options)

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{Workers: runtime.GOMAXPROCS(0)}
}

// NewOptions applies opts over DefaultOptions.
func NewOptions(opts ...Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return o
}

// WithTarget sets the early-exit target.
func WithTarget(target uint32) Option {
	return func(o *Options) { o.Target = target }
}

// WithWorkers sets the parallelism of ParallelDijkstra and DeltaStepping.
func WithWorkers(n int) Option {
	return func(o *Options) { o.Workers = n }
}

// WithSeed makes BellmanFordYen deterministic.
func WithSeed(seed uint64) Option {
	return func(o *Options) { o.Rand = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// WithHooks installs phase callbacks.
func WithHooks(h Hooks) Option {
	return func(o *Options) { o.Hooks = h }
}

// CheckEndpoints validates the source and, when nonzero, the target.
func CheckEndpoints(g *graph.Graph, source, target uint32) error {
	if err := g.CheckVertex(source); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if target != 0 {
		if err := g.CheckVertex(target); err != nil {
			return fmt.Errorf("target: %w", err)
		}
	}
	return nil
}

// CheckNonNegative returns ErrNegativeWeight for the first negative edge.
func CheckNonNegative(g *graph.Graph) error {
	if g.MinWeight() >= 0 {
		return nil
	}
	for u := uint32(1); u <= g.NumNodes; u++ {
		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			if g.Weight[e] < 0 {
				return fmt.Errorf("%w: edge %d->%d weight=%d", ErrNegativeWeight, u, g.Head[e], g.Weight[e])
			}
		}
	}
	return nil
}
