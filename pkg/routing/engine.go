package routing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/azybler/delaypath/pkg/config"
	"github.com/azybler/delaypath/pkg/constrained"
	"github.com/azybler/delaypath/pkg/graph"
	"github.com/azybler/delaypath/pkg/sssp"
	"github.com/azybler/delaypath/pkg/telemetry"
	"github.com/azybler/delaypath/pkg/walks"
)

var (
	// ErrNoRoute is returned when the target cannot be reached.
	ErrNoRoute = errors.New("no route found")
	// ErrUnknownAlgorithm is returned for an algorithm name the engine does not know.
	ErrUnknownAlgorithm = errors.New("unknown algorithm")
	// ErrInvalidRequest is returned for parameters outside the configured limits.
	ErrInvalidRequest = errors.New("invalid request")
)

// LatLng represents a geographic coordinate.
type LatLng struct {
	Lat float64
	Lng float64
}

// Objective selects which constrained answer is reported.
type Objective string

const (
	// ObjectiveWeight reports the cheapest path whose delay fits the bound.
	ObjectiveWeight Objective = "weight"
	// ObjectiveDelay reports the path of least delay, cheapest among those.
	ObjectiveDelay Objective = "delay"
)

// PathRequest asks for an unconstrained shortest path.
type PathRequest struct {
	Source    uint32
	Target    uint32
	Algorithm string // empty: engine default
	Delta     int64  // delta-stepping only; 0: engine default
	Hooks     sssp.Hooks
}

// PathResult is the output of ShortestPath.
type PathResult struct {
	Algorithm string
	Distance  int64
	Delay     int64
	Path      []uint32
}

// ConstrainedRequest asks for a path whose total delay is at most Bound.
type ConstrainedRequest struct {
	Source    uint32
	Target    uint32
	Bound     int
	Algorithm string    // "dijkstra" or "dp"; empty: "dijkstra"
	Objective Objective // empty: ObjectiveWeight
	Hooks     sssp.Hooks
}

// ConstrainedResult is the output of Constrained.
type ConstrainedResult struct {
	Algorithm string
	Objective Objective
	Weight    int64
	Delay     int64
	Path      []uint32
}

// WalksRequest asks for the K cheapest walks leaving Source.
type WalksRequest struct {
	Source uint32
	K      int
	Hooks  sssp.Hooks
}

// Router is the interface for path queries.
type Router interface {
	ShortestPath(ctx context.Context, req PathRequest) (*PathResult, error)
	Constrained(ctx context.Context, req ConstrainedRequest) (*ConstrainedResult, error)
	Walks(ctx context.Context, req WalksRequest) ([]walks.Walk, error)
	Nearest(ctx context.Context, p LatLng) (uint32, float64, error)
}

type solveFunc func(g *graph.Graph, source uint32, opts ...sssp.Option) (*sssp.Result, error)

// Engine implements Router over an in-memory graph.
type Engine struct {
	g       *graph.Graph
	cfg     config.SolverConfig
	snapper *Snapper // nil without coordinates
}

// NewEngine creates an engine for g. A snapper is built when g carries
// coordinates.
func NewEngine(g *graph.Graph, cfg config.SolverConfig, maxSnapMeters float64) *Engine {
	e := &Engine{g: g, cfg: cfg}
	if g.HasCoords() {
		e.snapper = NewSnapper(g, maxSnapMeters)
	}
	return e
}

// Graph returns the graph the engine serves.
func (e *Engine) Graph() *graph.Graph {
	return e.g
}

// Algorithms lists the unconstrained algorithm names ShortestPath accepts.
func Algorithms() []string {
	return []string{
		sssp.AlgoDijkstra,
		sssp.AlgoParallelDijkstra,
		sssp.AlgoBellmanFord,
		sssp.AlgoYen,
		sssp.AlgoDeltaStepping,
	}
}

func (e *Engine) solver(name string, delta int64) (solveFunc, error) {
	switch name {
	case sssp.AlgoDijkstra:
		return sssp.Dijkstra, nil
	case sssp.AlgoParallelDijkstra:
		return sssp.ParallelDijkstra, nil
	case sssp.AlgoBellmanFord:
		return sssp.BellmanFord, nil
	case sssp.AlgoYen:
		return sssp.BellmanFordYen, nil
	case sssp.AlgoDeltaStepping:
		if delta == 0 {
			delta = e.cfg.Delta
		}
		return func(g *graph.Graph, source uint32, opts ...sssp.Option) (*sssp.Result, error) {
			return sssp.DeltaStepping(g, source, delta, opts...)
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

func (e *Engine) options(hooks sssp.Hooks, extra ...sssp.Option) []sssp.Option {
	opts := []sssp.Option{sssp.WithWorkers(e.cfg.Workers), sssp.WithHooks(hooks)}
	if e.cfg.Seed != 0 {
		opts = append(opts, sssp.WithSeed(e.cfg.Seed))
	}
	return append(opts, extra...)
}

// ShortestPath solves from req.Source with the named algorithm and returns
// the path to req.Target.
func (e *Engine) ShortestPath(ctx context.Context, req PathRequest) (*PathResult, error) {
	name := req.Algorithm
	if name == "" {
		name = e.cfg.Algorithm
	}
	solve, err := e.solver(name, req.Delta)
	if err != nil {
		return nil, err
	}
	if err := e.checkPair(req.Source, req.Target); err != nil {
		return nil, err
	}

	var out *PathResult
	err = observe(ctx, "routing.ShortestPath", name, req.Hooks, func(ctx context.Context, hooks sssp.Hooks) error {
		res, err := run(ctx, func() (*sssp.Result, error) {
			return solve(e.g, req.Source, e.options(hooks, sssp.WithTarget(req.Target))...)
		})
		if err != nil {
			return err
		}
		path, err := res.PathTo(req.Target)
		if err != nil {
			return noRoute(err)
		}
		_, delay, err := e.g.PathCost(path)
		if err != nil {
			return err
		}
		out = &PathResult{Algorithm: name, Distance: res.Dist[req.Target], Delay: delay, Path: path}
		return nil
	})
	return out, err
}

// Constrained finds a path from req.Source to req.Target with total delay at
// most req.Bound. ObjectiveWeight settles every state and reports the
// cheapest such path; ObjectiveDelay stops at the first target state and
// reports the least-delay path.
func (e *Engine) Constrained(ctx context.Context, req ConstrainedRequest) (*ConstrainedResult, error) {
	var solve func(*graph.Graph, uint32, int, ...sssp.Option) (*constrained.Table, error)
	name := req.Algorithm
	switch name {
	case "", "dijkstra", constrained.AlgoDijkstra:
		name, solve = constrained.AlgoDijkstra, constrained.Dijkstra
	case "dp", constrained.AlgoDP:
		name, solve = constrained.AlgoDP, constrained.DP
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, req.Algorithm)
	}
	objective := req.Objective
	switch objective {
	case "":
		objective = ObjectiveWeight
	case ObjectiveWeight, ObjectiveDelay:
	default:
		return nil, fmt.Errorf("%w: objective %q", ErrInvalidRequest, req.Objective)
	}
	if req.Bound > e.cfg.MaxBound {
		return nil, fmt.Errorf("%w: bound %d exceeds %d", ErrInvalidRequest, req.Bound, e.cfg.MaxBound)
	}
	if err := e.checkPair(req.Source, req.Target); err != nil {
		return nil, err
	}

	var out *ConstrainedResult
	err := observe(ctx, "routing.Constrained", name, req.Hooks, func(ctx context.Context, hooks sssp.Hooks) error {
		var extra []sssp.Option
		if objective == ObjectiveDelay {
			extra = append(extra, sssp.WithTarget(req.Target))
		}
		tbl, err := run(ctx, func() (*constrained.Table, error) {
			return solve(e.g, req.Source, req.Bound, e.options(hooks, extra...)...)
		})
		if err != nil {
			return err
		}

		var level int
		var ok bool
		if objective == ObjectiveDelay {
			level, ok = tbl.FirstFinite(req.Target)
		} else {
			_, level, ok = tbl.Best(req.Target)
		}
		if !ok {
			return noRoute(fmt.Errorf("%w: vertex %d within delay %d", constrained.ErrNoPath, req.Target, req.Bound))
		}
		path, err := tbl.Path(req.Target, level)
		if err != nil {
			return err
		}
		spent, err := tbl.SpentDelay(req.Target, level)
		if err != nil {
			return err
		}
		out = &ConstrainedResult{
			Algorithm: name,
			Objective: objective,
			Weight:    tbl.D[req.Target][level],
			Delay:     int64(spent),
			Path:      path,
		}
		return nil
	})
	return out, err
}

// Walks returns the req.K cheapest walks leaving req.Source.
func (e *Engine) Walks(ctx context.Context, req WalksRequest) ([]walks.Walk, error) {
	if req.K > e.cfg.MaxK {
		return nil, fmt.Errorf("%w: k %d exceeds %d", ErrInvalidRequest, req.K, e.cfg.MaxK)
	}

	var out []walks.Walk
	err := observe(ctx, "routing.Walks", walks.Algo, req.Hooks, func(ctx context.Context, hooks sssp.Hooks) error {
		var err error
		out, err = run(ctx, func() ([]walks.Walk, error) {
			return walks.KCheapest(e.g, req.Source, req.K, e.options(hooks)...)
		})
		return err
	})
	return out, err
}

// Nearest returns the vertex closest to p and its distance in meters.
func (e *Engine) Nearest(_ context.Context, p LatLng) (uint32, float64, error) {
	if e.snapper == nil {
		return 0, 0, ErrNoCoordinates
	}
	return e.snapper.Nearest(p.Lat, p.Lng)
}

func (e *Engine) checkPair(source, target uint32) error {
	if err := e.g.CheckVertex(source); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := e.g.CheckVertex(target); err != nil {
		return fmt.Errorf("target: %w", err)
	}
	return nil
}

func noRoute(err error) error {
	return fmt.Errorf("%w: %w", ErrNoRoute, err)
}

// observe runs fn inside a span, feeds solver phases into the span and the
// phase histogram, and records the solve outcome. extra receives the same
// phase notifications.
func observe(ctx context.Context, span, algorithm string, extra sssp.Hooks, fn func(context.Context, sssp.Hooks) error) error {
	ctx, s := telemetry.StartSpan(ctx, span, attribute.String("sssp.algorithm", algorithm))
	defer s.End()

	start := time.Now()
	err := fn(ctx, telemetry.SolveTrace(ctx).Chain(extra))
	telemetry.ObserveSolve(algorithm, resultLabel(err), time.Since(start))
	telemetry.RecordError(s, err)
	return err
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return telemetry.ResultOK
	case errors.Is(err, ErrNoRoute):
		return telemetry.ResultNoPath
	default:
		return telemetry.ResultError
	}
}

// run executes fn on its own goroutine and returns early when ctx is done.
// The solve keeps running to completion in the background.
func run[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-ch:
		return r.v, r.err
	}
}
