// Command solve runs one shortest path query against a graph file and
// prints the path with per-phase timings.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/azybler/delaypath/pkg/config"
	"github.com/azybler/delaypath/pkg/graph"
	"github.com/azybler/delaypath/pkg/routing"
	"github.com/azybler/delaypath/pkg/sssp"
	"github.com/azybler/delaypath/pkg/telemetry"
	"github.com/azybler/delaypath/pkg/walks"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	graphPath  string
	source     uint32
	repeat     int
	workers    int
	seed       uint64
	trace      bool
}

// session is the loaded state a subcommand works against.
type session struct {
	engine   *routing.Engine
	bound    int64
	log      *slog.Logger
	shutdown func(context.Context) error
}

func newRootCmd() *cobra.Command {
	f := &globalFlags{}
	root := &cobra.Command{
		Use:   "solve",
		Short: "Run shortest path queries on a weighted, delayed graph",
		Long: `Loads a graph (text "n m b" + "u v w z" lines, or a preprocessed binary)
and runs one query, repeated --repeat times for timing.

Examples:
  solve sssp --graph g.txt --source 1 --target 4 --algorithm delta-stepping --delta 2
  solve constrained --graph g.txt --source 1 --target 4 --bound 2
  solve walks --graph g.txt --source 1 --k 5`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "YAML config file")
	pf.StringVar(&f.graphPath, "graph", "", "graph file (text or binary)")
	pf.Uint32Var(&f.source, "source", 1, "source vertex")
	pf.IntVar(&f.repeat, "repeat", 1, "number of timed runs")
	pf.IntVar(&f.workers, "workers", 0, "parallel workers (0: from config)")
	pf.Uint64Var(&f.seed, "seed", 0, "seed for randomized algorithms (0: from config)")
	pf.BoolVar(&f.trace, "trace", false, "print solve spans to stderr")
	_ = root.MarkPersistentFlagRequired("graph")

	root.AddCommand(newSSSPCmd(f), newConstrainedCmd(f), newWalksCmd(f))
	return root
}

func (f *globalFlags) open(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.workers > 0 {
		cfg.Solver.Workers = f.workers
	}
	if f.seed != 0 {
		cfg.Solver.Seed = f.seed
	}
	if f.trace {
		cfg.Telemetry.TraceExporter = "stdout"
	}

	log := telemetry.NewLogger(cfg.Logging, cmd.ErrOrStderr())

	start := time.Now()
	g, bound, err := graph.Load(f.graphPath)
	if err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}
	log.Info("graph loaded",
		"path", f.graphPath,
		"nodes", g.NumNodes,
		"edges", g.NumEdges,
		"bound", bound,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	// No error path follows Setup; session.close shuts the provider down.
	shutdown, err := telemetry.Setup(cfg.Telemetry, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	return &session{
		engine:   routing.NewEngine(g, cfg.Solver, cfg.Server.MaxSnapMeters),
		bound:    bound,
		log:      log,
		shutdown: shutdown,
	}, nil
}

func (s *session) close() {
	if err := s.shutdown(context.Background()); err != nil {
		s.log.Warn("telemetry shutdown", "err", err)
	}
}

func newSSSPCmd(f *globalFlags) *cobra.Command {
	var (
		target    uint32
		algorithm string
		delta     int64
	)
	cmd := &cobra.Command{
		Use:   "sssp",
		Short: "Unconstrained shortest path",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := f.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			var res *routing.PathResult
			timing, err := routing.Benchmark(cmd.Context(), f.repeat, func(ctx context.Context, hooks sssp.Hooks) error {
				res, err = s.engine.ShortestPath(ctx, routing.PathRequest{
					Source: f.source, Target: target, Algorithm: algorithm, Delta: delta, Hooks: hooks,
				})
				return err
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Algorithm: %s\n", res.Algorithm)
			printPath(out, res.Path)
			fmt.Fprintf(out, "Length: %d\nDelay: %d\n", res.Distance, res.Delay)
			printTiming(out, timing)
			return nil
		},
	}
	cmd.Flags().Uint32Var(&target, "target", 0, "target vertex")
	cmd.Flags().StringVar(&algorithm, "algorithm", "", "one of "+strings.Join(routing.Algorithms(), ", "))
	cmd.Flags().Int64Var(&delta, "delta", 0, "bucket width for delta-stepping (0: from config)")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func newConstrainedCmd(f *globalFlags) *cobra.Command {
	var (
		target    uint32
		bound     int
		algorithm string
		objective string
	)
	cmd := &cobra.Command{
		Use:   "constrained",
		Short: "Cheapest path whose total delay stays within a bound",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := f.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			if !cmd.Flags().Changed("bound") {
				bound = int(s.bound)
			}

			var res *routing.ConstrainedResult
			timing, err := routing.Benchmark(cmd.Context(), f.repeat, func(ctx context.Context, hooks sssp.Hooks) error {
				res, err = s.engine.Constrained(ctx, routing.ConstrainedRequest{
					Source:    f.source,
					Target:    target,
					Bound:     bound,
					Algorithm: algorithm,
					Objective: routing.Objective(objective),
					Hooks:     hooks,
				})
				return err
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Algorithm: %s\nBound: %d\n", res.Algorithm, bound)
			printPath(out, res.Path)
			fmt.Fprintf(out, "Length: %d\nDelay: %d\n", res.Weight, res.Delay)
			printTiming(out, timing)
			return nil
		},
	}
	cmd.Flags().Uint32Var(&target, "target", 0, "target vertex")
	cmd.Flags().IntVar(&bound, "bound", 0, "delay bound (default: b from the graph file)")
	cmd.Flags().StringVar(&algorithm, "algorithm", "dijkstra", "dijkstra or dp")
	cmd.Flags().StringVar(&objective, "objective", string(routing.ObjectiveWeight), "weight or delay")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func newWalksCmd(f *globalFlags) *cobra.Command {
	var k int
	cmd := &cobra.Command{
		Use:   "walks",
		Short: "The k cheapest walks leaving the source",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := f.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			var res []walks.Walk
			timing, err := routing.Benchmark(cmd.Context(), f.repeat, func(ctx context.Context, hooks sssp.Hooks) error {
				res, err = s.engine.Walks(ctx, routing.WalksRequest{Source: f.source, K: k, Hooks: hooks})
				return err
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, w := range res {
				printPath(out, w.Vertices)
				fmt.Fprintf(out, "Length: %d\n\n", w.Weight)
			}
			printTiming(out, timing)
			return nil
		},
	}
	cmd.Flags().IntVar(&k, "k", 1, "number of walks")
	return cmd
}

func printPath(w io.Writer, path []uint32) {
	parts := make([]string, len(path))
	for i, v := range path {
		parts[i] = strconv.FormatUint(uint64(v), 10)
	}
	fmt.Fprintf(w, "Path: %s\n", strings.Join(parts, " "))
}

func printTiming(w io.Writer, t routing.Timing) {
	fmt.Fprintf(w, "Runs: %d\nPreprocess: %s\nComputation: %s\nAverage time: %s\n",
		t.Runs, t.Preprocess, t.Compute, t.Total())
}
