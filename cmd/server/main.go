// Command server serves shortest path queries over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/azybler/delaypath/pkg/api"
	"github.com/azybler/delaypath/pkg/config"
	"github.com/azybler/delaypath/pkg/graph"
	"github.com/azybler/delaypath/pkg/routing"
	"github.com/azybler/delaypath/pkg/telemetry"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		graphPath  string
		addr       string
		corsOrigin string
	)
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Serve shortest path queries over HTTP",
		Long: `Loads a graph and serves:
  POST /api/v1/path         unconstrained shortest path
  POST /api/v1/constrained  cheapest path within a delay bound
  POST /api/v1/walks        k cheapest walks
  GET  /api/v1/health, /api/v1/stats, /metrics

Settings come from --config, then SSSP_* environment variables, then flags.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("graph") {
				cfg.Server.GraphPath = graphPath
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("cors-origin") {
				cfg.Server.CORSOrigin = corsOrigin
			}
			return serve(cmd.Context(), cfg, cmd)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file")
	cmd.Flags().StringVar(&graphPath, "graph", "", "graph file (overrides server.graph_path)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().StringVar(&corsOrigin, "cors-origin", "", "CORS allowed origin (empty = same-origin)")
	return cmd
}

func serve(ctx context.Context, cfg config.Config, cmd *cobra.Command) error {
	log := telemetry.NewLogger(cfg.Logging, cmd.ErrOrStderr())

	shutdown, err := telemetry.Setup(cfg.Telemetry, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Warn("telemetry shutdown", "err", err)
		}
	}()

	start := time.Now()
	log.Info("loading graph", "path", cfg.Server.GraphPath)
	g, bound, err := graph.Load(cfg.Server.GraphPath)
	if err != nil {
		log.Error("failed to load graph", "err", err)
		return fmt.Errorf("load graph: %w", err)
	}
	log.Info("graph loaded", "nodes", g.NumNodes, "edges", g.NumEdges, "bound", bound, "coords", g.HasCoords())

	engine := routing.NewEngine(g, cfg.Solver, cfg.Server.MaxSnapMeters)
	log.Info("ready", "elapsed", time.Since(start).Round(time.Millisecond))

	stats := api.StatsResponse{
		NumNodes:   g.NumNodes,
		NumEdges:   g.NumEdges,
		Bound:      bound,
		HasCoords:  g.HasCoords(),
		Algorithms: routing.Algorithms(),
	}
	srv := api.NewServer(cfg.Server, api.NewHandlers(engine, stats), log, cfg.Telemetry.Metrics)

	if err := api.ListenAndServe(ctx, srv, cfg.Server.ShutdownTimeout, log); err != nil {
		log.Error("server stopped", "err", err)
		return err
	}
	return nil
}
