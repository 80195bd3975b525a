// Command preprocess converts an OSM extract into a graph file whose edges
// are weighted by length in millimeters and delayed by travel seconds.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/azybler/delaypath/pkg/config"
	"github.com/azybler/delaypath/pkg/graph"
	osmparser "github.com/azybler/delaypath/pkg/osm"
	"github.com/azybler/delaypath/pkg/telemetry"
)

var (
	singaporeBBox = osmparser.BBox{MinLat: 1.15, MaxLat: 1.48, MinLng: 103.6, MaxLng: 104.1}
	klBBox        = osmparser.BBox{MinLat: 2.75, MaxLat: 3.5, MinLng: 101.2, MaxLng: 102.0}
)

type options struct {
	input     string
	output    string
	format    string
	bbox      string
	singapore bool
	kl        bool
	bound     int64
	logLevel  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:   "preprocess",
		Short: "Build a delay-annotated graph from an .osm.pbf file",
		Long: `Parses car-accessible ways, keeps the largest weakly connected component
and writes it in the binary or text graph format.

Examples:
  preprocess --input singapore.osm.pbf --singapore --output graph.bin
  preprocess --input extract.osm.pbf --bbox 1.15,103.6,1.48,104.1 --format text --bound 600`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), o, telemetry.NewLogger(config.LoggingConfig{Level: o.logLevel, Format: "text"}, cmd.ErrOrStderr()))
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.input, "input", "", "path to .osm.pbf file")
	f.StringVar(&o.output, "output", "graph.bin", "output graph file")
	f.StringVar(&o.format, "format", "bin", "output format: bin or text")
	f.StringVar(&o.bbox, "bbox", "", "bounding box filter: minLat,minLng,maxLat,maxLng")
	f.BoolVar(&o.singapore, "singapore", false, "shortcut for the Singapore bounding box")
	f.BoolVar(&o.kl, "kl", false, "shortcut for the Selangor + Kuala Lumpur bounding box")
	f.Int64Var(&o.bound, "bound", 900, "delay bound b stored in the output, in seconds")
	f.StringVar(&o.logLevel, "log-level", "info", "debug, info, warn or error")
	_ = cmd.MarkFlagRequired("input")
	cmd.MarkFlagsMutuallyExclusive("bbox", "singapore", "kl")
	return cmd
}

func (o *options) parseOptions(log *slog.Logger) (osmparser.ParseOptions, error) {
	opts := osmparser.ParseOptions{Logger: log}
	switch {
	case o.kl:
		opts.BBox = klBBox
	case o.singapore:
		opts.BBox = singaporeBBox
	case o.bbox != "":
		var b osmparser.BBox
		if _, err := fmt.Sscanf(o.bbox, "%f,%f,%f,%f", &b.MinLat, &b.MinLng, &b.MaxLat, &b.MaxLng); err != nil {
			return opts, fmt.Errorf("invalid bbox %q (expected minLat,minLng,maxLat,maxLng): %w", o.bbox, err)
		}
		opts.BBox = b
	}
	if !opts.BBox.IsZero() {
		log.Info("bounding box filter",
			"min_lat", opts.BBox.MinLat, "max_lat", opts.BBox.MaxLat,
			"min_lng", opts.BBox.MinLng, "max_lng", opts.BBox.MaxLng)
	}
	return opts, nil
}

func run(ctx context.Context, o *options, log *slog.Logger) error {
	if o.format != "bin" && o.format != "text" {
		return fmt.Errorf("unknown format %q", o.format)
	}
	if o.bound < 0 {
		return fmt.Errorf("bound must be non-negative, got %d", o.bound)
	}
	opts, err := o.parseOptions(log)
	if err != nil {
		return err
	}

	start := time.Now()

	f, err := os.Open(o.input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	log.Info("parsing OSM data", "input", o.input)
	parsed, err := osmparser.Parse(ctx, f, opts)
	if err != nil {
		return fmt.Errorf("parse OSM: %w", err)
	}
	log.Info("parsed", "edges", len(parsed.Edges), "nodes", len(parsed.NodeLat))

	g, err := graph.BuildFromOSM(parsed)
	if err != nil {
		return fmt.Errorf("build graph: %w", err)
	}
	log.Info("graph built", "nodes", g.NumNodes, "edges", g.NumEdges)

	component := graph.LargestComponent(g)
	if g.NumNodes > 0 {
		log.Info("largest component",
			"nodes", len(component),
			"percent", fmt.Sprintf("%.1f", float64(len(component))/float64(g.NumNodes)*100))
	}
	g = graph.FilterToComponent(g, component)

	if err := write(o, g); err != nil {
		return err
	}

	attrs := []any{"output", o.output, "nodes", g.NumNodes, "edges", g.NumEdges, "elapsed", time.Since(start).Round(time.Millisecond)}
	if info, err := os.Stat(o.output); err == nil {
		attrs = append(attrs, "mb", fmt.Sprintf("%.1f", float64(info.Size())/(1024*1024)))
	}
	log.Info("done", attrs...)
	return nil
}

func write(o *options, g *graph.Graph) error {
	if o.format == "bin" {
		if err := graph.WriteBinary(o.output, g, o.bound); err != nil {
			return fmt.Errorf("write binary: %w", err)
		}
		return nil
	}

	out, err := os.Create(o.output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := graph.WriteText(out, g, o.bound); err != nil {
		out.Close()
		return fmt.Errorf("write text: %w", err)
	}
	return out.Close()
}
