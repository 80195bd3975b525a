// Package config loads server and solver settings from an optional YAML
// file, then applies SSSP_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("config: invalid value")

// Config aggregates application configuration values.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Solver    SolverConfig    `yaml:"solver"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig governs the HTTP server.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	GraphPath       string        `yaml:"graph"`
	CORSOrigin      string        `yaml:"cors_origin"`
	MaxConcurrent   int           `yaml:"max_concurrent"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxSnapMeters   float64       `yaml:"max_snap_meters"`
}

// SolverConfig holds defaults for solves that do not name their own.
type SolverConfig struct {
	Algorithm string `yaml:"algorithm"`
	Delta     int64  `yaml:"delta"`
	Workers   int    `yaml:"workers"`
	Seed      uint64 `yaml:"seed"`
	MaxBound  int    `yaml:"max_bound"`
	MaxK      int    `yaml:"max_k"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"` // text|json
	AddSource bool   `yaml:"add_source"`
}

// TelemetryConfig controls tracing and metrics.
type TelemetryConfig struct {
	ServiceName   string `yaml:"service_name"`
	TraceExporter string `yaml:"trace_exporter"` // none|stdout
	Metrics       bool   `yaml:"metrics"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			GraphPath:       "graph.bin",
			MaxConcurrent:   runtime.NumCPU() * 2,
			RequestTimeout:  5 * time.Second,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxSnapMeters:   500,
		},
		Solver: SolverConfig{
			Algorithm: "dijkstra",
			Delta:     1,
			Workers:   runtime.GOMAXPROCS(0),
			MaxBound:  10_000,
			MaxK:      1_000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			ServiceName:   "delaypath",
			TraceExporter: "none",
			Metrics:       true,
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path (skipped when
// path is empty or the file does not exist) and then the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString("SSSP_ADDR", &cfg.Server.Addr)
	setString("SSSP_GRAPH", &cfg.Server.GraphPath)
	setString("SSSP_CORS_ORIGIN", &cfg.Server.CORSOrigin)
	setString("SSSP_ALGORITHM", &cfg.Solver.Algorithm)
	setString("SSSP_LOG_LEVEL", &cfg.Logging.Level)
	setString("SSSP_LOG_FORMAT", &cfg.Logging.Format)
	setString("SSSP_TRACE_EXPORTER", &cfg.Telemetry.TraceExporter)

	if err := setInt("SSSP_MAX_CONCURRENT", &cfg.Server.MaxConcurrent); err != nil {
		return err
	}
	if err := setInt("SSSP_WORKERS", &cfg.Solver.Workers); err != nil {
		return err
	}
	if err := setInt("SSSP_MAX_BOUND", &cfg.Solver.MaxBound); err != nil {
		return err
	}
	if err := setInt("SSSP_MAX_K", &cfg.Solver.MaxK); err != nil {
		return err
	}
	if v := os.Getenv("SSSP_DELTA"); v != "" {
		d, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid SSSP_DELTA %q: %w", v, err)
		}
		cfg.Solver.Delta = d
	}
	if v := os.Getenv("SSSP_SEED"); v != "" {
		s, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid SSSP_SEED %q: %w", v, err)
		}
		cfg.Solver.Seed = s
	}
	if v := os.Getenv("SSSP_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SSSP_REQUEST_TIMEOUT %q: %w", v, err)
		}
		cfg.Server.RequestTimeout = d
	}
	if v := os.Getenv("SSSP_METRICS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SSSP_METRICS %q: %w", v, err)
		}
		cfg.Telemetry.Metrics = b
	}
	return nil
}

func setString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(key string, dst *int) error {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*dst = n
	}
	return nil
}

// Validate reports the first out-of-range setting.
func (c Config) Validate() error {
	switch {
	case c.Server.Addr == "":
		return fmt.Errorf("%w: server.addr is empty", ErrInvalidConfig)
	case c.Server.MaxConcurrent < 1:
		return fmt.Errorf("%w: server.max_concurrent must be >= 1", ErrInvalidConfig)
	case c.Server.RequestTimeout <= 0:
		return fmt.Errorf("%w: server.request_timeout must be positive", ErrInvalidConfig)
	case c.Server.MaxSnapMeters <= 0:
		return fmt.Errorf("%w: server.max_snap_meters must be positive", ErrInvalidConfig)
	case c.Solver.Delta <= 0:
		return fmt.Errorf("%w: solver.delta must be positive", ErrInvalidConfig)
	case c.Solver.Workers < 1:
		return fmt.Errorf("%w: solver.workers must be >= 1", ErrInvalidConfig)
	case c.Solver.MaxBound < 0:
		return fmt.Errorf("%w: solver.max_bound is negative", ErrInvalidConfig)
	case c.Solver.MaxK < 1:
		return fmt.Errorf("%w: solver.max_k must be >= 1", ErrInvalidConfig)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: logging.format %q", ErrInvalidConfig, c.Logging.Format)
	}
	switch c.Telemetry.TraceExporter {
	case "none", "stdout":
	default:
		return fmt.Errorf("%w: telemetry.trace_exporter %q", ErrInvalidConfig, c.Telemetry.TraceExporter)
	}
	return nil
}
