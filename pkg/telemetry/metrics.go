package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Solve outcomes used as the result label.
const (
	ResultOK     = "ok"
	ResultNoPath = "no_path"
	ResultError  = "error"
)

var (
	// solvesTotal counts solves by algorithm and outcome.
	solvesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sssp",
		Name:      "solves_total",
		Help:      "Total solves by algorithm and result",
	}, []string{"algorithm", "result"})

	// solveDuration measures end-to-end solve latency.
	solveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sssp",
		Name:      "solve_duration_seconds",
		Help:      "Solve latency in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"algorithm"})

	// phaseDuration measures preprocess and compute phases reported by solver hooks.
	phaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sssp",
		Name:      "phase_duration_seconds",
		Help:      "Solver phase latency in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 10),
	}, []string{"algorithm", "phase"})
)

// ObserveSolve records one finished solve.
func ObserveSolve(algorithm, result string, elapsed time.Duration) {
	solvesTotal.WithLabelValues(algorithm, result).Inc()
	solveDuration.WithLabelValues(algorithm).Observe(elapsed.Seconds())
}

func observePhase(algorithm, phase string, elapsed time.Duration) {
	phaseDuration.WithLabelValues(algorithm, phase).Observe(elapsed.Seconds())
}
