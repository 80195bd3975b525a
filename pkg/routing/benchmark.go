package routing

import (
	"context"
	"fmt"
	"time"

	"github.com/azybler/delaypath/pkg/sssp"
)

// Timing is the mean wall time per phase over repeated solves.
type Timing struct {
	Runs       int
	Preprocess time.Duration
	Compute    time.Duration
}

// Total returns the mean time of one solve.
func (t Timing) Total() time.Duration {
	return t.Preprocess + t.Compute
}

// Benchmark calls solve repeat times, passing hooks that time the solver
// phases, and returns the mean phase durations. It stops at the first error.
func Benchmark(ctx context.Context, repeat int, solve func(ctx context.Context, hooks sssp.Hooks) error) (Timing, error) {
	if repeat < 1 {
		return Timing{}, fmt.Errorf("%w: repeat %d", ErrInvalidRequest, repeat)
	}

	timer := sssp.NewPhaseTimer()
	for i := range repeat {
		if err := ctx.Err(); err != nil {
			return Timing{}, err
		}
		if err := solve(ctx, timer.Hooks()); err != nil {
			return Timing{}, fmt.Errorf("run %d: %w", i+1, err)
		}
	}

	n := time.Duration(repeat)
	return Timing{
		Runs:       repeat,
		Preprocess: timer.Total[sssp.PhasePreprocess] / n,
		Compute:    timer.Total[sssp.PhaseCompute] / n,
	}, nil
}
