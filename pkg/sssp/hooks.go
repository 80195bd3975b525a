package sssp

import "time"

// Phase names a traced section of a solve.
type Phase string

const (
	// PhasePreprocess covers state allocation and input restructuring.
	PhasePreprocess Phase = "preprocess"
	// PhaseCompute covers the search itself.
	PhaseCompute Phase = "compute"
)

// Hooks receives opaque phase notifications from a solver. Either callback
// may be nil. Callbacks run on the solving goroutine and must not block.
type Hooks struct {
	OnPhaseStart func(algorithm string, phase Phase, at time.Time)
	OnPhaseEnd   func(algorithm string, phase Phase, at time.Time)
}

// Start notifies OnPhaseStart.
func (h Hooks) Start(algorithm string, phase Phase) {
	if h.OnPhaseStart != nil {
		h.OnPhaseStart(algorithm, phase, time.Now())
	}
}

// End notifies OnPhaseEnd.
func (h Hooks) End(algorithm string, phase Phase) {
	if h.OnPhaseEnd != nil {
		h.OnPhaseEnd(algorithm, phase, time.Now())
	}
}

// Chain returns Hooks that call h and then next.
func (h Hooks) Chain(next Hooks) Hooks {
	return Hooks{
		OnPhaseStart: func(algorithm string, phase Phase, at time.Time) {
			if h.OnPhaseStart != nil {
				h.OnPhaseStart(algorithm, phase, at)
			}
			if next.OnPhaseStart != nil {
				next.OnPhaseStart(algorithm, phase, at)
			}
		},
		OnPhaseEnd: func(algorithm string, phase Phase, at time.Time) {
			if h.OnPhaseEnd != nil {
				h.OnPhaseEnd(algorithm, phase, at)
			}
			if next.OnPhaseEnd != nil {
				next.OnPhaseEnd(algorithm, phase, at)
			}
		},
	}
}

// PhaseTimer accumulates per-phase wall time from hook notifications.
// It is not safe for concurrent solves.
type PhaseTimer struct {
	started map[Phase]time.Time
	Total   map[Phase]time.Duration
}

// NewPhaseTimer returns an empty PhaseTimer.
func NewPhaseTimer() *PhaseTimer {
	return &PhaseTimer{
		started: make(map[Phase]time.Time),
		Total:   make(map[Phase]time.Duration),
	}
}

// Hooks returns callbacks that feed the timer.
func (t *PhaseTimer) Hooks() Hooks {
	return Hooks{
		OnPhaseStart: func(_ string, phase Phase, at time.Time) {
			t.started[phase] = at
		},
		OnPhaseEnd: func(_ string, phase Phase, at time.Time) {
			if s, ok := t.started[phase]; ok {
				t.Total[phase] += at.Sub(s)
				delete(t.started, phase)
			}
		},
	}
}
