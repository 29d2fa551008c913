package events

import "time"

// ChainProgress reports iteration progress inside one sampling chain.
type ChainProgress struct {
	RunID string
	Chain int
	Done  int
	Total int
}

// AttributionEvent is published when cost attribution sampling completes.
type AttributionEvent struct {
	RunID     string
	Samples   int
	Converged bool
	Runtime   time.Duration
}

// RobustnessEvent is published when the composition walk completes.
type RobustnessEvent struct {
	RunID          string
	Iterations     int
	Chains         int
	AcceptanceRate float64
	Converged      bool
	Runtime        time.Duration
}
