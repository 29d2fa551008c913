package events

import "time"

// SweepProgress reports finished points inside a threshold, permutation or
// price sweep.
type SweepProgress struct {
	RunID     string
	Component string
	Done      int
	Total     int
}

// FrontierEvent is published when the safety floor sweep completes.
type FrontierEvent struct {
	RunID   string
	Points  int
	Skipped int
	Runtime time.Duration
}

// SensitivityEvent is published when the carbon price sweep completes.
type SensitivityEvent struct {
	RunID         string
	CurvePoints   int
	Cells         int
	FeasibleCells int
	Runtime       time.Duration
}
