package events

import "time"

// StageEvent is emitted when an analysis stage starts, finishes or fails.
// Action can be "start", "done", or "failed".
type StageEvent struct {
	RunID   string
	Stage   string
	Action  string
	Err     error
	Runtime time.Duration
}
