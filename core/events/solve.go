package events

import (
	"time"

	"github.com/marovik/fleetopt/core/model"
)

// SolveEvent is published when an exact fleet selection finishes.
type SolveEvent struct {
	RunID   string
	Fleet   model.Fleet
	Status  string
	Nodes   int
	Runtime time.Duration
}
