package metrics

import (
	"time"
)

// SolveRecord represents a finished exact fleet selection to be recorded.
type SolveRecord struct {
	RunID     string
	Status    string
	TotalCost float64
	TotalDWT  float64
	AvgSafety float64
	FleetSize int
	Nodes     int
	Runtime   time.Duration
	Time      time.Time
}

// MetricsSink records solve results for observability purposes.
type MetricsSink interface {
	RecordSolve(rec SolveRecord) error
}

// FrontierPoint is one solved point of the safety floor sweep.
type FrontierPoint struct {
	RunID       string
	SafetyFloor float64
	TotalCost   float64
	FleetSize   int
	ShadowPrice float64
	HasShadow   bool
	Time        time.Time
}

// FrontierRecorder records swept frontier points.
type FrontierRecorder interface {
	RecordFrontier(points []FrontierPoint) error
}

// ShapleyValue is the sampled cost attribution of one vessel.
type ShapleyValue struct {
	RunID    string
	VesselID string
	Value    float64
	StdErr   float64
	Rank     int
	Category string
	Time     time.Time
}

// ShapleyRecorder records cost attributions.
type ShapleyRecorder interface {
	RecordShapley(rows []ShapleyValue) error
}

// SelectionFrequency is one vessel's appearance rate in the composition walk.
type SelectionFrequency struct {
	RunID     string
	VesselID  string
	Frequency float64
	Category  string
	Time      time.Time
}

// RobustnessRecorder records selection frequencies.
type RobustnessRecorder interface {
	RecordRobustness(rows []SelectionFrequency) error
}

// SensitivityCell is one carbon price and safety floor grid cell.
type SensitivityCell struct {
	RunID           string
	CarbonPrice     float64
	SafetyThreshold float64
	TotalCost       float64
	Feasible        bool
	Time            time.Time
}

// SensitivityRecorder records sensitivity grid cells.
type SensitivityRecorder interface {
	RecordSensitivity(cells []SensitivityCell) error
}

// StageRecord captures an analysis stage transition.
type StageRecord struct {
	RunID   string
	Stage   string
	Action  string
	Error   string
	Runtime time.Duration
	Time    time.Time
}

// StageRecorder records stage transitions.
type StageRecorder interface {
	RecordStage(rec StageRecord) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordSolve(SolveRecord) error { return nil }

func (NopSink) RecordFrontier([]FrontierPoint) error        { return nil }
func (NopSink) RecordShapley([]ShapleyValue) error          { return nil }
func (NopSink) RecordRobustness([]SelectionFrequency) error { return nil }
func (NopSink) RecordSensitivity([]SensitivityCell) error   { return nil }
func (NopSink) RecordStage(StageRecord) error               { return nil }
