package metrics

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSolve forwards the record to all sinks, returning the first error encountered.
func (m *MultiSink) RecordSolve(rec SolveRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordSolve(rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordFrontier forwards frontier points when supported by the sink.
func (m *MultiSink) RecordFrontier(points []FrontierPoint) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(FrontierRecorder); ok {
			if err := rec.RecordFrontier(points); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordShapley forwards cost attributions when supported by the sink.
func (m *MultiSink) RecordShapley(rows []ShapleyValue) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ShapleyRecorder); ok {
			if err := rec.RecordShapley(rows); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordRobustness forwards selection frequencies when supported by the sink.
func (m *MultiSink) RecordRobustness(rows []SelectionFrequency) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(RobustnessRecorder); ok {
			if err := rec.RecordRobustness(rows); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordSensitivity forwards grid cells when supported by the sink.
func (m *MultiSink) RecordSensitivity(cells []SensitivityCell) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(SensitivityRecorder); ok {
			if err := rec.RecordSensitivity(cells); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordStage forwards stage transitions when supported by the sink.
func (m *MultiSink) RecordStage(rec StageRecord) error {
	for _, s := range m.Sinks {
		if sr, ok := s.(StageRecorder); ok {
			if err := sr.RecordStage(rec); err != nil {
				return err
			}
		}
	}
	return nil
}
