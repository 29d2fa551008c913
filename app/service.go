// Package app wires the analysis pipeline: catalog, solver, the four
// analysis stages, metric sinks and result artifacts.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/marovik/fleetopt/catalog"
	"github.com/marovik/fleetopt/config"
	"github.com/marovik/fleetopt/core/costmodel"
	"github.com/marovik/fleetopt/core/events"
	coremetrics "github.com/marovik/fleetopt/core/metrics"
	"github.com/marovik/fleetopt/core/model"
	"github.com/marovik/fleetopt/core/pareto"
	"github.com/marovik/fleetopt/core/robustness"
	"github.com/marovik/fleetopt/core/sensitivity"
	"github.com/marovik/fleetopt/core/shapley"
	"github.com/marovik/fleetopt/core/solver"
	"github.com/marovik/fleetopt/infra/logger"
	"github.com/marovik/fleetopt/infra/metrics"
	"github.com/marovik/fleetopt/internal/eventbus"
	"github.com/marovik/fleetopt/pkg/export"
)

// Service orchestrates one full analysis run.
type Service struct {
	cfg   *config.Config
	log   logger.Logger
	sink  coremetrics.MetricsSink
	bus   *eventbus.Bus
	runID string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	return &Service{
		cfg:   cfg,
		log:   logger.New("service"),
		sink:  sink,
		bus:   eventbus.New(),
		runID: uuid.NewString(),
	}, nil
}

// RunID identifies this run in artifacts and metrics.
func (s *Service) RunID() string { return s.runID }

// Run executes the pipeline: exact selection, then the frontier, attribution,
// robustness and sensitivity stages. Analysis stages are isolated: a failing
// stage is recorded and the remaining stages still run. The returned error
// joins whatever failed.
func (s *Service) Run(ctx context.Context) error {
	if port := s.cfg.Metrics.PrometheusPort; port > 0 {
		go func() {
			if err := metrics.StartPromServer(ctx, port); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	metrics.StartEventCollector(ctx, s.bus, s.sink)

	vessels, err := catalog.LoadFile(s.cfg.Catalog.Path)
	if err != nil {
		return err
	}
	base := s.cfg.Constraints.ToModel()
	// Reprice so the objective matches the configured baseline carbon price
	// even when the catalog was aggregated under a different one.
	vessels = costmodel.Reprice(vessels, base.CarbonPriceUSD)
	s.log.Infof("run %s: %d vessels, demand %.0f t", s.runID, len(vessels), base.MinDWT)

	if err := os.MkdirAll(s.cfg.Output.Dir, 0o755); err != nil {
		return fmt.Errorf("output dir: %w", err)
	}

	sol := solver.New(s.cfg.Solver.Options(), logger.New("solver"))

	var failed []error
	fail := func(stage string, err error) {
		failed = append(failed, fmt.Errorf("%s: %w", stage, err))
	}

	var baseline solver.Result
	err = s.stage("solve", func() error {
		start := time.Now()
		res, err := sol.Solve(ctx, vessels, base)
		if err != nil {
			return err
		}
		baseline = res
		s.bus.Publish(events.SolveEvent{
			RunID:   s.runID,
			Fleet:   res.Fleet,
			Status:  res.Status.String(),
			Nodes:   res.Nodes,
			Runtime: time.Since(start),
		})
		if err := s.writeArtifact("fleet_result.json", func(w io.Writer) error {
			return export.WriteFleetJSON(w, s.runID, res)
		}); err != nil {
			return err
		}
		return s.writeArtifact("submission.csv", func(w io.Writer) error {
			return export.WriteSubmissionCSV(w, res.Fleet)
		})
	})
	if err != nil {
		fail("solve", err)
	}

	if err := s.stage("pareto", func() error {
		return s.runPareto(ctx, sol, vessels, base)
	}); err != nil {
		fail("pareto", err)
	}

	// Attribution and robustness both characterize the baseline optimum, so
	// they are skipped when no baseline fleet exists.
	if baseline.Fleet.Size > 0 {
		if err := s.stage("shapley", func() error {
			return s.runShapley(ctx, baseline.Fleet, vessels, base)
		}); err != nil {
			fail("shapley", err)
		}
		if err := s.stage("robustness", func() error {
			return s.runRobustness(ctx, baseline.Fleet, vessels, base)
		}); err != nil {
			fail("robustness", err)
		}
	} else {
		s.log.Warnf("no baseline fleet, skipping attribution and robustness")
	}

	if err := s.stage("sensitivity", func() error {
		return s.runSensitivity(ctx, sol, vessels, base)
	}); err != nil {
		fail("sensitivity", err)
	}

	if len(failed) > 0 {
		return errors.Join(failed...)
	}
	s.log.Infof("run %s complete, artifacts in %s", s.runID, s.cfg.Output.Dir)
	return nil
}

// sweepProgress publishes per-point progress for one sweep component.
func (s *Service) sweepProgress(component string) func(done, total int) {
	return func(done, total int) {
		s.bus.Publish(events.SweepProgress{
			RunID: s.runID, Component: component, Done: done, Total: total,
		})
	}
}

func (s *Service) runPareto(ctx context.Context, sol *solver.Solver, vessels []model.Vessel, base model.ConstraintConfig) error {
	opts := s.cfg.Pareto.Options()
	opts.Progress = s.sweepProgress("pareto")
	tracer, err := pareto.New(sol, opts, logger.New("pareto"))
	if err != nil {
		return err
	}
	frontier, err := tracer.Trace(ctx, vessels, base)
	if err != nil {
		return err
	}
	if bad := frontier.CheckMonotonic(1e-6); len(bad) > 0 {
		s.log.Errorf("frontier cost decreased at %d points, suspect solver defect", len(bad))
	}
	s.bus.Publish(events.FrontierEvent{
		RunID:   s.runID,
		Points:  len(frontier.Points),
		Skipped: len(frontier.Skipped),
		Runtime: frontier.Runtime,
	})
	if rec, ok := s.sink.(coremetrics.FrontierRecorder); ok {
		rows := make([]coremetrics.FrontierPoint, len(frontier.Points))
		for i, p := range frontier.Points {
			rows[i] = coremetrics.FrontierPoint{
				RunID:       s.runID,
				SafetyFloor: p.Threshold,
				TotalCost:   p.Cost,
				FleetSize:   p.Fleet.Size,
				Time:        time.Now(),
			}
			if p.ShadowPrice != nil {
				rows[i].ShadowPrice = *p.ShadowPrice
				rows[i].HasShadow = true
			}
		}
		if err := rec.RecordFrontier(rows); err != nil {
			s.log.Warnf("record frontier: %v", err)
		}
	}
	return s.writeArtifact("pareto_frontier.json", func(w io.Writer) error {
		return export.WriteFrontierJSON(w, s.runID, frontier)
	})
}

func (s *Service) runShapley(ctx context.Context, fleet model.Fleet, vessels []model.Vessel, base model.ConstraintConfig) error {
	opts := s.cfg.Shapley.Options()
	opts.Progress = s.sweepProgress("shapley")
	est := shapley.New(opts, logger.New("shapley"))
	rep, err := est.Estimate(ctx, fleet, vessels, base)
	if err != nil {
		return err
	}
	s.bus.Publish(events.AttributionEvent{
		RunID:     s.runID,
		Samples:   rep.Samples,
		Converged: rep.Converged,
		Runtime:   rep.Runtime,
	})
	if rec, ok := s.sink.(coremetrics.ShapleyRecorder); ok {
		rows := make([]coremetrics.ShapleyValue, len(rep.Attributions))
		for i, a := range rep.Attributions {
			rows[i] = coremetrics.ShapleyValue{
				RunID:    s.runID,
				VesselID: a.VesselID,
				Value:    a.Value,
				StdErr:   a.StdErr,
				Rank:     a.Rank,
				Category: a.Category,
				Time:     time.Now(),
			}
		}
		if err := rec.RecordShapley(rows); err != nil {
			s.log.Warnf("record shapley: %v", err)
		}
	}
	return s.writeArtifact("shapley_values.json", func(w io.Writer) error {
		return export.WriteShapleyJSON(w, s.runID, rep)
	})
}

func (s *Service) runRobustness(ctx context.Context, fleet model.Fleet, vessels []model.Vessel, base model.ConstraintConfig) error {
	opts := s.cfg.Robustness.Options()
	opts.Progress = func(chain, done, total int) {
		s.bus.Publish(events.ChainProgress{
			RunID: s.runID, Chain: chain, Done: done, Total: total,
		})
	}
	smp := robustness.New(opts, logger.New("robustness"))
	rep, err := smp.Sample(ctx, fleet, vessels, base)
	if err != nil {
		return err
	}
	s.bus.Publish(events.RobustnessEvent{
		RunID:          s.runID,
		Iterations:     rep.Iterations,
		Chains:         rep.Chains,
		AcceptanceRate: rep.AcceptanceRate,
		Converged:      rep.Converged,
		Runtime:        rep.Runtime,
	})
	if rec, ok := s.sink.(coremetrics.RobustnessRecorder); ok {
		rows := make([]coremetrics.SelectionFrequency, len(rep.Frequencies))
		for i, f := range rep.Frequencies {
			rows[i] = coremetrics.SelectionFrequency{
				RunID:     s.runID,
				VesselID:  f.VesselID,
				Frequency: f.Frequency,
				Category:  f.Category,
				Time:      time.Now(),
			}
		}
		if err := rec.RecordRobustness(rows); err != nil {
			s.log.Warnf("record robustness: %v", err)
		}
	}
	return s.writeArtifact("robustness.json", func(w io.Writer) error {
		return export.WriteRobustnessJSON(w, s.runID, rep)
	})
}

func (s *Service) runSensitivity(ctx context.Context, sol *solver.Solver, vessels []model.Vessel, base model.ConstraintConfig) error {
	opts := s.cfg.Sensitivity.Options()
	opts.Progress = s.sweepProgress("sensitivity")
	an, err := sensitivity.New(sol, opts, logger.New("sensitivity"))
	if err != nil {
		return err
	}
	curve, err := an.Curve(ctx, vessels, base)
	if err != nil {
		return err
	}
	grid, err := an.Heatmap(ctx, vessels, base)
	if err != nil {
		return err
	}
	feasible := 0
	for _, c := range grid.Cells {
		if c.Feasible {
			feasible++
		}
	}
	s.bus.Publish(events.SensitivityEvent{
		RunID:         s.runID,
		CurvePoints:   len(curve),
		Cells:         len(grid.Cells),
		FeasibleCells: feasible,
		Runtime:       grid.Runtime,
	})
	if rec, ok := s.sink.(coremetrics.SensitivityRecorder); ok {
		rows := make([]coremetrics.SensitivityCell, len(grid.Cells))
		for i, c := range grid.Cells {
			rows[i] = coremetrics.SensitivityCell{
				RunID:           s.runID,
				CarbonPrice:     c.CarbonPrice,
				SafetyThreshold: c.SafetyThreshold,
				TotalCost:       c.TotalCost,
				Feasible:        c.Feasible,
				Time:            time.Now(),
			}
		}
		if err := rec.RecordSensitivity(rows); err != nil {
			s.log.Warnf("record sensitivity: %v", err)
		}
	}
	if err := s.writeArtifact("carbon_curve.json", func(w io.Writer) error {
		return export.WriteCurveJSON(w, s.runID, curve)
	}); err != nil {
		return err
	}
	var delta *sensitivity.Delta
	if d, err := grid.BaselineDelta(); err != nil {
		s.log.Warnf("no safety floor delta: %v", err)
	} else {
		delta = &d
	}
	return s.writeArtifact("sensitivity_heatmap.json", func(w io.Writer) error {
		return export.WriteHeatmapJSON(w, s.runID, grid, delta)
	})
}

// stage wraps one pipeline stage with lifecycle events and timing.
func (s *Service) stage(name string, fn func() error) error {
	start := time.Now()
	s.bus.Publish(events.StageEvent{RunID: s.runID, Stage: name, Action: "start"})
	if err := fn(); err != nil {
		s.bus.Publish(events.StageEvent{
			RunID: s.runID, Stage: name, Action: "failed", Err: err, Runtime: time.Since(start),
		})
		s.log.Errorf("stage %s failed: %v", name, err)
		return err
	}
	s.bus.Publish(events.StageEvent{
		RunID: s.runID, Stage: name, Action: "done", Runtime: time.Since(start),
	})
	return nil
}

func (s *Service) writeArtifact(name string, write func(io.Writer) error) error {
	path := filepath.Join(s.cfg.Output.Dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("artifact %s: %w", name, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("artifact %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("artifact %s: %w", name, err)
	}
	s.log.Debugf("wrote %s", path)
	return nil
}

// Bus exposes the event bus for observers such as the CLI.
func (s *Service) Bus() *eventbus.Bus { return s.bus }

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	return nil
}
