// Package pareto traces the cost versus safety frontier by sweeping the
// average-safety floor and re-solving the fleet selection at each grid
// point. Thresholds with no feasible fleet are reported, not failed.
package pareto

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marovik/fleetopt/core/costmodel"
	"github.com/marovik/fleetopt/core/logger"
	"github.com/marovik/fleetopt/core/model"
	"github.com/marovik/fleetopt/core/solver"
)

// Default safety sweep grid.
const (
	DefaultStart  = 3.0
	DefaultEnd    = 5.0
	DefaultPoints = 21
)

// Options shapes the sweep grid and its parallelism.
type Options struct {
	Start   float64 // lowest safety floor, DefaultStart when both ends are 0
	End     float64 // highest safety floor
	Points  int     // grid size including both ends, DefaultPoints when <= 0
	Workers int     // concurrent solves, NumCPU when <= 0

	// Progress, when set, is invoked after each threshold is resolved with
	// the number of finished thresholds and the grid size.
	Progress func(done, total int)
}

// Point is one solved threshold on the frontier.
type Point struct {
	Threshold float64
	Cost      float64
	Fleet     model.Fleet
	Status    solver.Status
	// ShadowPrice is the marginal cost per unit of safety floor between
	// this point and the previous solved one. It is nil for the first
	// solved point and wherever either endpoint is not proven optimal.
	ShadowPrice *float64
}

// Frontier is the traced cost and safety trade-off curve.
type Frontier struct {
	Points  []Point   // solved thresholds in ascending order
	Skipped []float64 // thresholds left without a fleet
	Runtime time.Duration
}

// CheckMonotonic returns the indices of points whose cost drops below the
// previous point's by more than tol. A well-formed frontier returns none.
func (f Frontier) CheckMonotonic(tol float64) []int {
	var bad []int
	for i := 1; i < len(f.Points); i++ {
		if f.Points[i].Cost < f.Points[i-1].Cost-tol {
			bad = append(bad, i)
		}
	}
	return bad
}

// Monotonic reports whether cost never decreases as the safety floor rises.
func (f Frontier) Monotonic() bool {
	return len(f.CheckMonotonic(1e-6)) == 0
}

// Tracer sweeps safety floors with a shared solver.
type Tracer struct {
	solver *solver.Solver
	opts   Options
	log    logger.Logger
}

// New validates the sweep options and returns a Tracer.
func New(s *solver.Solver, opts Options, log logger.Logger) (*Tracer, error) {
	if opts.Start == 0 && opts.End == 0 {
		opts.Start, opts.End = DefaultStart, DefaultEnd
	}
	if opts.Points <= 0 {
		opts.Points = DefaultPoints
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.End < opts.Start {
		return nil, fmt.Errorf("%w: sweep end %.2f below start %.2f", costmodel.ErrInvalidConfiguration, opts.End, opts.Start)
	}
	return &Tracer{solver: s, opts: opts, log: log}, nil
}

// Trace solves every grid threshold and assembles the frontier. Solves run
// concurrently; results keep grid order regardless of completion order.
func (t *Tracer) Trace(ctx context.Context, vessels []model.Vessel, cfg model.ConstraintConfig) (Frontier, error) {
	start := time.Now()
	thresholds := t.grid()
	t.log.Infof("tracing frontier: %d thresholds from %.2f to %.2f", len(thresholds), thresholds[0], thresholds[len(thresholds)-1])

	type outcome struct {
		res solver.Result
		err error
	}
	outcomes := make([]outcome, len(thresholds))
	workers := t.opts.Workers
	if workers > len(thresholds) {
		workers = len(thresholds)
	}
	jobs := make(chan int)
	var done atomic.Int32
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				res, err := t.solver.Solve(ctx, vessels, cfg.WithSafetyFloor(thresholds[idx]))
				outcomes[idx] = outcome{res: res, err: err}
				if t.opts.Progress != nil {
					t.opts.Progress(int(done.Add(1)), len(thresholds))
				}
			}
		}()
	}
	for idx := range thresholds {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	// Assemble in grid order. On an unexpected error the points solved so
	// far are still returned alongside it.
	var f Frontier
	var firstErr error
	for i, th := range thresholds {
		o := outcomes[i]
		switch {
		case o.err == nil:
			f.Points = append(f.Points, Point{
				Threshold: th,
				Cost:      o.res.Objective,
				Fleet:     o.res.Fleet,
				Status:    o.res.Status,
			})
		case errors.Is(o.err, solver.ErrInfeasible):
			f.Skipped = append(f.Skipped, th)
			t.log.Warnf("no feasible fleet at safety floor %.2f", th)
		case errors.Is(o.err, solver.ErrLimitReached):
			f.Skipped = append(f.Skipped, th)
			t.log.Warnf("search limit hit at safety floor %.2f before any fleet was found", th)
		default:
			if firstErr == nil {
				firstErr = fmt.Errorf("safety floor %.2f: %w", th, o.err)
			}
		}
	}

	for i := 1; i < len(f.Points); i++ {
		prev, cur := f.Points[i-1], f.Points[i]
		if prev.Status != solver.StatusOptimal || cur.Status != solver.StatusOptimal {
			continue
		}
		dt := cur.Threshold - prev.Threshold
		if dt <= 0 {
			continue
		}
		sp := (cur.Cost - prev.Cost) / dt
		f.Points[i].ShadowPrice = &sp
	}

	f.Runtime = time.Since(start)
	if firstErr != nil {
		return f, firstErr
	}
	t.log.Infof("frontier traced: %d solved, %d skipped in %s", len(f.Points), len(f.Skipped), f.Runtime)
	return f, nil
}

func (t *Tracer) grid() []float64 {
	ths := make([]float64, t.opts.Points)
	if t.opts.Points == 1 {
		ths[0] = t.opts.Start
		return ths
	}
	step := (t.opts.End - t.opts.Start) / float64(t.opts.Points-1)
	for i := range ths {
		ths[i] = t.opts.Start + float64(i)*step
	}
	ths[len(ths)-1] = t.opts.End
	return ths
}
