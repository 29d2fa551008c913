// Package sensitivity re-prices the catalog across carbon prices and maps
// the optimal fleet cost over a carbon price and safety floor grid. Every
// point re-runs the exact selection on the repriced catalog, so the results
// show where the optimal composition itself flips.
package sensitivity

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marovik/fleetopt/core/costmodel"
	"github.com/marovik/fleetopt/core/logger"
	"github.com/marovik/fleetopt/core/model"
	"github.com/marovik/fleetopt/core/solver"
)

// DefaultCarbonPrices is the swept carbon price ladder in USD per tonne CO2eq.
var DefaultCarbonPrices = []float64{40, 80, 120, 160}

// DefaultSafetyThresholds is the swept average-safety floor set.
var DefaultSafetyThresholds = []float64{3.0, 3.5, 4.0, 4.5, 5.0}

// gridTol matches config floats against swept grid coordinates.
const gridTol = 1e-9

// Options shapes the sweep.
type Options struct {
	CarbonPrices     []float64 // DefaultCarbonPrices when empty
	SafetyThresholds []float64 // DefaultSafetyThresholds when empty
	Workers          int       // concurrent solves, NumCPU when <= 0

	// Progress, when set, is invoked after each solved point with the
	// number of finished points and the sweep size. It must be safe for
	// concurrent use.
	Progress func(done, total int)
}

// CurvePoint is the optimal fleet at one carbon price under the baseline
// constraints.
type CurvePoint struct {
	CarbonPrice float64
	TotalCost   float64
	TotalCO2eq  float64
	FleetSize   int
	VesselIDs   []string
	Solved      bool
}

// Cell is one carbon price and safety floor combination. Cost, size and
// composition stay zero when no fleet was found.
type Cell struct {
	CarbonPrice     float64
	SafetyThreshold float64
	TotalCost       float64
	FleetSize       int
	VesselIDs       []string
	Feasible        bool
}

// Grid is the full heatmap, cells grouped by price in sweep order.
type Grid struct {
	Cells      []Cell
	Prices     []float64
	Thresholds []float64
	Runtime    time.Duration
}

// Cell returns the cell at the given coordinates.
func (g Grid) Cell(price, threshold float64) (Cell, bool) {
	for _, c := range g.Cells {
		if math.Abs(c.CarbonPrice-price) < gridTol && math.Abs(c.SafetyThreshold-threshold) < gridTol {
			return c, true
		}
	}
	return Cell{}, false
}

// Delta describes how the optimal fleet moves between two safety floors at
// one carbon price.
type Delta struct {
	CarbonPrice    float64
	BaseFloor      float64
	HighFloor      float64
	CostDelta      float64
	FleetSizeDelta int
	AddedVessels   []string
	RemovedVessels []string
}

// Delta compares the cells at baseFloor and highFloor under the given price.
// Both cells must exist and be feasible.
func (g Grid) Delta(price, baseFloor, highFloor float64) (Delta, error) {
	base, ok := g.Cell(price, baseFloor)
	if !ok {
		return Delta{}, fmt.Errorf("sensitivity: no cell at price %v floor %v", price, baseFloor)
	}
	high, ok := g.Cell(price, highFloor)
	if !ok {
		return Delta{}, fmt.Errorf("sensitivity: no cell at price %v floor %v", price, highFloor)
	}
	if !base.Feasible || !high.Feasible {
		return Delta{}, fmt.Errorf("sensitivity: cannot compare infeasible cells at price %v", price)
	}
	return Delta{
		CarbonPrice:    price,
		BaseFloor:      baseFloor,
		HighFloor:      highFloor,
		CostDelta:      high.TotalCost - base.TotalCost,
		FleetSizeDelta: high.FleetSize - base.FleetSize,
		AddedVessels:   diffIDs(high.VesselIDs, base.VesselIDs),
		RemovedVessels: diffIDs(base.VesselIDs, high.VesselIDs),
	}, nil
}

// BaselineDelta compares the lowest against the highest swept safety floor
// at the lowest swept carbon price.
func (g Grid) BaselineDelta() (Delta, error) {
	if len(g.Prices) == 0 || len(g.Thresholds) < 2 {
		return Delta{}, fmt.Errorf("sensitivity: grid too small for a floor comparison")
	}
	price := g.Prices[0]
	for _, p := range g.Prices[1:] {
		if p < price {
			price = p
		}
	}
	lo, hi := g.Thresholds[0], g.Thresholds[0]
	for _, t := range g.Thresholds[1:] {
		if t < lo {
			lo = t
		}
		if t > hi {
			hi = t
		}
	}
	return g.Delta(price, lo, hi)
}

// diffIDs returns the IDs in a but not in b, sorted.
func diffIDs(a, b []string) []string {
	in := make(map[string]bool, len(b))
	for _, id := range b {
		in[id] = true
	}
	var out []string
	for _, id := range a {
		if !in[id] {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Analyzer sweeps carbon prices and safety floors with a shared solver.
type Analyzer struct {
	solver *solver.Solver
	opts   Options
	log    logger.Logger
}

// New validates the sweep options and returns an Analyzer.
func New(s *solver.Solver, opts Options, log logger.Logger) (*Analyzer, error) {
	if len(opts.CarbonPrices) == 0 {
		opts.CarbonPrices = append([]float64(nil), DefaultCarbonPrices...)
	}
	if len(opts.SafetyThresholds) == 0 {
		opts.SafetyThresholds = append([]float64(nil), DefaultSafetyThresholds...)
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	for _, p := range opts.CarbonPrices {
		if p < 0 {
			return nil, fmt.Errorf("%w: negative carbon price %v", costmodel.ErrInvalidConfiguration, p)
		}
	}
	return &Analyzer{solver: s, opts: opts, log: log}, nil
}

// Curve re-solves the baseline selection at each carbon price.
func (a *Analyzer) Curve(ctx context.Context, vessels []model.Vessel, cfg model.ConstraintConfig) ([]CurvePoint, error) {
	start := time.Now()
	prices := a.opts.CarbonPrices
	a.log.Infof("sweeping %d carbon prices", len(prices))

	points := make([]CurvePoint, len(prices))
	var firstErr error
	var mu sync.Mutex
	var done atomic.Int32
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < a.workers(len(prices)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				price := prices[idx]
				res, err := a.solver.Solve(ctx, costmodel.Reprice(vessels, price), cfg.WithCarbonPrice(price))
				switch {
				case err == nil:
					points[idx] = CurvePoint{
						CarbonPrice: price,
						TotalCost:   res.Objective,
						TotalCO2eq:  res.Fleet.TotalCO2eq,
						FleetSize:   res.Fleet.Size,
						VesselIDs:   res.Fleet.VesselIDs,
						Solved:      true,
					}
				case errors.Is(err, solver.ErrInfeasible), errors.Is(err, solver.ErrLimitReached):
					points[idx] = CurvePoint{CarbonPrice: price}
					a.log.Warnf("no fleet at carbon price %.0f: %v", price, err)
				default:
					mu.Lock()
					if firstErr == nil {
						firstErr = fmt.Errorf("carbon price %.0f: %w", price, err)
					}
					mu.Unlock()
				}
				if a.opts.Progress != nil {
					a.opts.Progress(int(done.Add(1)), len(prices))
				}
			}
		}()
	}
	for idx := range prices {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()
	if firstErr != nil {
		return points, firstErr
	}
	a.log.Infof("carbon curve done in %s", time.Since(start))
	return points, nil
}

// Heatmap solves every carbon price and safety floor combination.
func (a *Analyzer) Heatmap(ctx context.Context, vessels []model.Vessel, cfg model.ConstraintConfig) (Grid, error) {
	start := time.Now()
	prices := a.opts.CarbonPrices
	thresholds := a.opts.SafetyThresholds
	a.log.Infof("sweeping %d x %d sensitivity grid", len(prices), len(thresholds))

	// one repriced catalog per price, shared by its row of cells
	repriced := make([][]model.Vessel, len(prices))
	for i, p := range prices {
		repriced[i] = costmodel.Reprice(vessels, p)
	}

	cells := make([]Cell, len(prices)*len(thresholds))
	var firstErr error
	var mu sync.Mutex
	var done atomic.Int32
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < a.workers(len(cells)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				pi, ti := idx/len(thresholds), idx%len(thresholds)
				price, th := prices[pi], thresholds[ti]
				cell := Cell{CarbonPrice: price, SafetyThreshold: th}
				run := cfg.WithCarbonPrice(price)
				res, err := a.solver.Solve(ctx, repriced[pi], run.WithSafetyFloor(th))
				switch {
				case err == nil:
					cell.TotalCost = res.Objective
					cell.FleetSize = res.Fleet.Size
					cell.VesselIDs = res.Fleet.VesselIDs
					cell.Feasible = true
				case errors.Is(err, solver.ErrInfeasible), errors.Is(err, solver.ErrLimitReached):
					a.log.Warnf("no fleet at carbon price %.0f, safety floor %.2f", price, th)
				default:
					mu.Lock()
					if firstErr == nil {
						firstErr = fmt.Errorf("carbon price %.0f, safety floor %.2f: %w", price, th, err)
					}
					mu.Unlock()
				}
				cells[idx] = cell
				if a.opts.Progress != nil {
					a.opts.Progress(int(done.Add(1)), len(cells))
				}
			}
		}()
	}
	for idx := range cells {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	grid := Grid{
		Cells:      cells,
		Prices:     append([]float64(nil), prices...),
		Thresholds: append([]float64(nil), thresholds...),
		Runtime:    time.Since(start),
	}
	if firstErr != nil {
		return grid, firstErr
	}
	a.log.Infof("sensitivity grid done in %s", grid.Runtime)
	return grid, nil
}

func (a *Analyzer) workers(jobs int) int {
	if a.opts.Workers < jobs {
		return a.opts.Workers
	}
	return jobs
}
