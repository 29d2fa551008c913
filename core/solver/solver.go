// Package solver selects the cheapest vessel fleet that meets the deadweight
// demand, the average safety floor and the fuel-type coverage constraints.
// The search is an exact branch-and-bound over binary selection variables
// with LP relaxation bounds, so results are provably optimal unless a node
// or time limit interrupts the search.
package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/marovik/fleetopt/core/costmodel"
	"github.com/marovik/fleetopt/core/logger"
	"github.com/marovik/fleetopt/core/model"
)

// Search limits applied when Options leaves a field unset.
const (
	DefaultMaxNodes  = 200_000
	DefaultTimeLimit = 30 * time.Second
	DefaultTol       = 1e-6
)

// costEps separates genuinely better incumbents from float noise.
const costEps = 1e-6

// feasEps absorbs accumulation noise in exact feasibility checks.
const feasEps = 1e-9

var (
	// ErrInfeasible reports that no vessel subset can satisfy the
	// constraints. The caller may relax thresholds and retry.
	ErrInfeasible = errors.New("solver: no feasible fleet")
	// ErrLimitReached reports that the search stopped at a node or time
	// limit before any feasible fleet was found, leaving feasibility
	// unproven either way.
	ErrLimitReached = errors.New("solver: search limit reached before a feasible fleet was found")
)

// Status reports how far the search got.
type Status int

const (
	// StatusOptimal marks a fleet proven cheapest over the whole catalog.
	StatusOptimal Status = iota
	// StatusIncumbent marks the best fleet found before a limit stopped
	// the search. It satisfies every constraint but may not be cheapest.
	StatusIncumbent
	// StatusInfeasible marks a search that produced no fleet. The error
	// returned alongside separates proven infeasibility from a search
	// interrupted with empty hands.
	StatusInfeasible
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusIncumbent:
		return "incumbent"
	case StatusInfeasible:
		return "infeasible"
	default:
		return "unknown"
	}
}

// Options bounds the search effort.
type Options struct {
	MaxNodes  int           // node budget, DefaultMaxNodes when <= 0
	TimeLimit time.Duration // wall-clock budget, DefaultTimeLimit when <= 0
	Tol       float64       // integrality tolerance, DefaultTol when <= 0
}

// Result carries the selected fleet together with search statistics.
type Result struct {
	Fleet         model.Fleet
	Status        Status
	Objective     float64
	Nodes         int
	LPRelaxations int
	Runtime       time.Duration
}

// Solver runs fleet-selection searches. It is stateless between calls and
// safe for concurrent use.
type Solver struct {
	opts Options
	log  logger.Logger
}

// New returns a Solver with unset options replaced by defaults.
func New(opts Options, log logger.Logger) *Solver {
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = DefaultMaxNodes
	}
	if opts.TimeLimit <= 0 {
		opts.TimeLimit = DefaultTimeLimit
	}
	if opts.Tol <= 0 {
		opts.Tol = DefaultTol
	}
	return &Solver{opts: opts, log: log}
}

// Solve searches the catalog for the cheapest fleet satisfying cfg. The
// context cancels the search; a cancelled search still returns the best
// incumbent found so far.
func (s *Solver) Solve(ctx context.Context, vessels []model.Vessel, cfg model.ConstraintConfig) (Result, error) {
	start := time.Now()
	prob, err := costmodel.Build(vessels, cfg)
	if err != nil {
		return Result{}, err
	}

	// Two screens prove infeasibility without any search: a required fuel
	// type absent from the catalog, or total deadweight short of demand.
	required := make([]model.FuelType, 0, len(prob.FuelGroups))
	for t := range prob.FuelGroups {
		required = append(required, t)
	}
	sort.Slice(required, func(i, j int) bool { return required[i] < required[j] })
	for _, t := range required {
		if len(prob.FuelGroups[t]) == 0 {
			res := Result{Status: StatusInfeasible, Runtime: time.Since(start)}
			s.observe(res)
			return res, fmt.Errorf("%w: catalog has no %s vessel", ErrInfeasible, t)
		}
	}
	var catalogDWT float64
	for _, d := range prob.DWT {
		catalogDWT += d
	}
	if catalogDWT < prob.MinDWT {
		res := Result{Status: StatusInfeasible, Runtime: time.Since(start)}
		s.observe(res)
		return res, fmt.Errorf("%w: catalog deadweight %.0f below demand %.0f", ErrInfeasible, catalogDWT, prob.MinDWT)
	}

	s.log.Infof("solving fleet selection: %d vessels, demand %.0f t, safety floor %.2f, %d fuel types",
		len(prob.IDs), prob.MinDWT, cfg.MinAvgSafety, len(required))

	e := newEngine(prob, required, s.opts, s.log)
	e.seedIncumbent()
	e.dfs(ctx)

	res := Result{
		Nodes:         e.nodes,
		LPRelaxations: e.lps,
		Runtime:       time.Since(start),
	}
	switch {
	case e.found && !e.limit:
		res.Status = StatusOptimal
		res.Fleet = e.bestFleet()
		res.Objective = res.Fleet.TotalCost
	case e.found:
		res.Status = StatusIncumbent
		res.Fleet = e.bestFleet()
		res.Objective = res.Fleet.TotalCost
		s.log.Warnf("search stopped after %d nodes in %s, returning incumbent cost %.2f",
			res.Nodes, res.Runtime, res.Objective)
	default:
		res.Status = StatusInfeasible
		s.observe(res)
		if e.limit {
			if cerr := ctx.Err(); cerr != nil {
				return res, cerr
			}
			return res, fmt.Errorf("%w: %d nodes in %s", ErrLimitReached, res.Nodes, res.Runtime)
		}
		return res, ErrInfeasible
	}
	s.observe(res)
	s.log.Infof("fleet selected: status=%s cost=%.2f size=%d nodes=%d lps=%d runtime=%s",
		res.Status, res.Objective, res.Fleet.Size, res.Nodes, res.LPRelaxations, res.Runtime)
	return res, nil
}

func (s *Solver) observe(res Result) {
	status := res.Status.String()
	solveDuration.WithLabelValues(status).Observe(res.Runtime.Seconds())
	solvesTotal.WithLabelValues(status).Inc()
	nodesExplored.Add(float64(res.Nodes))
	lpRelaxations.Add(float64(res.LPRelaxations))
}

// Variable states in the search tree.
const (
	stateFree int8 = iota
	stateIn
	stateOut
)

// engine holds the search state for one Solve call. A dedicated struct keeps
// the hot-path state explicit and the recursion free of closures.
type engine struct {
	prob     *costmodel.Problem
	n        int
	tol      float64
	log      logger.Logger
	required []model.FuelType

	// static orders reused by the seed and the fallback bound
	byDensity  []int                    // indices by ascending cost per tonne
	groupCheap map[model.FuelType][]int // group members by ascending cost

	maxNodes    int
	useDeadline bool
	deadline    time.Time

	// node state, mutated and restored around each branch
	fixed      []int8
	nFree      int
	fixedCost  float64
	fixedDWT   float64
	fixedSlack float64
	coverCount map[model.FuelType]int // selected vessels per required type
	freeCount  map[model.FuelType]int // free vessels per required type

	best     []bool
	bestCost float64
	found    bool

	nodes int
	lps   int
	limit bool
}

func newEngine(prob *costmodel.Problem, required []model.FuelType, opts Options, log logger.Logger) *engine {
	n := len(prob.IDs)
	e := &engine{
		prob:       prob,
		n:          n,
		tol:        opts.Tol,
		log:        log,
		required:   required,
		groupCheap: make(map[model.FuelType][]int, len(required)),
		maxNodes:   opts.MaxNodes,
		fixed:      make([]int8, n),
		nFree:      n,
		coverCount: make(map[model.FuelType]int, len(required)),
		freeCount:  make(map[model.FuelType]int, len(required)),
		best:       make([]bool, n),
		bestCost:   math.Inf(1),
	}
	if opts.TimeLimit > 0 {
		e.useDeadline = true
		e.deadline = time.Now().Add(opts.TimeLimit)
	}
	for _, t := range required {
		grp := append([]int(nil), prob.FuelGroups[t]...)
		sort.Slice(grp, func(a, b int) bool {
			if prob.Cost[grp[a]] == prob.Cost[grp[b]] {
				return grp[a] < grp[b]
			}
			return prob.Cost[grp[a]] < prob.Cost[grp[b]]
		})
		e.groupCheap[t] = grp
		e.coverCount[t] = 0
		e.freeCount[t] = len(grp)
	}
	e.byDensity = make([]int, n)
	for i := range e.byDensity {
		e.byDensity[i] = i
	}
	sort.Slice(e.byDensity, func(a, b int) bool {
		ia, ib := e.byDensity[a], e.byDensity[b]
		ra, rb := prob.Cost[ia]/prob.DWT[ia], prob.Cost[ib]/prob.DWT[ib]
		if ra == rb {
			return ia < ib
		}
		return ra < rb
	})
	return e
}

// dfs explores the tree depth first. Inclusion is branched before exclusion
// so feasible leaves, and with them tighter pruning, appear early.
func (e *engine) dfs(ctx context.Context) {
	if e.limit {
		return
	}
	e.nodes++
	if e.nodes > e.maxNodes || ctx.Err() != nil || (e.useDeadline && time.Now().After(e.deadline)) {
		e.limit = true
		return
	}

	// A required fuel type with neither a selected nor a free vessel can
	// never be covered below this node.
	for _, t := range e.required {
		if e.coverCount[t] == 0 && e.freeCount[t] == 0 {
			return
		}
	}

	// Costs are non-negative, so once the selected set alone is feasible
	// no completion in the subtree can be cheaper than it.
	if e.selectedFeasible() {
		e.record(e.selectedSet(), e.fixedCost)
		return
	}
	if e.nFree == 0 {
		return
	}

	rx := e.relax()
	if rx.infeasible {
		return
	}
	if rx.bound >= e.bestCost-costEps {
		return
	}
	if rx.integral {
		e.record(rx.selected, rx.cost)
		return
	}

	v := rx.branch
	e.include(v)
	e.dfs(ctx)
	e.revertInclude(v)
	e.exclude(v)
	e.dfs(ctx)
	e.revertExclude(v)
}

func (e *engine) include(i int) {
	e.fixed[i] = stateIn
	e.nFree--
	e.fixedCost += e.prob.Cost[i]
	e.fixedDWT += e.prob.DWT[i]
	e.fixedSlack += e.prob.SafetySlack[i]
	t := e.prob.Vessels[i].FuelType
	if _, ok := e.freeCount[t]; ok {
		e.freeCount[t]--
		e.coverCount[t]++
	}
}

func (e *engine) revertInclude(i int) {
	e.fixed[i] = stateFree
	e.nFree++
	e.fixedCost -= e.prob.Cost[i]
	e.fixedDWT -= e.prob.DWT[i]
	e.fixedSlack -= e.prob.SafetySlack[i]
	t := e.prob.Vessels[i].FuelType
	if _, ok := e.freeCount[t]; ok {
		e.freeCount[t]++
		e.coverCount[t]--
	}
}

func (e *engine) exclude(i int) {
	e.fixed[i] = stateOut
	e.nFree--
	t := e.prob.Vessels[i].FuelType
	if _, ok := e.freeCount[t]; ok {
		e.freeCount[t]--
	}
}

func (e *engine) revertExclude(i int) {
	e.fixed[i] = stateFree
	e.nFree++
	t := e.prob.Vessels[i].FuelType
	if _, ok := e.freeCount[t]; ok {
		e.freeCount[t]++
	}
}

// selectedFeasible checks the constraints against the selected vessels only,
// ignoring free ones.
func (e *engine) selectedFeasible() bool {
	if e.fixedDWT < e.prob.MinDWT-feasEps {
		return false
	}
	if e.fixedSlack < -feasEps {
		return false
	}
	for _, t := range e.required {
		if e.coverCount[t] == 0 {
			return false
		}
	}
	return true
}

func (e *engine) selectedSet() []bool {
	sel := make([]bool, e.n)
	for i, st := range e.fixed {
		if st == stateIn {
			sel[i] = true
		}
	}
	return sel
}

// selectionFeasible verifies a full selection against the exact constraint
// values, independent of any node bookkeeping.
func (e *engine) selectionFeasible(sel []bool) bool {
	var dwt, slack float64
	covered := make(map[model.FuelType]bool, len(e.required))
	any := false
	for i, in := range sel {
		if !in {
			continue
		}
		any = true
		dwt += e.prob.DWT[i]
		slack += e.prob.SafetySlack[i]
		covered[e.prob.Vessels[i].FuelType] = true
	}
	if !any || dwt < e.prob.MinDWT-feasEps || slack < -feasEps {
		return false
	}
	for _, t := range e.required {
		if !covered[t] {
			return false
		}
	}
	return true
}

// record keeps the selection when it beats the incumbent. Equal-cost
// selections keep the first one found, so repeated runs agree.
func (e *engine) record(sel []bool, cost float64) {
	if e.found && cost >= e.bestCost-costEps {
		return
	}
	copy(e.best, sel)
	e.bestCost = cost
	e.found = true
}

func (e *engine) bestFleet() model.Fleet {
	vessels := make([]model.Vessel, 0)
	for i, in := range e.best {
		if in {
			vessels = append(vessels, e.prob.Vessels[i])
		}
	}
	return model.NewFleet(vessels)
}
