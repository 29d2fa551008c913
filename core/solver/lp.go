package solver

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// relaxation is the outcome of bounding one search node.
type relaxation struct {
	infeasible bool    // no completion of the node satisfies the constraints
	bound      float64 // lower bound on the cost of any completion
	integral   bool
	selected   []bool  // full selection when the relaxed optimum is integral
	cost       float64 // exact cost of selected when integral
	branch     int     // branching variable otherwise
}

// relax solves the LP relaxation over the free variables with the selected
// set folded into the right-hand sides. Rows already satisfied by every
// completion are dropped, and each remaining row is normalized so simplex
// tolerances behave across tonne and dollar magnitudes.
func (e *engine) relax() relaxation {
	free := make([]int, 0, e.nFree)
	for i, st := range e.fixed {
		if st == stateFree {
			free = append(free, i)
		}
	}
	nf := len(free)

	c := make([]float64, nf)
	var cNorm float64
	for j, i := range free {
		c[j] = e.prob.Cost[i]
		if c[j] > cNorm {
			cNorm = c[j]
		}
	}
	if cNorm == 0 {
		cNorm = 1
	}
	for j := range c {
		c[j] /= cNorm
	}

	var (
		rows [][]float64
		rhs  []float64
	)
	addRow := func(row []float64, h float64) {
		var norm float64
		for _, v := range row {
			if a := math.Abs(v); a > norm {
				norm = a
			}
		}
		if norm == 0 {
			norm = 1
		}
		for j := range row {
			row[j] /= norm
		}
		rows = append(rows, row)
		rhs = append(rhs, h/norm)
	}

	if remaining := e.prob.MinDWT - e.fixedDWT; remaining > 0 {
		row := make([]float64, nf)
		for j, i := range free {
			row[j] = -e.prob.DWT[i]
		}
		addRow(row, -remaining)
	}

	var worst float64
	for _, i := range free {
		if s := e.prob.SafetySlack[i]; s < 0 {
			worst -= s
		}
	}
	if worst > e.fixedSlack {
		row := make([]float64, nf)
		for j, i := range free {
			row[j] = -e.prob.SafetySlack[i]
		}
		addRow(row, e.fixedSlack)
	}

	col := make([]int, e.n)
	for i := range col {
		col[i] = -1
	}
	for j, i := range free {
		col[i] = j
	}
	for _, t := range e.required {
		if e.coverCount[t] > 0 {
			continue
		}
		row := make([]float64, nf)
		for _, i := range e.prob.FuelGroups[t] {
			if j := col[i]; j >= 0 {
				row[j] = -1
			}
		}
		addRow(row, -1)
	}

	// box rows keep each relaxed variable inside [0, 1]
	for j := 0; j < nf; j++ {
		up := make([]float64, nf)
		up[j] = 1
		addRow(up, 1)
		lo := make([]float64, nf)
		lo[j] = -1
		addRow(lo, 0)
	}

	flat := make([]float64, 0, len(rows)*nf)
	for _, r := range rows {
		flat = append(flat, r...)
	}
	g := mat.NewDense(len(rows), nf, flat)

	e.lps++
	xs, obj, err := lpSolve(c, g, rhs)
	if err != nil {
		if errors.Is(err, lp.ErrInfeasible) {
			return relaxation{infeasible: true}
		}
		// degenerate or singular basis: bound combinatorially instead
		return relaxation{bound: e.fallbackBound(), branch: e.fallbackBranch()}
	}
	bound := e.fixedCost + obj*cNorm

	branch, fr := -1, 0.0
	integral := true
	for j, x := range xs {
		if d := math.Abs(x - math.Round(x)); d > e.tol {
			integral = false
			if d > fr {
				fr = d
				branch = free[j]
			}
		}
	}
	if !integral {
		return relaxation{bound: bound, branch: branch}
	}

	sel := e.selectedSet()
	cost := e.fixedCost
	for j, x := range xs {
		if math.Round(x) >= 1 {
			sel[free[j]] = true
			cost += e.prob.Cost[free[j]]
		}
	}
	if !e.selectionFeasible(sel) {
		// rounding within tolerance broke a constraint by a hair, branch on
		return relaxation{bound: bound, branch: e.fallbackBranch()}
	}
	return relaxation{bound: bound, integral: true, selected: sel, cost: cost}
}

// solveRelaxation converts the inequality form to standard form and runs
// simplex. The split variables introduced by the conversion are folded back
// so the returned solution lives in the original space.
func solveRelaxation(c []float64, g *mat.Dense, h []float64) ([]float64, float64, error) {
	cStd, aStd, bStd := lp.Convert(c, g, h, nil, nil)
	obj, out, err := lp.Simplex(cStd, aStd, bStd, 1e-7, nil)
	if err != nil {
		return nil, 0, err
	}
	n := len(c)
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = out[i] - out[n+i]
	}
	return xs, obj, nil
}

// lpSolve points to the function used to solve relaxations. It can be
// overridden in tests to simulate solver failures.
var lpSolve = solveRelaxation
