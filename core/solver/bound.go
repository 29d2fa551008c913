package solver

import (
	"math"
	"sort"
)

// seedIncumbent builds a greedy feasible fleet so the search starts with a
// finite upper bound: cover each required fuel group at its cheapest price,
// fill the remaining demand in cost-per-tonne order, then lift the average
// safety with the highest-margin vessels. When the safety repair runs out of
// positive-margin vessels the search simply starts unseeded.
func (e *engine) seedIncumbent() {
	sel := make([]bool, e.n)
	var cost, dwt, slack float64
	size := 0
	pick := func(i int) {
		sel[i] = true
		cost += e.prob.Cost[i]
		dwt += e.prob.DWT[i]
		slack += e.prob.SafetySlack[i]
		size++
	}

	for _, t := range e.required {
		pick(e.groupCheap[t][0])
	}
	for _, i := range e.byDensity {
		if dwt >= e.prob.MinDWT {
			break
		}
		if !sel[i] {
			pick(i)
		}
	}
	if slack < 0 {
		bySlack := make([]int, e.n)
		for i := range bySlack {
			bySlack[i] = i
		}
		sort.Slice(bySlack, func(a, b int) bool {
			ia, ib := bySlack[a], bySlack[b]
			if e.prob.SafetySlack[ia] == e.prob.SafetySlack[ib] {
				return ia < ib
			}
			return e.prob.SafetySlack[ia] > e.prob.SafetySlack[ib]
		})
		for _, i := range bySlack {
			if slack >= 0 {
				break
			}
			if e.prob.SafetySlack[i] <= 0 {
				break
			}
			if !sel[i] {
				pick(i)
			}
		}
	}
	if slack < 0 {
		e.log.Debugf("greedy seed could not reach the safety floor, searching unseeded")
		return
	}
	e.record(sel, cost)
	e.log.Debugf("greedy incumbent: cost=%.2f vessels=%d", cost, size)
}

// fallbackBound is an admissible node bound used when the LP solve fails for
// a reason other than infeasibility. It takes the larger of two relaxations:
// covering each open fuel group at its cheapest free price, and filling the
// remaining demand fractionally in cost-per-tonne order. Fuel groups are
// disjoint, so neither term can exceed the true completion cost.
func (e *engine) fallbackBound() float64 {
	var cover float64
	for _, t := range e.required {
		if e.coverCount[t] > 0 {
			continue
		}
		for _, i := range e.groupCheap[t] {
			if e.fixed[i] == stateFree {
				cover += e.prob.Cost[i]
				break
			}
		}
	}

	var fill float64
	remaining := e.prob.MinDWT - e.fixedDWT
	for _, i := range e.byDensity {
		if remaining <= 0 {
			break
		}
		if e.fixed[i] != stateFree {
			continue
		}
		if d := e.prob.DWT[i]; d >= remaining {
			fill += e.prob.Cost[i] * remaining / d
			remaining = 0
		} else {
			fill += e.prob.Cost[i]
			remaining -= d
		}
	}
	if remaining > 0 {
		return math.Inf(1)
	}
	return e.fixedCost + math.Max(cover, fill)
}

// fallbackBranch picks a deterministic branching variable when the LP gave
// no fractional value to steer by: the cheapest free vessel of the first
// open fuel group, else the best cost-per-tonne free vessel.
func (e *engine) fallbackBranch() int {
	for _, t := range e.required {
		if e.coverCount[t] > 0 {
			continue
		}
		for _, i := range e.groupCheap[t] {
			if e.fixed[i] == stateFree {
				return i
			}
		}
	}
	for _, i := range e.byDensity {
		if e.fixed[i] == stateFree {
			return i
		}
	}
	return 0
}
