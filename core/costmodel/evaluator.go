package costmodel

import (
	"sort"

	"github.com/marovik/fleetopt/core/model"
)

// feasTol absorbs float accumulation noise in feasibility comparisons.
const feasTol = 1e-9

// Evaluator answers feasibility and cost questions about arbitrary vessel
// subsets in O(1) per membership change. It is the marginal-value oracle for
// the Shapley attributor and the proposal check for the robustness sampler.
type Evaluator struct {
	byID     map[string]model.Vessel
	cfg      model.ConstraintConfig
	required []model.FuelType
}

// NewEvaluator indexes the catalog for subset evaluation under cfg.
func NewEvaluator(vessels []model.Vessel, cfg model.ConstraintConfig) *Evaluator {
	e := &Evaluator{
		byID:     make(map[string]model.Vessel, len(vessels)),
		cfg:      cfg,
		required: append([]model.FuelType(nil), cfg.RequiredFuelTypes...),
	}
	for _, v := range vessels {
		e.byID[v.ID] = v
	}
	return e
}

// Vessel looks up a catalog record by ID.
func (e *Evaluator) Vessel(id string) (model.Vessel, bool) {
	v, ok := e.byID[id]
	return v, ok
}

// FleetState is a mutable working subset tracked with running aggregates.
// Add and Remove are exact inverses, so a rejected proposal is undone by
// applying the opposite operation.
type FleetState struct {
	ev        *Evaluator
	members   map[string]bool
	totalDWT  float64
	sumSafety float64
	totalCost float64
	fuelCount map[model.FuelType]int
}

// NewState returns an empty working subset.
func (e *Evaluator) NewState() *FleetState {
	return &FleetState{
		ev:        e,
		members:   make(map[string]bool),
		fuelCount: make(map[model.FuelType]int),
	}
}

// StateOf returns a working subset preloaded with the given vessel IDs.
// Unknown IDs are ignored.
func (e *Evaluator) StateOf(ids []string) *FleetState {
	s := e.NewState()
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add includes the vessel; it is a no-op for unknown or present IDs.
func (s *FleetState) Add(id string) {
	if s.members[id] {
		return
	}
	v, ok := s.ev.byID[id]
	if !ok {
		return
	}
	s.members[id] = true
	s.totalDWT += v.DWT
	s.sumSafety += v.SafetyScore
	s.totalCost += v.AdjustedCostUSD
	s.fuelCount[v.FuelType]++
}

// Remove excludes the vessel; it is a no-op for absent IDs.
func (s *FleetState) Remove(id string) {
	if !s.members[id] {
		return
	}
	v := s.ev.byID[id]
	delete(s.members, id)
	s.totalDWT -= v.DWT
	s.sumSafety -= v.SafetyScore
	s.totalCost -= v.AdjustedCostUSD
	s.fuelCount[v.FuelType]--
}

// Has reports membership of the vessel ID.
func (s *FleetState) Has(id string) bool { return s.members[id] }

// Size returns the number of member vessels.
func (s *FleetState) Size() int { return len(s.members) }

// Cost returns the summed adjusted cost of the members.
func (s *FleetState) Cost() float64 { return s.totalCost }

// Feasible checks the demand, average-safety and fuel-coverage constraints
// against the evaluator's configuration.
func (s *FleetState) Feasible() bool {
	n := len(s.members)
	if n == 0 {
		return false
	}
	if s.totalDWT < s.ev.cfg.MinDWT-feasTol {
		return false
	}
	if s.sumSafety-s.ev.cfg.MinAvgSafety*float64(n) < -feasTol {
		return false
	}
	for _, t := range s.ev.required {
		if s.fuelCount[t] == 0 {
			return false
		}
	}
	return true
}

// Each calls fn for every member ID in no particular order.
func (s *FleetState) Each(fn func(id string)) {
	for id := range s.members {
		fn(id)
	}
}

// Members returns the member IDs in ascending order.
func (s *FleetState) Members() []string {
	ids := make([]string, 0, len(s.members))
	for id := range s.members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Fleet materializes the current members as a Fleet value.
func (s *FleetState) Fleet() model.Fleet {
	vessels := make([]model.Vessel, 0, len(s.members))
	for id := range s.members {
		vessels = append(vessels, s.ev.byID[id])
	}
	return model.NewFleet(vessels)
}
