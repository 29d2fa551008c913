// Package costmodel turns catalog records and a constraint configuration
// into the coefficient vectors consumed by the selection solver, recomputes
// carbon-price-dependent costs, and provides a fast feasibility and cost
// evaluator for the sampling-based analyses.
package costmodel

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/marovik/fleetopt/core/model"
)

// ErrInvalidConfiguration indicates malformed or contradictory constraint
// inputs. It is fatal for the component that raised it.
var ErrInvalidConfiguration = errors.New("costmodel: invalid configuration")

// Problem is the coefficient form of one fleet-selection instance. Vessels
// are ordered by ascending ID so that identical inputs always produce the
// same instance.
type Problem struct {
	Vessels     []model.Vessel
	IDs         []string
	Cost        []float64 // objective coefficients, USD
	DWT         []float64 // demand constraint coefficients, tonnes
	SafetySlack []float64 // safety score minus floor, linearized average
	FuelGroups  map[model.FuelType][]int
	MinDWT      float64
}

// Build validates the configuration and assembles the Problem coefficients.
// The catalog slice is not retained or modified.
func Build(vessels []model.Vessel, cfg model.ConstraintConfig) (*Problem, error) {
	if len(cfg.RequiredFuelTypes) == 0 {
		return nil, fmt.Errorf("%w: required fuel-type set is empty", ErrInvalidConfiguration)
	}
	if cfg.MinDWT <= 0 {
		return nil, fmt.Errorf("%w: demand threshold %v is not positive", ErrInvalidConfiguration, cfg.MinDWT)
	}

	p := &Problem{
		Vessels:    append([]model.Vessel(nil), vessels...),
		FuelGroups: make(map[model.FuelType][]int, len(cfg.RequiredFuelTypes)),
		MinDWT:     cfg.MinDWT,
	}
	sort.Slice(p.Vessels, func(i, j int) bool { return p.Vessels[i].ID < p.Vessels[j].ID })

	required := make(map[model.FuelType]bool, len(cfg.RequiredFuelTypes))
	for _, t := range cfg.RequiredFuelTypes {
		required[t] = true
		p.FuelGroups[t] = nil
	}

	p.IDs = make([]string, len(p.Vessels))
	p.Cost = make([]float64, len(p.Vessels))
	p.DWT = make([]float64, len(p.Vessels))
	p.SafetySlack = make([]float64, len(p.Vessels))
	for i, v := range p.Vessels {
		if i > 0 && v.ID == p.Vessels[i-1].ID {
			return nil, fmt.Errorf("%w: duplicate vessel id %q", ErrInvalidConfiguration, v.ID)
		}
		if v.DWT <= 0 {
			return nil, fmt.Errorf("%w: vessel %q has non-positive DWT", ErrInvalidConfiguration, v.ID)
		}
		if math.IsNaN(v.AdjustedCostUSD) || v.AdjustedCostUSD < 0 {
			return nil, fmt.Errorf("%w: vessel %q has invalid cost %v", ErrInvalidConfiguration, v.ID, v.AdjustedCostUSD)
		}
		p.IDs[i] = v.ID
		p.Cost[i] = v.AdjustedCostUSD
		p.DWT[i] = v.DWT
		p.SafetySlack[i] = v.SafetySlack(cfg.MinAvgSafety)
		if required[v.FuelType] {
			p.FuelGroups[v.FuelType] = append(p.FuelGroups[v.FuelType], i)
		}
	}
	return p, nil
}

// TotalCost sums the adjusted cost of every vessel in the catalog. The
// Shapley attributor uses twice this value as its infeasible penalty.
func TotalCost(vessels []model.Vessel) float64 {
	var sum float64
	for _, v := range vessels {
		sum += v.AdjustedCostUSD
	}
	return sum
}
