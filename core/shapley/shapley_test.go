package shapley

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/marovik/fleetopt/core/costmodel"
	"github.com/marovik/fleetopt/core/model"
	"github.com/marovik/fleetopt/infra/logger"
)

func attrCatalog() []model.Vessel {
	return []model.Vessel{
		{ID: "a", DWT: 100, SafetyScore: 3, FuelType: model.FuelHFO, AdjustedCostUSD: 10},
		{ID: "b", DWT: 300, SafetyScore: 3, FuelType: model.FuelHFO, AdjustedCostUSD: 25},
		{ID: "c", DWT: 100, SafetyScore: 3, FuelType: model.FuelLNG, AdjustedCostUSD: 12},
		{ID: "d", DWT: 200, SafetyScore: 3, FuelType: model.FuelLNG, AdjustedCostUSD: 18},
	}
}

func attrConfig() model.ConstraintConfig {
	return model.ConstraintConfig{
		MinDWT:            300,
		MinAvgSafety:      3,
		RequiredFuelTypes: []model.FuelType{model.FuelHFO, model.FuelLNG},
	}
}

func fleetOf(vessels []model.Vessel, ids ...string) model.Fleet {
	members := make([]model.Vessel, 0, len(ids))
	for _, v := range vessels {
		for _, id := range ids {
			if v.ID == id {
				members = append(members, v)
			}
		}
	}
	return model.NewFleet(members)
}

func TestEstimateEfficiency(t *testing.T) {
	vessels := attrCatalog()
	fleet := fleetOf(vessels, "a", "d")
	est := New(Options{Samples: 200, Workers: 2}, logger.NopLogger{})
	rep, err := est.Estimate(context.Background(), fleet, vessels, attrConfig())
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if rep.Penalty != 130 {
		t.Fatalf("expected penalty 130 got %v", rep.Penalty)
	}
	var sum float64
	for _, a := range rep.Attributions {
		sum += a.Value
	}
	// per-permutation marginals telescope, so the total is exact
	want := rep.Penalty - rep.FleetCost
	if math.Abs(sum-want) > 1e-6 {
		t.Fatalf("attributions sum to %v, want %v", sum, want)
	}
}

func TestEstimateDeterministicForSeed(t *testing.T) {
	vessels := attrCatalog()
	fleet := fleetOf(vessels, "a", "d")
	opts := Options{Samples: 150, Seed: 7, Workers: 2}
	first, err := New(opts, logger.NopLogger{}).Estimate(context.Background(), fleet, vessels, attrConfig())
	if err != nil {
		t.Fatalf("first estimate: %v", err)
	}
	second, err := New(opts, logger.NopLogger{}).Estimate(context.Background(), fleet, vessels, attrConfig())
	if err != nil {
		t.Fatalf("second estimate: %v", err)
	}
	if !reflect.DeepEqual(first.Attributions, second.Attributions) {
		t.Fatalf("same seed produced different attributions")
	}
}

func TestEstimateEssentialVesselLeads(t *testing.T) {
	vessels := []model.Vessel{
		{ID: "big", DWT: 300, SafetyScore: 3, FuelType: model.FuelHFO, AdjustedCostUSD: 30},
		{ID: "small", DWT: 50, SafetyScore: 3, FuelType: model.FuelHFO, AdjustedCostUSD: 2},
	}
	cfg := model.ConstraintConfig{
		MinDWT:            300,
		MinAvgSafety:      3,
		RequiredFuelTypes: []model.FuelType{model.FuelHFO},
	}
	fleet := fleetOf(vessels, "big", "small")
	est := New(Options{Samples: 400, Workers: 2}, logger.NopLogger{})
	rep, err := est.Estimate(context.Background(), fleet, vessels, cfg)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	lead := rep.Attributions[0]
	if lead.VesselID != "big" || lead.Rank != 1 || lead.Category != CategoryEssential {
		t.Fatalf("expected big as essential leader, got %+v", lead)
	}
	tail := rep.Attributions[1]
	if tail.VesselID != "small" || tail.Category != CategoryMarginal {
		t.Fatalf("expected small as marginal, got %+v", tail)
	}
	if !rep.Converged {
		t.Fatalf("two-vessel attribution should converge at 400 samples")
	}
}

func TestEstimateRanksStableWhenSamplesDoubled(t *testing.T) {
	vessels := []model.Vessel{
		{ID: "big", DWT: 300, SafetyScore: 3, FuelType: model.FuelHFO, AdjustedCostUSD: 30},
		{ID: "small", DWT: 50, SafetyScore: 3, FuelType: model.FuelHFO, AdjustedCostUSD: 2},
	}
	cfg := model.ConstraintConfig{
		MinDWT:            300,
		MinAvgSafety:      3,
		RequiredFuelTypes: []model.FuelType{model.FuelHFO},
	}
	fleet := fleetOf(vessels, "big", "small")
	base, err := New(Options{Samples: 400}, logger.NopLogger{}).Estimate(context.Background(), fleet, vessels, cfg)
	if err != nil {
		t.Fatalf("base estimate: %v", err)
	}
	doubled, err := New(Options{Samples: 800}, logger.NopLogger{}).Estimate(context.Background(), fleet, vessels, cfg)
	if err != nil {
		t.Fatalf("doubled estimate: %v", err)
	}
	for i := range base.Attributions {
		if base.Attributions[i].VesselID != doubled.Attributions[i].VesselID {
			t.Fatalf("rank %d changed when samples doubled", i+1)
		}
	}
}

func TestEstimateReportsProgress(t *testing.T) {
	vessels := attrCatalog()
	var calls []int
	est := New(Options{Samples: 50, Workers: 1, Progress: func(done, total int) {
		calls = append(calls, done)
		if total != 50 {
			t.Errorf("expected total 50, got %d", total)
		}
	}}, logger.NopLogger{})
	if _, err := est.Estimate(context.Background(), fleetOf(vessels, "a", "d"), vessels, attrConfig()); err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if len(calls) != 50 || calls[49] != 50 {
		t.Fatalf("expected 50 progress calls ending at 50, got %d calls", len(calls))
	}
}

func TestEstimateRejectsUnknownVessel(t *testing.T) {
	vessels := attrCatalog()
	ghost := model.NewFleet([]model.Vessel{{ID: "ghost", DWT: 1, FuelType: model.FuelHFO, AdjustedCostUSD: 1}})
	_, err := New(Options{}, logger.NopLogger{}).Estimate(context.Background(), ghost, vessels, attrConfig())
	if !errors.Is(err, costmodel.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration got %v", err)
	}
}

func TestEstimateRejectsEmptyFleet(t *testing.T) {
	_, err := New(Options{}, logger.NopLogger{}).Estimate(context.Background(), model.Fleet{}, attrCatalog(), attrConfig())
	if !errors.Is(err, costmodel.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration got %v", err)
	}
}
