package costmodel

import (
	"errors"
	"math"
	"testing"

	"github.com/marovik/fleetopt/core/model"
)

func testVessels() []model.Vessel {
	return []model.Vessel{
		{ID: "v2", DWT: 200, SafetyScore: 4, FuelType: model.FuelLNG, AdjustedCostUSD: 20},
		{ID: "v1", DWT: 100, SafetyScore: 2, FuelType: model.FuelHFO, AdjustedCostUSD: 10},
	}
}

func TestBuildOrdersByID(t *testing.T) {
	cfg := model.ConstraintConfig{
		MinDWT:            150,
		MinAvgSafety:      3,
		RequiredFuelTypes: []model.FuelType{model.FuelHFO, model.FuelLNG},
	}
	p, err := Build(testVessels(), cfg)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if p.IDs[0] != "v1" || p.IDs[1] != "v2" {
		t.Fatalf("expected sorted IDs got %v", p.IDs)
	}
	if p.Cost[0] != 10 || p.DWT[1] != 200 {
		t.Fatalf("coefficient mismatch: %v %v", p.Cost, p.DWT)
	}
	if p.SafetySlack[0] != -1 || p.SafetySlack[1] != 1 {
		t.Fatalf("safety slack mismatch: %v", p.SafetySlack)
	}
	if got := p.FuelGroups[model.FuelHFO]; len(got) != 1 || got[0] != 0 {
		t.Fatalf("fuel group mismatch: %v", p.FuelGroups)
	}
}

func TestBuildRejectsEmptyFuelSet(t *testing.T) {
	_, err := Build(testVessels(), model.ConstraintConfig{MinDWT: 1})
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration got %v", err)
	}
}

func TestBuildRejectsNonPositiveDemand(t *testing.T) {
	cfg := model.ConstraintConfig{MinDWT: 0, RequiredFuelTypes: model.AllFuelTypes()}
	if _, err := Build(testVessels(), cfg); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration got %v", err)
	}
}

func TestBuildRejectsDuplicateIDs(t *testing.T) {
	vessels := []model.Vessel{
		{ID: "v1", DWT: 10, AdjustedCostUSD: 1, FuelType: model.FuelHFO},
		{ID: "v1", DWT: 20, AdjustedCostUSD: 2, FuelType: model.FuelLFO},
	}
	cfg := model.ConstraintConfig{MinDWT: 5, RequiredFuelTypes: model.AllFuelTypes()}
	if _, err := Build(vessels, cfg); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration got %v", err)
	}
}

func TestRepriceRecomputesWithoutMutating(t *testing.T) {
	orig := model.Vessel{
		ID: "v1", DWT: 100, SafetyScore: 5, FuelType: model.FuelMDO,
		FuelCostUSD: 1000, CarbonCostUSD: 400, OwnershipCostUSD: 600,
		RiskPremiumUSD: 0, AdjustedCostUSD: 2000, TotalCO2eq: 5,
	}
	in := []model.Vessel{orig}
	out := Reprice(in, 100)
	if in[0].CarbonCostUSD != 400 || in[0].AdjustedCostUSD != 2000 {
		t.Fatalf("input mutated: %+v", in[0])
	}
	if out[0].CarbonCostUSD != 500 {
		t.Fatalf("expected carbon cost 500 got %v", out[0].CarbonCostUSD)
	}
	// score 5 carries no premium: adjusted = 1000 + 500 + 600
	if out[0].AdjustedCostUSD != 2100 {
		t.Fatalf("expected adjusted 2100 got %v", out[0].AdjustedCostUSD)
	}
}

func TestRepriceAppliesRiskPremium(t *testing.T) {
	v := model.Vessel{ID: "v1", SafetyScore: 2, FuelCostUSD: 100, OwnershipCostUSD: 100, TotalCO2eq: 0}
	out := Reprice([]model.Vessel{v}, 50)
	want := 200 * (1 + RiskPremiumRate(2))
	if math.Abs(out[0].AdjustedCostUSD-want) > 1e-9 {
		t.Fatalf("expected %v got %v", want, out[0].AdjustedCostUSD)
	}
}

func TestRiskPremiumRateClamps(t *testing.T) {
	if RiskPremiumRate(0.2) != riskPremiumRates[1] {
		t.Fatalf("low scores should clamp to 1")
	}
	if RiskPremiumRate(7) != riskPremiumRates[5] {
		t.Fatalf("high scores should clamp to 5")
	}
	if RiskPremiumRate(3.4) != riskPremiumRates[3] {
		t.Fatalf("3.4 should round to 3")
	}
}

func TestFleetStateFeasibility(t *testing.T) {
	vessels := []model.Vessel{
		{ID: "v1", DWT: 100, SafetyScore: 2, FuelType: model.FuelHFO, AdjustedCostUSD: 10},
		{ID: "v2", DWT: 200, SafetyScore: 4, FuelType: model.FuelLNG, AdjustedCostUSD: 20},
	}
	cfg := model.ConstraintConfig{
		MinDWT:            250,
		MinAvgSafety:      3,
		RequiredFuelTypes: []model.FuelType{model.FuelHFO, model.FuelLNG},
	}
	s := NewEvaluator(vessels, cfg).NewState()
	if s.Feasible() {
		t.Fatalf("empty state must be infeasible")
	}
	s.Add("v1")
	if s.Feasible() {
		t.Fatalf("missing DWT, safety and LNG coverage")
	}
	s.Add("v2")
	if !s.Feasible() {
		t.Fatalf("full state should be feasible: dwt=%v cost=%v", s.totalDWT, s.Cost())
	}
	if s.Cost() != 30 {
		t.Fatalf("expected cost 30 got %v", s.Cost())
	}
	s.Remove("v2")
	if s.Feasible() || s.Cost() != 10 {
		t.Fatalf("remove did not restore state: %v", s.Cost())
	}
}

func TestFleetStateAddRemoveInverse(t *testing.T) {
	vessels := testVessels()
	cfg := model.ConstraintConfig{MinDWT: 1, MinAvgSafety: 1, RequiredFuelTypes: []model.FuelType{model.FuelHFO}}
	s := NewEvaluator(vessels, cfg).StateOf([]string{"v1", "v2"})
	before := s.Cost()
	s.Remove("v1")
	s.Add("v1")
	if s.Cost() != before || s.Size() != 2 {
		t.Fatalf("add/remove not inverse: cost=%v size=%d", s.Cost(), s.Size())
	}
}
