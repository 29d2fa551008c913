package robustness

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

// walkCatalog has a single LNG vessel, so every feasible fleet keeps it.
func walkCatalog() []model.Vessel {
	return []model.Vessel{
		{ID: "h1", DWT: 300, SafetyScore: 3, FuelType: model.FuelHFO, AdjustedCostUSD: 10},
		{ID: "h2", DWT: 300, SafetyScore: 3, FuelType: model.FuelHFO, AdjustedCostUSD: 12},
		{ID: "l1", DWT: 100, SafetyScore: 4, FuelType: model.FuelLNG, AdjustedCostUSD: 15},
	}
}

func walkConfig() model.ConstraintConfig {
	return model.ConstraintConfig{
		MinDWT:            300,
		MinAvgSafety:      3,
		RequiredFuelTypes: []model.FuelType{model.FuelHFO, model.FuelLNG},
	}
}

func walkFleet(vessels []model.Vessel) model.Fleet {
	return model.NewFleet([]model.Vessel{vessels[0], vessels[2]})
}

func TestSampleKeepsMandatoryVessel(t *testing.T) {
	vessels := walkCatalog()
	s := New(Options{Iterations: 2000}, logger.NopLogger{})
	rep, err := s.Sample(context.Background(), walkFleet(vessels), vessels, walkConfig())
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	var lng *VesselFrequency
	for i := range rep.Frequencies {
		if rep.Frequencies[i].VesselID == "l1" {
			lng = &rep.Frequencies[i]
		}
	}
	if lng == nil {
		t.Fatalf("mandatory vessel never recorded: %+v", rep.Frequencies)
	}
	if lng.Frequency != 1 || lng.Category != CategoryEssential {
		t.Fatalf("expected l1 in every iteration, got %+v", *lng)
	}
	if rep.AcceptanceRate <= 0 || rep.AcceptanceRate > 1 {
		t.Fatalf("acceptance rate out of range: %v", rep.AcceptanceRate)
	}
	for i := 1; i < len(rep.Frequencies); i++ {
		if rep.Frequencies[i].Frequency > rep.Frequencies[i-1].Frequency {
			t.Fatalf("frequencies not sorted: %+v", rep.Frequencies)
		}
	}
}

func TestSampleDeterministicForSeed(t *testing.T) {
	vessels := walkCatalog()
	opts := Options{Iterations: 1000, Seed: 9}
	first, err := New(opts, logger.NopLogger{}).Sample(context.Background(), walkFleet(vessels), vessels, walkConfig())
	if err != nil {
		t.Fatalf("first sample: %v", err)
	}
	second, err := New(opts, logger.NopLogger{}).Sample(context.Background(), walkFleet(vessels), vessels, walkConfig())
	if err != nil {
		t.Fatalf("second sample: %v", err)
	}
	if !reflect.DeepEqual(first.Frequencies, second.Frequencies) {
		t.Fatalf("same seed produced different frequencies")
	}
	if first.AcceptanceRate != second.AcceptanceRate {
		t.Fatalf("same seed produced different acceptance rates")
	}
}

func TestSampleStableWhenIterationsDoubled(t *testing.T) {
	vessels := walkCatalog()
	base, err := New(Options{Iterations: 2000}, logger.NopLogger{}).Sample(context.Background(), walkFleet(vessels), vessels, walkConfig())
	if err != nil {
		t.Fatalf("base sample: %v", err)
	}
	doubled, err := New(Options{Iterations: 4000}, logger.NopLogger{}).Sample(context.Background(), walkFleet(vessels), vessels, walkConfig())
	if err != nil {
		t.Fatalf("doubled sample: %v", err)
	}
	baseFreq := make(map[string]float64, len(base.Frequencies))
	for _, f := range base.Frequencies {
		baseFreq[f.VesselID] = f.Frequency
	}
	for _, f := range doubled.Frequencies {
		if d := math.Abs(f.Frequency - baseFreq[f.VesselID]); d > 0.1 {
			t.Fatalf("frequency of %s drifted by %v when iterations doubled", f.VesselID, d)
		}
	}
}

func TestSamplePoolsChains(t *testing.T) {
	vessels := walkCatalog()
	s := New(Options{Iterations: 1000, Chains: 2}, logger.NopLogger{})
	rep, err := s.Sample(context.Background(), walkFleet(vessels), vessels, walkConfig())
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if rep.Chains != 2 {
		t.Fatalf("expected 2 chains got %d", rep.Chains)
	}
	for _, f := range rep.Frequencies {
		if f.Frequency < 0 || f.Frequency > 1 {
			t.Fatalf("frequency out of range: %+v", f)
		}
	}
	for _, f := range rep.Frequencies {
		if f.VesselID == "l1" && f.Frequency != 1 {
			t.Fatalf("mandatory vessel dropped in pooled chains: %+v", f)
		}
	}
}

func TestSampleReportsProgress(t *testing.T) {
	vessels := walkCatalog()
	var calls [][3]int
	s := New(Options{Iterations: 2000, Progress: func(chain, done, total int) {
		calls = append(calls, [3]int{chain, done, total})
	}}, logger.NopLogger{})
	if _, err := s.Sample(context.Background(), walkFleet(vessels), vessels, walkConfig()); err != nil {
		t.Fatalf("sample: %v", err)
	}
	want := [][3]int{{0, 1000, 2000}, {0, 2000, 2000}}
	if !reflect.DeepEqual(calls, want) {
		t.Fatalf("expected progress %v, got %v", want, calls)
	}
}

func TestSampleRejectsUnknownVessel(t *testing.T) {
	vessels := walkCatalog()
	ghost := model.NewFleet([]model.Vessel{{ID: "ghost", DWT: 1, FuelType: model.FuelHFO, AdjustedCostUSD: 1}})
	_, err := New(Options{}, logger.NopLogger{}).Sample(context.Background(), ghost, vessels, walkConfig())
	if !errors.Is(err, costmodel.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration got %v", err)
	}
}
