package solver

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/marovik/fleetopt/core/model"
	"github.com/marovik/fleetopt/infra/logger"
)

func dualFuelCatalog() []model.Vessel {
	return []model.Vessel{
		{ID: "a", DWT: 100, SafetyScore: 3, FuelType: model.FuelHFO, AdjustedCostUSD: 10},
		{ID: "b", DWT: 300, SafetyScore: 3, FuelType: model.FuelHFO, AdjustedCostUSD: 25},
		{ID: "c", DWT: 100, SafetyScore: 3, FuelType: model.FuelLNG, AdjustedCostUSD: 12},
		{ID: "d", DWT: 200, SafetyScore: 3, FuelType: model.FuelLNG, AdjustedCostUSD: 18},
	}
}

func dualFuelConfig() model.ConstraintConfig {
	return model.ConstraintConfig{
		MinDWT:            300,
		MinAvgSafety:      3,
		RequiredFuelTypes: []model.FuelType{model.FuelHFO, model.FuelLNG},
	}
}

func TestSolveFindsOptimalFleet(t *testing.T) {
	s := New(Options{}, logger.NopLogger{})
	res, err := s.Solve(context.Background(), dualFuelCatalog(), dualFuelConfig())
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if res.Status != StatusOptimal {
		t.Fatalf("expected optimal got %s", res.Status)
	}
	if want := []string{"a", "d"}; !reflect.DeepEqual(res.Fleet.VesselIDs, want) {
		t.Fatalf("expected fleet %v got %v", want, res.Fleet.VesselIDs)
	}
	if math.Abs(res.Objective-28) > 1e-9 {
		t.Fatalf("expected cost 28 got %v", res.Objective)
	}
	// demand is met exactly at the threshold
	if res.Fleet.TotalDWT != 300 {
		t.Fatalf("expected 300 t got %v", res.Fleet.TotalDWT)
	}
	if res.Fleet.AvgSafety < 3 {
		t.Fatalf("safety floor violated: %v", res.Fleet.AvgSafety)
	}
	if res.Fleet.FuelTypeCount() != 2 {
		t.Fatalf("expected both fuel types covered, got %v", res.Fleet.FuelTypes)
	}
}

func TestSolveHonorsSafetyFloor(t *testing.T) {
	vessels := []model.Vessel{
		{ID: "cheap", DWT: 300, SafetyScore: 2, FuelType: model.FuelHFO, AdjustedCostUSD: 10},
		{ID: "safe", DWT: 300, SafetyScore: 4, FuelType: model.FuelHFO, AdjustedCostUSD: 30},
		{ID: "lng", DWT: 100, SafetyScore: 5, FuelType: model.FuelLNG, AdjustedCostUSD: 20},
	}
	cfg := model.ConstraintConfig{
		MinDWT:            300,
		MinAvgSafety:      4,
		RequiredFuelTypes: []model.FuelType{model.FuelHFO, model.FuelLNG},
	}
	s := New(Options{}, logger.NopLogger{})
	res, err := s.Solve(context.Background(), vessels, cfg)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if want := []string{"lng", "safe"}; !reflect.DeepEqual(res.Fleet.VesselIDs, want) {
		t.Fatalf("expected fleet %v got %v", want, res.Fleet.VesselIDs)
	}
	if res.Fleet.AvgSafety < 4 {
		t.Fatalf("safety floor violated: %v", res.Fleet.AvgSafety)
	}
}

func TestSolveInfeasibleWhenFuelMissing(t *testing.T) {
	vessels := []model.Vessel{
		{ID: "a", DWT: 500, SafetyScore: 3, FuelType: model.FuelHFO, AdjustedCostUSD: 10},
	}
	s := New(Options{}, logger.NopLogger{})
	res, err := s.Solve(context.Background(), vessels, dualFuelConfig())
	if !errors.Is(err, ErrInfeasible) {
		t.Fatalf("expected ErrInfeasible got %v", err)
	}
	if res.Status != StatusInfeasible {
		t.Fatalf("expected infeasible status got %s", res.Status)
	}
}

func TestSolveInfeasibleWhenDemandExceedsCatalog(t *testing.T) {
	cfg := dualFuelConfig()
	cfg.MinDWT = 10_000
	s := New(Options{}, logger.NopLogger{})
	_, err := s.Solve(context.Background(), dualFuelCatalog(), cfg)
	if !errors.Is(err, ErrInfeasible) {
		t.Fatalf("expected ErrInfeasible got %v", err)
	}
}

func TestSolveInfeasibleSafetyFloor(t *testing.T) {
	vessels := []model.Vessel{
		{ID: "a", DWT: 300, SafetyScore: 2, FuelType: model.FuelHFO, AdjustedCostUSD: 10},
		{ID: "b", DWT: 300, SafetyScore: 2, FuelType: model.FuelHFO, AdjustedCostUSD: 12},
	}
	cfg := model.ConstraintConfig{
		MinDWT:            300,
		MinAvgSafety:      4,
		RequiredFuelTypes: []model.FuelType{model.FuelHFO},
	}
	s := New(Options{}, logger.NopLogger{})
	res, err := s.Solve(context.Background(), vessels, cfg)
	if !errors.Is(err, ErrInfeasible) {
		t.Fatalf("expected ErrInfeasible got %v", err)
	}
	if res.Status != StatusInfeasible || res.Nodes == 0 {
		t.Fatalf("expected searched infeasible result, got %+v", res)
	}
}

func TestSolveDeterministic(t *testing.T) {
	s := New(Options{}, logger.NopLogger{})
	first, err := s.Solve(context.Background(), dualFuelCatalog(), dualFuelConfig())
	if err != nil {
		t.Fatalf("first solve: %v", err)
	}
	second, err := s.Solve(context.Background(), dualFuelCatalog(), dualFuelConfig())
	if err != nil {
		t.Fatalf("second solve: %v", err)
	}
	if !reflect.DeepEqual(first.Fleet.VesselIDs, second.Fleet.VesselIDs) {
		t.Fatalf("runs disagree: %v vs %v", first.Fleet.VesselIDs, second.Fleet.VesselIDs)
	}
	if first.Objective != second.Objective {
		t.Fatalf("objectives disagree: %v vs %v", first.Objective, second.Objective)
	}
}

func TestSolveFallsBackWhenLPFails(t *testing.T) {
	orig := lpSolve
	lpSolve = func([]float64, *mat.Dense, []float64) ([]float64, float64, error) {
		return nil, 0, lp.ErrSingular
	}
	t.Cleanup(func() { lpSolve = orig })

	s := New(Options{}, logger.NopLogger{})
	res, err := s.Solve(context.Background(), dualFuelCatalog(), dualFuelConfig())
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if res.Status != StatusOptimal {
		t.Fatalf("expected optimal got %s", res.Status)
	}
	if want := []string{"a", "d"}; !reflect.DeepEqual(res.Fleet.VesselIDs, want) {
		t.Fatalf("expected fleet %v got %v", want, res.Fleet.VesselIDs)
	}
}

func TestSolveStopsAtNodeLimit(t *testing.T) {
	vessels := []model.Vessel{
		{ID: "a", DWT: 100, SafetyScore: 3, FuelType: model.FuelHFO, AdjustedCostUSD: 10},
		{ID: "b", DWT: 100, SafetyScore: 3, FuelType: model.FuelHFO, AdjustedCostUSD: 11},
		{ID: "c", DWT: 100, SafetyScore: 3, FuelType: model.FuelHFO, AdjustedCostUSD: 12},
	}
	cfg := model.ConstraintConfig{
		MinDWT:            250,
		MinAvgSafety:      3,
		RequiredFuelTypes: []model.FuelType{model.FuelHFO},
	}
	s := New(Options{MaxNodes: 1}, logger.NopLogger{})
	res, err := s.Solve(context.Background(), vessels, cfg)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if res.Status != StatusIncumbent {
		t.Fatalf("expected incumbent got %s", res.Status)
	}
	if res.Fleet.TotalDWT < 250 {
		t.Fatalf("incumbent violates demand: %v", res.Fleet.TotalDWT)
	}
}

func TestSolveReturnsIncumbentWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := New(Options{}, logger.NopLogger{})
	res, err := s.Solve(ctx, dualFuelCatalog(), dualFuelConfig())
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if res.Status != StatusIncumbent {
		t.Fatalf("expected incumbent got %s", res.Status)
	}
	if res.Fleet.Size == 0 {
		t.Fatalf("expected a non-empty incumbent fleet")
	}
}

func TestMetricsRegistration(t *testing.T) {
	ResetMetrics(nil)
	t.Cleanup(func() { ResetMetrics(nil) })
	reg := prometheus.NewRegistry()
	MustRegisterMetrics(reg)
	// touch metrics so they are exported
	solveDuration.WithLabelValues("optimal").Observe(0.1)
	solvesTotal.WithLabelValues("optimal").Inc()
	nodesExplored.Add(3)
	lpRelaxations.Add(2)
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := map[string]bool{}
	for _, mf := range mfs {
		names[*mf.Name] = true
	}
	expected := []string{
		"fleet_solver_duration_seconds",
		"fleet_solver_solves_total",
		"fleet_solver_nodes_explored_total",
		"fleet_solver_lp_relaxations_total",
	}
	for _, n := range expected {
		if !names[n] {
			t.Errorf("metric %s not registered", n)
		}
	}
}
