package scenarios

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/marovik/fleetopt/core/model"
	"github.com/marovik/fleetopt/core/solver"
	"github.com/marovik/fleetopt/infra/logger"
)

// costTol absorbs float accumulation noise when comparing expected costs.
const costTol = 1e-6

func RunScenario(t *testing.T, sc *Scenario) {
	vessels := make([]model.Vessel, len(sc.Vessels))
	for i, def := range sc.Vessels {
		v, err := def.ToModel()
		if err != nil {
			t.Fatalf("vessel %s: %v", def.ID, err)
		}
		vessels[i] = v
	}
	cfg, err := sc.Config()
	if err != nil {
		t.Fatalf("constraints: %v", err)
	}

	sol := solver.New(solver.Options{MaxNodes: 50_000, TimeLimit: 10 * time.Second}, logger.NopLogger{})
	res, err := sol.Solve(context.Background(), vessels, cfg)

	if sc.Expected.Status == "infeasible" {
		if !errors.Is(err, solver.ErrInfeasible) {
			t.Fatalf("expected infeasible, got status %s err %v", res.Status, err)
		}
		return
	}
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if res.Status.String() != sc.Expected.Status {
		t.Errorf("status = %s, want %s", res.Status, sc.Expected.Status)
	}
	if sc.Expected.FleetSize > 0 && res.Fleet.Size != sc.Expected.FleetSize {
		t.Errorf("fleet size = %d, want %d", res.Fleet.Size, sc.Expected.FleetSize)
	}
	if sc.Expected.TotalCost > 0 && math.Abs(res.Objective-sc.Expected.TotalCost) > costTol {
		t.Errorf("total cost = %v, want %v", res.Objective, sc.Expected.TotalCost)
	}
	if len(sc.Expected.VesselIDs) > 0 {
		if len(res.Fleet.VesselIDs) != len(sc.Expected.VesselIDs) {
			t.Fatalf("selected %v, want %v", res.Fleet.VesselIDs, sc.Expected.VesselIDs)
		}
		for i, id := range sc.Expected.VesselIDs {
			if res.Fleet.VesselIDs[i] != id {
				t.Errorf("selected %v, want %v", res.Fleet.VesselIDs, sc.Expected.VesselIDs)
				break
			}
		}
	}
}
