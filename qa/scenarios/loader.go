// Package scenarios runs YAML-defined acceptance checks against the exact
// fleet selection. Each scenario pins a small catalog, its constraints and
// the expected optimum.
package scenarios

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/marovik/fleetopt/core/model"
)

type VesselDef struct {
	ID          string  `yaml:"id"`
	DWT         float64 `yaml:"dwt"`
	SafetyScore float64 `yaml:"safety_score"`
	FuelType    string  `yaml:"fuel_type"`
	Cost        float64 `yaml:"cost"`
}

func (v VesselDef) ToModel() (model.Vessel, error) {
	ft, err := model.ParseFuelType(v.FuelType)
	if err != nil {
		return model.Vessel{}, err
	}
	return model.Vessel{
		ID:              v.ID,
		DWT:             v.DWT,
		SafetyScore:     v.SafetyScore,
		FuelType:        ft,
		AdjustedCostUSD: v.Cost,
	}, nil
}

type ConstraintsDef struct {
	MinDWT            float64  `yaml:"min_dwt"`
	MinAvgSafety      float64  `yaml:"min_avg_safety"`
	RequiredFuelTypes []string `yaml:"required_fuel_types,omitempty"`
}

type Expected struct {
	Status    string   `yaml:"status"`
	FleetSize int      `yaml:"fleet_size,omitempty"`
	TotalCost float64  `yaml:"total_cost,omitempty"`
	VesselIDs []string `yaml:"vessel_ids,omitempty"`
}

type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Vessels     []VesselDef    `yaml:"vessels"`
	Constraints ConstraintsDef `yaml:"constraints"`
	Expected    Expected       `yaml:"expected"`
}

// Config builds the constraint configuration. An empty required set defaults
// to the distinct fuel types of the scenario's own catalog.
func (sc *Scenario) Config() (model.ConstraintConfig, error) {
	cfg := model.ConstraintConfig{
		MinDWT:       sc.Constraints.MinDWT,
		MinAvgSafety: sc.Constraints.MinAvgSafety,
	}
	if len(sc.Constraints.RequiredFuelTypes) > 0 {
		for _, s := range sc.Constraints.RequiredFuelTypes {
			t, err := model.ParseFuelType(s)
			if err != nil {
				return cfg, err
			}
			cfg.RequiredFuelTypes = append(cfg.RequiredFuelTypes, t)
		}
		return cfg, nil
	}
	seen := make(map[model.FuelType]bool)
	for _, v := range sc.Vessels {
		t, err := model.ParseFuelType(v.FuelType)
		if err != nil {
			return cfg, err
		}
		if !seen[t] {
			seen[t] = true
			cfg.RequiredFuelTypes = append(cfg.RequiredFuelTypes, t)
		}
	}
	return cfg, nil
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}
