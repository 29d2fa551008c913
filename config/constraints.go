package config

import (
	"fmt"

	"github.com/marovik/fleetopt/core/model"
)

// ConstraintsConfig defines the baseline selection constraints.
type ConstraintsConfig struct {
	// MinDWT is the combined deadweight demand in tonnes.
	MinDWT float64 `json:"min_dwt"`
	// MinAvgSafety is the floor on the fleet's average safety score.
	MinAvgSafety float64 `json:"min_avg_safety"`
	// RequiredFuelTypes lists the fuel categories every fleet must cover.
	// Empty means all eight recognized categories.
	RequiredFuelTypes []string `json:"required_fuel_types"`
	// CarbonPriceUSD is the baseline carbon price in USD per tonne CO2eq.
	CarbonPriceUSD float64 `json:"carbon_price_usd"`
}

// SetDefaults applies the baseline demand scenario.
func (c *ConstraintsConfig) SetDefaults() {
	if c.MinDWT == 0 {
		c.MinDWT = model.DefaultMinDWT
	}
	if c.MinAvgSafety == 0 {
		c.MinAvgSafety = model.DefaultMinAvgSafety
	}
	if c.CarbonPriceUSD == 0 {
		c.CarbonPriceUSD = model.DefaultCarbonPriceUSD
	}
}

// Validate checks the constraint parameters.
func (c ConstraintsConfig) Validate() error {
	if c.MinDWT <= 0 {
		return fmt.Errorf("min_dwt must be positive, got %v", c.MinDWT)
	}
	if c.CarbonPriceUSD < 0 {
		return fmt.Errorf("carbon_price_usd must not be negative, got %v", c.CarbonPriceUSD)
	}
	for _, s := range c.RequiredFuelTypes {
		if _, err := model.ParseFuelType(s); err != nil {
			return fmt.Errorf("required_fuel_types: %w", err)
		}
	}
	return nil
}

// ToModel converts the section into the immutable constraint configuration
// consumed by the solver.
func (c ConstraintsConfig) ToModel() model.ConstraintConfig {
	cfg := model.ConstraintConfig{
		MinDWT:         c.MinDWT,
		MinAvgSafety:   c.MinAvgSafety,
		CarbonPriceUSD: c.CarbonPriceUSD,
	}
	if len(c.RequiredFuelTypes) == 0 {
		cfg.RequiredFuelTypes = model.AllFuelTypes()
		return cfg
	}
	for _, s := range c.RequiredFuelTypes {
		t, err := model.ParseFuelType(s)
		if err != nil {
			// Validate rejects unknown names before ToModel runs.
			continue
		}
		cfg.RequiredFuelTypes = append(cfg.RequiredFuelTypes, t)
	}
	return cfg
}
