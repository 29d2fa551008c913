package model

// Default constraint parameters for the bulk-transport demand scenario.
const (
	DefaultMinDWT         = 4_576_667.0
	DefaultMinAvgSafety   = 3.0
	DefaultCarbonPriceUSD = 80.0
)

// ConstraintConfig holds the constraint parameters of one selection problem.
// It is immutable per solve; sweeps vary copies of it.
type ConstraintConfig struct {
	MinDWT            float64
	MinAvgSafety      float64
	RequiredFuelTypes []FuelType
	CarbonPriceUSD    float64
}

// DefaultConstraintConfig returns the baseline configuration: full demand
// threshold, 3.0 safety floor, all eight fuel types required.
func DefaultConstraintConfig() ConstraintConfig {
	return ConstraintConfig{
		MinDWT:            DefaultMinDWT,
		MinAvgSafety:      DefaultMinAvgSafety,
		RequiredFuelTypes: AllFuelTypes(),
		CarbonPriceUSD:    DefaultCarbonPriceUSD,
	}
}

// WithSafetyFloor returns a copy with the average-safety floor replaced.
func (c ConstraintConfig) WithSafetyFloor(floor float64) ConstraintConfig {
	c.MinAvgSafety = floor
	c.RequiredFuelTypes = append([]FuelType(nil), c.RequiredFuelTypes...)
	return c
}

// WithCarbonPrice returns a copy with the carbon price replaced.
func (c ConstraintConfig) WithCarbonPrice(price float64) ConstraintConfig {
	c.CarbonPriceUSD = price
	c.RequiredFuelTypes = append([]FuelType(nil), c.RequiredFuelTypes...)
	return c
}
