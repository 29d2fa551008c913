package model

// Vessel is one candidate cargo vessel with its precomputed cost and safety
// attributes. Records are immutable once loaded; carbon repricing produces
// annotated copies and never touches the original.
type Vessel struct {
	ID          string
	Type        string   // vessel class, informational only
	DWT         float64  // deadweight tonnage in tonnes
	SafetyScore float64  // typically 1.0 to 5.0
	FuelType    FuelType // main engine fuel category

	// Cost components in USD per month. AdjustedCostUSD is the solver
	// objective coefficient: fuel + carbon + ownership + risk premium.
	FuelCostUSD      float64
	CarbonCostUSD    float64
	OwnershipCostUSD float64
	RiskPremiumUSD   float64
	AdjustedCostUSD  float64

	TotalCO2eq      float64 // tonnes CO2-equivalent, drives carbon repricing
	TotalFuelTonnes float64 // fuel burn in tonnes, reporting only
}

// SafetySlack is the vessel's contribution to the linearized average-safety
// constraint for the given floor.
func (v Vessel) SafetySlack(floor float64) float64 {
	return v.SafetyScore - floor
}
