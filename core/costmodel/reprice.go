package costmodel

import "github.com/marovik/fleetopt/core/model"

// riskPremiumRates maps the rounded safety score to the fraction of the
// monthly cost charged as insurance risk premium. Safer vessels pay less.
var riskPremiumRates = map[int]float64{
	1: 0.15,
	2: 0.10,
	3: 0.05,
	4: 0.02,
	5: 0.00,
}

// RiskPremiumRate returns the risk premium fraction for a safety score.
// Scores are rounded to the nearest integer and clamped to [1, 5].
func RiskPremiumRate(score float64) float64 {
	s := int(score + 0.5)
	if s < 1 {
		s = 1
	}
	if s > 5 {
		s = 5
	}
	return riskPremiumRates[s]
}

// Reprice returns annotated copies of the catalog with all carbon-dependent
// cost terms recomputed for the given carbon price in USD per tonne CO2eq.
// The input records are never mutated.
func Reprice(vessels []model.Vessel, carbonPrice float64) []model.Vessel {
	out := make([]model.Vessel, len(vessels))
	for i, v := range vessels {
		v.CarbonCostUSD = v.TotalCO2eq * carbonPrice
		subtotal := v.FuelCostUSD + v.CarbonCostUSD + v.OwnershipCostUSD
		v.RiskPremiumUSD = subtotal * RiskPremiumRate(v.SafetyScore)
		v.AdjustedCostUSD = subtotal + v.RiskPremiumUSD
		out[i] = v
	}
	return out
}
