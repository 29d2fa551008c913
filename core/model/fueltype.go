package model

import (
	"fmt"
	"strings"
)

// FuelType identifies the main-engine fuel category of a vessel.
type FuelType int

const (
	FuelHFO FuelType = iota
	FuelLFO
	FuelMDO
	FuelLNG
	FuelLPGPropane
	FuelLPGButane
	FuelMethanol
	FuelEthanol
)

// NumFuelTypes is the number of recognized fuel categories.
const NumFuelTypes = 8

// String returns a human-readable representation of the fuel type.
func (t FuelType) String() string {
	switch t {
	case FuelHFO:
		return "HFO"
	case FuelLFO:
		return "LFO"
	case FuelMDO:
		return "MDO"
	case FuelLNG:
		return "LNG"
	case FuelLPGPropane:
		return "LPG (Propane)"
	case FuelLPGButane:
		return "LPG (Butane)"
	case FuelMethanol:
		return "Methanol"
	case FuelEthanol:
		return "Ethanol"
	default:
		return "unknown"
	}
}

// AllFuelTypes returns the complete set of recognized fuel types in
// declaration order.
func AllFuelTypes() []FuelType {
	return []FuelType{
		FuelHFO, FuelLFO, FuelMDO, FuelLNG,
		FuelLPGPropane, FuelLPGButane, FuelMethanol, FuelEthanol,
	}
}

// ParseFuelType converts a catalog string into a FuelType. Matching is
// case-insensitive and tolerant of surrounding whitespace.
func ParseFuelType(s string) (FuelType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hfo", "heavy fuel oil":
		return FuelHFO, nil
	case "lfo", "light fuel oil":
		return FuelLFO, nil
	case "mdo", "marine diesel oil", "diesel/gas oil":
		return FuelMDO, nil
	case "lng":
		return FuelLNG, nil
	case "lpg (propane)", "lpg propane":
		return FuelLPGPropane, nil
	case "lpg (butane)", "lpg butane":
		return FuelLPGButane, nil
	case "methanol":
		return FuelMethanol, nil
	case "ethanol":
		return FuelEthanol, nil
	default:
		return 0, fmt.Errorf("unrecognized fuel type %q", s)
	}
}
