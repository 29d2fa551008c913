package model

import "sort"

// Fleet is a selected subset of the catalog with its derived aggregates.
// Fleets are value objects: built once by NewFleet, then only read.
type Fleet struct {
	VesselIDs       []string // sorted ascending
	Size            int
	TotalCost       float64
	TotalDWT        float64
	AvgSafety       float64
	TotalCO2eq      float64
	TotalFuelTonnes float64
	FuelTypes       []FuelType // distinct, ascending
}

// NewFleet aggregates the given vessels into a Fleet. Duplicate IDs are
// collapsed so each vessel counts at most once.
func NewFleet(vessels []Vessel) Fleet {
	seen := make(map[string]bool, len(vessels))
	types := make(map[FuelType]bool)
	var f Fleet
	for _, v := range vessels {
		if seen[v.ID] {
			continue
		}
		seen[v.ID] = true
		f.VesselIDs = append(f.VesselIDs, v.ID)
		f.TotalCost += v.AdjustedCostUSD
		f.TotalDWT += v.DWT
		f.AvgSafety += v.SafetyScore
		f.TotalCO2eq += v.TotalCO2eq
		f.TotalFuelTonnes += v.TotalFuelTonnes
		types[v.FuelType] = true
	}
	f.Size = len(f.VesselIDs)
	if f.Size > 0 {
		f.AvgSafety /= float64(f.Size)
	}
	sort.Strings(f.VesselIDs)
	for t := range types {
		f.FuelTypes = append(f.FuelTypes, t)
	}
	sort.Slice(f.FuelTypes, func(i, j int) bool { return f.FuelTypes[i] < f.FuelTypes[j] })
	return f
}

// Contains reports whether the fleet includes the vessel ID.
func (f Fleet) Contains(id string) bool {
	i := sort.SearchStrings(f.VesselIDs, id)
	return i < len(f.VesselIDs) && f.VesselIDs[i] == id
}

// FuelTypeCount returns the number of distinct fuel types represented.
func (f Fleet) FuelTypeCount() int { return len(f.FuelTypes) }
