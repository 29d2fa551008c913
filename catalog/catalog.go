// Package catalog loads the candidate vessel pool from its CSV contract.
// The file is the hand-off point from the upstream aggregation pipeline:
// every row carries the precomputed cost and safety attributes the analysis
// engine consumes, one row per vessel.
package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/marovik/fleetopt/core/model"
)

// Header is the expected CSV column layout, in order.
var Header = []string{
	"vessel_id",
	"vessel_type",
	"dwt",
	"safety_score",
	"main_engine_fuel_type",
	"total_fuel_tonnes",
	"total_co2eq",
	"fuel_cost_usd",
	"carbon_cost_usd",
	"ownership_cost_usd",
	"risk_premium_usd",
	"adjusted_cost_usd",
}

// LoadFile reads the catalog CSV at path.
func LoadFile(path string) ([]model.Vessel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	defer func() { _ = f.Close() }()
	vessels, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return vessels, nil
}

// Load parses vessel records from r. The header row is verified against
// Header; any malformed row fails the whole load with its row number, so a
// partially broken catalog never reaches the solver.
func Load(r io.Reader) ([]model.Vessel, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if err := checkHeader(head); err != nil {
		return nil, err
	}

	var vessels []model.Vessel
	seen := make(map[string]bool)
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		v, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		if seen[v.ID] {
			return nil, fmt.Errorf("row %d: duplicate vessel id %q", row, v.ID)
		}
		seen[v.ID] = true
		vessels = append(vessels, v)
	}
	if len(vessels) == 0 {
		return nil, fmt.Errorf("catalog holds no vessels")
	}
	return vessels, nil
}

func checkHeader(head []string) error {
	if len(head) != len(Header) {
		return fmt.Errorf("header has %d columns, want %d", len(head), len(Header))
	}
	for i, want := range Header {
		if head[i] != want {
			return fmt.Errorf("header column %d is %q, want %q", i+1, head[i], want)
		}
	}
	return nil
}

func parseRow(rec []string) (model.Vessel, error) {
	var v model.Vessel
	if len(rec) != len(Header) {
		return v, fmt.Errorf("has %d columns, want %d", len(rec), len(Header))
	}
	v.ID = rec[0]
	if v.ID == "" {
		return v, fmt.Errorf("empty vessel id")
	}
	v.Type = rec[1]

	fields := []struct {
		name    string
		raw     string
		dst     *float64
		nonNeg  bool
		strict  bool // must be strictly positive
	}{
		{"dwt", rec[2], &v.DWT, true, true},
		{"safety_score", rec[3], &v.SafetyScore, false, false},
		{"total_fuel_tonnes", rec[5], &v.TotalFuelTonnes, true, false},
		{"total_co2eq", rec[6], &v.TotalCO2eq, true, false},
		{"fuel_cost_usd", rec[7], &v.FuelCostUSD, true, false},
		{"carbon_cost_usd", rec[8], &v.CarbonCostUSD, true, false},
		{"ownership_cost_usd", rec[9], &v.OwnershipCostUSD, true, false},
		{"risk_premium_usd", rec[10], &v.RiskPremiumUSD, true, false},
		{"adjusted_cost_usd", rec[11], &v.AdjustedCostUSD, true, false},
	}
	for _, f := range fields {
		x, err := strconv.ParseFloat(f.raw, 64)
		if err != nil {
			return v, fmt.Errorf("vessel %s: bad %s %q", v.ID, f.name, f.raw)
		}
		if f.strict && x <= 0 {
			return v, fmt.Errorf("vessel %s: %s must be positive, got %v", v.ID, f.name, x)
		}
		if f.nonNeg && x < 0 {
			return v, fmt.Errorf("vessel %s: %s must not be negative, got %v", v.ID, f.name, x)
		}
		*f.dst = x
	}

	ft, err := model.ParseFuelType(rec[4])
	if err != nil {
		return v, fmt.Errorf("vessel %s: %w", v.ID, err)
	}
	v.FuelType = ft
	return v, nil
}
