// Package export writes analysis results as JSON and CSV artifacts. All
// writers take an io.Writer; file placement is the caller's concern.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/marovik/fleetopt/core/model"
	"github.com/marovik/fleetopt/core/pareto"
	"github.com/marovik/fleetopt/core/robustness"
	"github.com/marovik/fleetopt/core/sensitivity"
	"github.com/marovik/fleetopt/core/shapley"
	"github.com/marovik/fleetopt/core/solver"
)

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FleetResult is the JSON shape of one finished selection.
type FleetResult struct {
	RunID           string   `json:"run_id"`
	Status          string   `json:"status"`
	VesselIDs       []string `json:"vessel_ids"`
	FleetSize       int      `json:"fleet_size"`
	TotalCostUSD    float64  `json:"total_cost_usd"`
	TotalDWT        float64  `json:"total_dwt"`
	AvgSafety       float64  `json:"avg_safety"`
	FuelTypeCount   int      `json:"fuel_type_count"`
	TotalCO2eq      float64  `json:"total_co2eq"`
	TotalFuelTonnes float64  `json:"total_fuel_tonnes"`
	Nodes           int      `json:"nodes_explored"`
}

// WriteFleetJSON writes the selection result to w.
func WriteFleetJSON(w io.Writer, runID string, res solver.Result) error {
	return encode(w, FleetResult{
		RunID:           runID,
		Status:          res.Status.String(),
		VesselIDs:       res.Fleet.VesselIDs,
		FleetSize:       res.Fleet.Size,
		TotalCostUSD:    res.Objective,
		TotalDWT:        res.Fleet.TotalDWT,
		AvgSafety:       res.Fleet.AvgSafety,
		FuelTypeCount:   res.Fleet.FuelTypeCount(),
		TotalCO2eq:      res.Fleet.TotalCO2eq,
		TotalFuelTonnes: res.Fleet.TotalFuelTonnes,
		Nodes:           res.Nodes,
	})
}

// WriteSubmissionCSV writes the one-row fleet summary to w.
func WriteSubmissionCSV(w io.Writer, fleet model.Fleet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"fleet_size", "total_dwt", "avg_safety", "fuel_type_count",
		"total_cost_usd", "total_co2eq", "total_fuel_tonnes",
	}); err != nil {
		return err
	}
	f := func(x float64) string { return strconv.FormatFloat(x, 'f', -1, 64) }
	if err := cw.Write([]string{
		strconv.Itoa(fleet.Size),
		f(fleet.TotalDWT),
		f(fleet.AvgSafety),
		strconv.Itoa(fleet.FuelTypeCount()),
		f(fleet.TotalCost),
		f(fleet.TotalCO2eq),
		f(fleet.TotalFuelTonnes),
	}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// FrontierPoint is the JSON shape of one swept safety floor.
type FrontierPoint struct {
	SafetyThreshold float64  `json:"safety_threshold"`
	TotalCostUSD    float64  `json:"total_cost_usd"`
	FleetSize       int      `json:"fleet_size"`
	VesselIDs       []string `json:"vessel_ids"`
	Status          string   `json:"status"`
	ShadowPrice     *float64 `json:"shadow_price,omitempty"`
}

type frontierDoc struct {
	RunID   string          `json:"run_id"`
	Points  []FrontierPoint `json:"points"`
	Skipped []float64       `json:"skipped_thresholds,omitempty"`
}

// WriteFrontierJSON writes the traced frontier to w.
func WriteFrontierJSON(w io.Writer, runID string, f pareto.Frontier) error {
	doc := frontierDoc{RunID: runID, Skipped: f.Skipped}
	for _, p := range f.Points {
		doc.Points = append(doc.Points, FrontierPoint{
			SafetyThreshold: p.Threshold,
			TotalCostUSD:    p.Cost,
			FleetSize:       p.Fleet.Size,
			VesselIDs:       p.Fleet.VesselIDs,
			Status:          p.Status.String(),
			ShadowPrice:     p.ShadowPrice,
		})
	}
	return encode(w, doc)
}

// ShapleyValue is the JSON shape of one vessel's attribution.
type ShapleyValue struct {
	VesselID string  `json:"vessel_id"`
	Value    float64 `json:"shapley_value"`
	StdErr   float64 `json:"std_err"`
	Rank     int     `json:"rank"`
	Category string  `json:"category"`
}

type shapleyDoc struct {
	RunID     string         `json:"run_id"`
	Samples   int            `json:"samples"`
	Seed      int64          `json:"seed"`
	Converged bool           `json:"converged"`
	Values    []ShapleyValue `json:"values"`
	Summary   map[string]int `json:"summary"`
}

// WriteShapleyJSON writes the sampled attributions with per-category counts.
func WriteShapleyJSON(w io.Writer, runID string, rep shapley.Report) error {
	summary := map[string]int{
		shapley.CategoryEssential: 0,
		shapley.CategoryUseful:    0,
		shapley.CategoryMarginal:  0,
	}
	doc := shapleyDoc{
		RunID:     runID,
		Samples:   rep.Samples,
		Seed:      rep.Seed,
		Converged: rep.Converged,
		Summary:   summary,
	}
	for _, a := range rep.Attributions {
		summary[a.Category]++
		doc.Values = append(doc.Values, ShapleyValue{
			VesselID: a.VesselID,
			Value:    a.Value,
			StdErr:   a.StdErr,
			Rank:     a.Rank,
			Category: a.Category,
		})
	}
	return encode(w, doc)
}

// Frequency is the JSON shape of one vessel's appearance rate.
type Frequency struct {
	VesselID  string  `json:"vessel_id"`
	Frequency float64 `json:"frequency"`
	Category  string  `json:"category"`
}

type robustnessDoc struct {
	RunID          string         `json:"run_id"`
	Iterations     int            `json:"iterations"`
	Chains         int            `json:"chains"`
	Seed           int64          `json:"seed"`
	AcceptanceRate float64        `json:"acceptance_rate"`
	Converged      bool           `json:"converged"`
	Frequencies    []Frequency    `json:"frequencies"`
	Summary        map[string]int `json:"summary"`
}

// WriteRobustnessJSON writes the appearance frequencies with per-category
// counts.
func WriteRobustnessJSON(w io.Writer, runID string, rep robustness.Report) error {
	summary := map[string]int{
		robustness.CategoryEssential: 0,
		robustness.CategoryStable:    0,
		robustness.CategoryVariable:  0,
	}
	doc := robustnessDoc{
		RunID:          runID,
		Iterations:     rep.Iterations,
		Chains:         rep.Chains,
		Seed:           rep.Seed,
		AcceptanceRate: rep.AcceptanceRate,
		Converged:      rep.Converged,
		Summary:        summary,
	}
	for _, f := range rep.Frequencies {
		summary[f.Category]++
		doc.Frequencies = append(doc.Frequencies, Frequency{
			VesselID:  f.VesselID,
			Frequency: f.Frequency,
			Category:  f.Category,
		})
	}
	return encode(w, doc)
}

// CurvePoint is the JSON shape of one carbon price sweep point.
type CurvePoint struct {
	CarbonPrice float64  `json:"carbon_price_usd"`
	TotalCost   float64  `json:"total_cost_usd"`
	TotalCO2eq  float64  `json:"total_co2eq"`
	FleetSize   int      `json:"fleet_size"`
	VesselIDs   []string `json:"vessel_ids,omitempty"`
	Solved      bool     `json:"solved"`
}

type curveDoc struct {
	RunID  string       `json:"run_id"`
	Points []CurvePoint `json:"points"`
}

// WriteCurveJSON writes the carbon price sweep to w.
func WriteCurveJSON(w io.Writer, runID string, points []sensitivity.CurvePoint) error {
	doc := curveDoc{RunID: runID}
	for _, p := range points {
		doc.Points = append(doc.Points, CurvePoint{
			CarbonPrice: p.CarbonPrice,
			TotalCost:   p.TotalCost,
			TotalCO2eq:  p.TotalCO2eq,
			FleetSize:   p.FleetSize,
			VesselIDs:   p.VesselIDs,
			Solved:      p.Solved,
		})
	}
	return encode(w, doc)
}

// Cell is the JSON shape of one sensitivity grid cell.
type Cell struct {
	CarbonPrice     float64  `json:"carbon_price_usd"`
	SafetyThreshold float64  `json:"safety_threshold"`
	TotalCost       float64  `json:"total_cost_usd"`
	FleetSize       int      `json:"fleet_size"`
	VesselIDs       []string `json:"vessel_ids,omitempty"`
	Feasible        bool     `json:"feasible"`
}

// FloorDelta is the JSON shape of the baseline-to-high-safety comparison.
type FloorDelta struct {
	CarbonPrice    float64  `json:"carbon_price_usd"`
	BaseFloor      float64  `json:"base_floor"`
	HighFloor      float64  `json:"high_floor"`
	CostDelta      float64  `json:"cost_delta_usd"`
	FleetSizeDelta int      `json:"fleet_size_delta"`
	AddedVessels   []string `json:"added_vessels,omitempty"`
	RemovedVessels []string `json:"removed_vessels,omitempty"`
}

type heatmapDoc struct {
	RunID      string      `json:"run_id"`
	Prices     []float64   `json:"carbon_prices"`
	Thresholds []float64   `json:"safety_thresholds"`
	Cells      []Cell      `json:"cells"`
	Delta      *FloorDelta `json:"safety_floor_delta,omitempty"`
}

// WriteHeatmapJSON writes the sensitivity grid to w, with the designated
// floor comparison when one was computable.
func WriteHeatmapJSON(w io.Writer, runID string, grid sensitivity.Grid, delta *sensitivity.Delta) error {
	doc := heatmapDoc{
		RunID:      runID,
		Prices:     grid.Prices,
		Thresholds: grid.Thresholds,
	}
	if delta != nil {
		doc.Delta = &FloorDelta{
			CarbonPrice:    delta.CarbonPrice,
			BaseFloor:      delta.BaseFloor,
			HighFloor:      delta.HighFloor,
			CostDelta:      delta.CostDelta,
			FleetSizeDelta: delta.FleetSizeDelta,
			AddedVessels:   delta.AddedVessels,
			RemovedVessels: delta.RemovedVessels,
		}
	}
	for _, c := range grid.Cells {
		doc.Cells = append(doc.Cells, Cell{
			CarbonPrice:     c.CarbonPrice,
			SafetyThreshold: c.SafetyThreshold,
			TotalCost:       c.TotalCost,
			FleetSize:       c.FleetSize,
			VesselIDs:       c.VesselIDs,
			Feasible:        c.Feasible,
		})
	}
	return encode(w, doc)
}
