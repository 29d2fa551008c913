package config

import (
	"fmt"
	"time"

	"github.com/marovik/fleetopt/core/pareto"
	"github.com/marovik/fleetopt/core/robustness"
	"github.com/marovik/fleetopt/core/sensitivity"
	"github.com/marovik/fleetopt/core/shapley"
	"github.com/marovik/fleetopt/core/solver"
)

// SolverConfig bounds the exact search.
type SolverConfig struct {
	// MaxNodes caps the number of branch-and-bound nodes per solve.
	MaxNodes int `json:"max_nodes"`
	// TimeLimitSeconds caps the wall-clock time per solve.
	TimeLimitSeconds int `json:"time_limit_seconds"`
}

// SetDefaults applies sane defaults.
func (c *SolverConfig) SetDefaults() {
	if c.MaxNodes == 0 {
		c.MaxNodes = solver.DefaultMaxNodes
	}
	if c.TimeLimitSeconds == 0 {
		c.TimeLimitSeconds = int(solver.DefaultTimeLimit / time.Second)
	}
}

// Options converts the section into solver options.
func (c SolverConfig) Options() solver.Options {
	return solver.Options{
		MaxNodes:  c.MaxNodes,
		TimeLimit: time.Duration(c.TimeLimitSeconds) * time.Second,
	}
}

// ParetoConfig shapes the safety floor sweep.
type ParetoConfig struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Points  int     `json:"points"`
	Workers int     `json:"workers"`
}

// SetDefaults applies the 3.0 to 5.0, 21-point grid.
func (c *ParetoConfig) SetDefaults() {
	if c.Start == 0 && c.End == 0 {
		c.Start, c.End = pareto.DefaultStart, pareto.DefaultEnd
	}
	if c.Points == 0 {
		c.Points = pareto.DefaultPoints
	}
}

// Validate checks the sweep bounds.
func (c ParetoConfig) Validate() error {
	if c.End < c.Start {
		return fmt.Errorf("pareto end %v below start %v", c.End, c.Start)
	}
	return nil
}

// Options converts the section into sweep options.
func (c ParetoConfig) Options() pareto.Options {
	return pareto.Options{Start: c.Start, End: c.End, Points: c.Points, Workers: c.Workers}
}

// ShapleyConfig shapes the permutation sampling.
type ShapleyConfig struct {
	Samples int   `json:"samples"`
	Seed    int64 `json:"seed"`
	Workers int   `json:"workers"`
}

// SetDefaults applies sane defaults.
func (c *ShapleyConfig) SetDefaults() {
	if c.Samples == 0 {
		c.Samples = shapley.DefaultSamples
	}
	if c.Seed == 0 {
		c.Seed = shapley.DefaultSeed
	}
}

// Options converts the section into sampling options.
func (c ShapleyConfig) Options() shapley.Options {
	return shapley.Options{Samples: c.Samples, Seed: c.Seed, Workers: c.Workers}
}

// RobustnessConfig shapes the Metropolis walk.
type RobustnessConfig struct {
	Iterations int     `json:"iterations"`
	Chains     int     `json:"chains"`
	Seed       int64   `json:"seed"`
	Beta       float64 `json:"beta"`
	Tol        float64 `json:"tol"`
}

// SetDefaults applies sane defaults.
func (c *RobustnessConfig) SetDefaults() {
	if c.Iterations == 0 {
		c.Iterations = robustness.DefaultIterations
	}
	if c.Chains == 0 {
		c.Chains = robustness.DefaultChains
	}
	if c.Seed == 0 {
		c.Seed = robustness.DefaultSeed
	}
	if c.Beta == 0 {
		c.Beta = robustness.DefaultBeta
	}
	if c.Tol == 0 {
		c.Tol = robustness.DefaultTol
	}
}

// Options converts the section into walk options.
func (c RobustnessConfig) Options() robustness.Options {
	return robustness.Options{
		Iterations: c.Iterations,
		Chains:     c.Chains,
		Seed:       c.Seed,
		Beta:       c.Beta,
		Tol:        c.Tol,
	}
}

// SensitivityConfig shapes the carbon price and safety floor grid.
type SensitivityConfig struct {
	CarbonPrices     []float64 `json:"carbon_prices"`
	SafetyThresholds []float64 `json:"safety_thresholds"`
	Workers          int       `json:"workers"`
}

// SetDefaults applies the 40 to 160 USD ladder and the 3.0 to 5.0 floors.
func (c *SensitivityConfig) SetDefaults() {
	if len(c.CarbonPrices) == 0 {
		c.CarbonPrices = append([]float64(nil), sensitivity.DefaultCarbonPrices...)
	}
	if len(c.SafetyThresholds) == 0 {
		c.SafetyThresholds = append([]float64(nil), sensitivity.DefaultSafetyThresholds...)
	}
}

// Validate checks the grid coordinates.
func (c SensitivityConfig) Validate() error {
	for _, p := range c.CarbonPrices {
		if p < 0 {
			return fmt.Errorf("sensitivity carbon price %v is negative", p)
		}
	}
	return nil
}

// Options converts the section into sweep options.
func (c SensitivityConfig) Options() sensitivity.Options {
	return sensitivity.Options{
		CarbonPrices:     c.CarbonPrices,
		SafetyThresholds: c.SafetyThresholds,
		Workers:          c.Workers,
	}
}
