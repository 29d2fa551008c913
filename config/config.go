// Package config loads and validates the engine configuration from a YAML
// or JSON file, with environment overrides under the FLEETOPT_ prefix.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/marovik/fleetopt/core/metrics"
)

type Config struct {
	Catalog     CatalogConfig     `json:"catalog"`
	Constraints ConstraintsConfig `json:"constraints"`
	Solver      SolverConfig      `json:"solver"`
	Pareto      ParetoConfig      `json:"pareto"`
	Shapley     ShapleyConfig     `json:"shapley"`
	Robustness  RobustnessConfig  `json:"robustness"`
	Sensitivity SensitivityConfig `json:"sensitivity"`
	Metrics     metrics.Config    `json:"metrics"`
	Output      OutputConfig      `json:"output"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("FLEETOPT_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "fleetopt_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	// Environment values arrive as strings, so the decoder must coerce them
	// into the numeric config fields.
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "json",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.TextUnmarshallerHookFunc(),
			),
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	}); err != nil {
		return nil, err
	}
	cfg.Constraints.SetDefaults()
	cfg.Solver.SetDefaults()
	cfg.Pareto.SetDefaults()
	cfg.Shapley.SetDefaults()
	cfg.Robustness.SetDefaults()
	cfg.Sensitivity.SetDefaults()
	cfg.Output.SetDefaults()
	if err := cfg.Catalog.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Constraints.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Pareto.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Sensitivity.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CatalogConfig points at the vessel catalog CSV.
type CatalogConfig struct {
	Path string `json:"path"`
}

// Validate checks mandatory fields.
func (c CatalogConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("catalog path is required")
	}
	return nil
}

// OutputConfig defines where result artifacts are written.
type OutputConfig struct {
	// Dir is the directory receiving the JSON and CSV artifacts.
	Dir string `json:"dir"`
}

// SetDefaults applies sane defaults.
func (c *OutputConfig) SetDefaults() {
	if c.Dir == "" {
		c.Dir = "results"
	}
}
