package metrics

import (
	"strconv"

	coremetrics "github.com/marovik/fleetopt/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records analysis results in Prometheus metrics.
type PromSink struct {
	solves      *prometheus.CounterVec
	stages      *prometheus.CounterVec
	cost        prometheus.Gauge
	fleetSize   prometheus.Gauge
	frontier    *prometheus.GaugeVec
	shadow      *prometheus.GaugeVec
	shapley     *prometheus.GaugeVec
	frequency   *prometheus.GaugeVec
	sensitivity *prometheus.GaugeVec
}

// NewPromSink registers analysis metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.solves, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_analysis_solves_total",
		Help: "Total number of finished fleet selections",
	}, []string{"status"})); err != nil {
		return nil, err
	}
	if s.stages, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_analysis_stages_total",
		Help: "Total number of analysis stage transitions",
	}, []string{"stage", "action"})); err != nil {
		return nil, err
	}
	if s.cost, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fleet_total_cost_usd",
		Help: "Total adjusted cost of the latest selected fleet",
	})); err != nil {
		return nil, err
	}
	if s.fleetSize, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fleet_size_vessels",
		Help: "Number of vessels in the latest selected fleet",
	})); err != nil {
		return nil, err
	}
	if s.frontier, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fleet_frontier_cost_usd",
		Help: "Optimal fleet cost per swept safety floor",
	}, []string{"safety_floor"})); err != nil {
		return nil, err
	}
	if s.shadow, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fleet_frontier_shadow_price_usd",
		Help: "Marginal cost of raising the safety floor",
	}, []string{"safety_floor"})); err != nil {
		return nil, err
	}
	if s.shapley, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fleet_shapley_value_usd",
		Help: "Sampled cost attribution per vessel",
	}, []string{"vessel_id", "category"})); err != nil {
		return nil, err
	}
	if s.frequency, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fleet_selection_frequency",
		Help: "Appearance rate per vessel across the composition walk",
	}, []string{"vessel_id", "category"})); err != nil {
		return nil, err
	}
	if s.sensitivity, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fleet_sensitivity_cost_usd",
		Help: "Optimal fleet cost per carbon price and safety floor cell",
	}, []string{"carbon_price", "safety_floor"})); err != nil {
		return nil, err
	}
	return s, nil
}

// register adds the collector to the registerer, reusing an existing
// collector of the same name when one is already registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(C), nil
		}
		var zero C
		return zero, err
	}
	return c, nil
}

// RecordSolve increments the solve counter and updates the fleet gauges.
func (s *PromSink) RecordSolve(rec coremetrics.SolveRecord) error {
	s.solves.WithLabelValues(rec.Status).Inc()
	if rec.FleetSize > 0 {
		s.cost.Set(rec.TotalCost)
		s.fleetSize.Set(float64(rec.FleetSize))
	}
	return nil
}

// RecordFrontier sets the frontier gauges for each swept floor.
func (s *PromSink) RecordFrontier(points []coremetrics.FrontierPoint) error {
	for _, p := range points {
		floor := formatLabel(p.SafetyFloor)
		s.frontier.WithLabelValues(floor).Set(p.TotalCost)
		if p.HasShadow {
			s.shadow.WithLabelValues(floor).Set(p.ShadowPrice)
		}
	}
	return nil
}

// RecordShapley sets the attribution gauge for each vessel.
func (s *PromSink) RecordShapley(rows []coremetrics.ShapleyValue) error {
	for _, r := range rows {
		s.shapley.WithLabelValues(r.VesselID, r.Category).Set(r.Value)
	}
	return nil
}

// RecordRobustness sets the selection frequency gauge for each vessel.
func (s *PromSink) RecordRobustness(rows []coremetrics.SelectionFrequency) error {
	for _, r := range rows {
		s.frequency.WithLabelValues(r.VesselID, r.Category).Set(r.Frequency)
	}
	return nil
}

// RecordSensitivity sets the grid gauge for each feasible cell.
func (s *PromSink) RecordSensitivity(cells []coremetrics.SensitivityCell) error {
	for _, c := range cells {
		if !c.Feasible {
			continue
		}
		s.sensitivity.WithLabelValues(formatLabel(c.CarbonPrice), formatLabel(c.SafetyThreshold)).Set(c.TotalCost)
	}
	return nil
}

// RecordStage increments the stage transition counter.
func (s *PromSink) RecordStage(rec coremetrics.StageRecord) error {
	s.stages.WithLabelValues(rec.Stage, rec.Action).Inc()
	return nil
}

func formatLabel(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
