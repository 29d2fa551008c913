package solver

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	solveDuration *prometheus.HistogramVec
	solvesTotal   *prometheus.CounterVec
	nodesExplored prometheus.Counter
	lpRelaxations prometheus.Counter
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.HistogramVec, *prometheus.CounterVec, prometheus.Counter, prometheus.Counter) {
	dur := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fleet_solver_duration_seconds",
			Help:    "Wall-clock duration of fleet selection solves",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)
	tot := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_solver_solves_total",
			Help: "Number of fleet selection solves by final status",
		},
		[]string{"status"},
	)
	nodes := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fleet_solver_nodes_explored_total",
			Help: "Number of branch-and-bound nodes explored",
		},
	)
	lps := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fleet_solver_lp_relaxations_total",
			Help: "Number of LP relaxations solved",
		},
	)
	return dur, tot, nodes, lps
}

func init() {
	solveDuration, solvesTotal, nodesExplored, lpRelaxations = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers solver metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(solveDuration, solvesTotal, nodesExplored, lpRelaxations)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	solveDuration, solvesTotal, nodesExplored, lpRelaxations = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
