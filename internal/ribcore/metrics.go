package ribcore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MetricCommitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meshrib_ribcore_commits_total",
			Help: "Total number of committed actions, by action kind.",
		},
		[]string{"action"},
	)

	MetricPlanErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meshrib_ribcore_plan_errors_total",
			Help: "Total number of actions rejected by plan, by action kind.",
		},
		[]string{"action"},
	)

	MetricRoutesChangedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meshrib_ribcore_routes_changed_total",
			Help: "Total number of commits that changed the local or internal route set.",
		},
	)

	MetricLocRibEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "meshrib_ribcore_locrib_entries",
			Help: "Number of distinct route names with at least one internal candidate.",
		},
	)
)
