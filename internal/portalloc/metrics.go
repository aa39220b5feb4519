package portalloc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MetricAllocateErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meshrib_portalloc_allocate_errors_total",
			Help: "Total number of failed port allocations (pool exhaustion).",
		},
	)

	MetricAvailablePorts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "meshrib_portalloc_available_ports",
			Help: "Number of ports not currently assigned to any key.",
		},
	)
)
