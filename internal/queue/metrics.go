package queue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MetricActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meshrib_queue_actions_total",
			Help: "Total number of actions processed by the queue, by action kind.",
		},
		[]string{"action"},
	)

	MetricCommitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "meshrib_queue_commit_duration_seconds",
			Help:    "Time spent inside RIB.Commit for a single action.",
			Buckets: prometheus.DefBuckets,
		},
	)

	MetricQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "meshrib_queue_depth",
			Help: "Number of actions submitted but not yet committed.",
		},
	)
)
