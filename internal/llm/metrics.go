package llm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "llm_requests_total",
		Help: "Total chat completion requests",
	})

	metricFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "llm_failures_total",
		Help: "Total failed chat completion requests",
	})

	metricLatencyMS = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "llm_latency_ms",
		Help:    "Chat completion latency (ms)",
		Buckets: prometheus.ExponentialBuckets(50, 1.6, 10),
	})
)
