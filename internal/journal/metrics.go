package journal

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "journal_events_total",
		Help: "Journal events recorded, by type.",
	}, []string{"type"})

	metricDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "journal_dropped_total",
		Help: "Events dropped from persistence because the write queue was full.",
	})

	metricWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "journal_write_failures_total",
		Help: "Failed SQLite event writes.",
	})
)
