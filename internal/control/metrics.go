package control

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricSignals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "control_signals_total",
		Help: "Signals injected through the control surface, by kind.",
	}, []string{"kind"})

	metricWSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "control_ws_connections",
		Help: "Currently connected control websocket clients.",
	})

	metricBroadcastsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "control_broadcasts_dropped_total",
		Help: "State-change notifications dropped because the broadcast queue was full.",
	})
)
