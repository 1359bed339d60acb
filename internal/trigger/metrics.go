package trigger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricWindows = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trigger_windows_checked_total",
		Help: "Audio windows submitted for phrase transcription.",
	})

	metricDetections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trigger_detections_total",
		Help: "Phrase detections by class.",
	}, []string{"class"})

	metricFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trigger_transcribe_failures_total",
		Help: "Window transcriptions that failed.",
	})

	metricActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trigger_active",
		Help: "Whether the phrase spotter is processing audio (1) or paused (0).",
	})
)
