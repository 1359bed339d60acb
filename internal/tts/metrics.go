package tts

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricSpeaks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tts_speaks_total",
		Help: "Total playback processes started",
	})

	metricKills = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tts_kills_total",
		Help: "Total hard kills of in-progress playback",
	})

	metricPlaybackMS = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tts_playback_ms",
		Help:    "Playback process lifetime (ms)",
		Buckets: prometheus.ExponentialBuckets(50, 1.6, 12),
	})

	metricKillLatencyMS = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tts_kill_latency_ms",
		Help:    "Time for a hard kill to confirm the process stopped (ms)",
		Buckets: prometheus.ExponentialBuckets(1, 1.6, 10),
	})
)
