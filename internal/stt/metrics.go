package stt

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stt_requests_total",
		Help: "Total transcription requests",
	})

	metricFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stt_failures_total",
		Help: "Total failed transcription requests",
	})

	metricAudioSeconds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stt_audio_seconds_total",
		Help: "Total seconds of audio submitted for transcription",
	})

	metricLatencyMS = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stt_latency_ms",
		Help:    "Transcription latency (ms)",
		Buckets: prometheus.ExponentialBuckets(100, 1.6, 10),
	})
)
