package audio

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricFramesPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audio_frames_published_total",
		Help: "Frames delivered to tap subscribers.",
	})

	metricFramesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audio_frames_dropped_total",
		Help: "Frames dropped because a subscriber channel was full.",
	})

	metricRecordings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audio_recordings_total",
		Help: "Utterance recordings by how they ended.",
	}, []string{"end"})

	metricRecordSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "audio_record_seconds",
		Help:    "Duration of utterance recordings in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
	})
)
