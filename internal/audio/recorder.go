package audio

import (
	"context"
	"fmt"
	"log"
	"time"
)

// FrameSource is the slice of Tap the recorder needs.
type FrameSource interface {
	Subscribe(buffer int) (<-chan []int16, func())
}

// RecorderConfig tunes utterance endpointing.
type RecorderConfig struct {
	SampleRate   int
	MaxDuration  time.Duration // hard cap on a single utterance
	SilenceAfter time.Duration // trailing silence that ends the utterance
	MinRMS       float64       // frame RMS at or above this counts as speech
}

func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		SampleRate:   16000,
		MaxDuration:  15 * time.Second,
		SilenceAfter: 800 * time.Millisecond,
		MinRMS:       500,
	}
}

// Recorder captures one utterance from a live frame source. Recording
// ends when speech has been heard and is followed by SilenceAfter of
// quiet, or when MaxDuration elapses, whichever comes first.
type Recorder struct {
	src FrameSource
	cfg RecorderConfig
}

func NewRecorder(src FrameSource, cfg RecorderConfig) *Recorder {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.MaxDuration <= 0 {
		cfg.MaxDuration = 15 * time.Second
	}
	if cfg.SilenceAfter <= 0 {
		cfg.SilenceAfter = 800 * time.Millisecond
	}
	return &Recorder{src: src, cfg: cfg}
}

// Record blocks until the utterance ends and returns the captured
// samples with their sample rate. Cancellation aborts immediately with
// ctx.Err(). A recording that never crosses the speech threshold still
// returns its samples at the cap; the transcriber decides whether
// anything intelligible was said.
func (r *Recorder) Record(ctx context.Context) ([]int16, int, error) {
	frames, cancel := r.src.Subscribe(64)
	defer cancel()

	started := time.Now()
	deadline := time.NewTimer(r.cfg.MaxDuration)
	defer deadline.Stop()

	var (
		samples    []int16
		speechSeen bool
		silentFor  time.Duration
	)

	finish := func(end string) ([]int16, int, error) {
		elapsed := time.Since(started)
		metricRecordings.WithLabelValues(end).Inc()
		metricRecordSeconds.Observe(elapsed.Seconds())
		log.Printf("[audio] recording ended: %s samples=%d elapsed=%s", end, len(samples), elapsed.Round(time.Millisecond))
		return samples, r.cfg.SampleRate, nil
	}

	for {
		select {
		case <-ctx.Done():
			metricRecordings.WithLabelValues("canceled").Inc()
			return nil, 0, ctx.Err()
		case <-deadline.C:
			return finish("max_duration")
		case frame, ok := <-frames:
			if !ok {
				if len(samples) > 0 {
					return finish("source_closed")
				}
				return nil, 0, fmt.Errorf("frame source closed before any audio arrived")
			}
			samples = append(samples, frame...)
			frameDur := time.Duration(len(frame)) * time.Second / time.Duration(r.cfg.SampleRate)
			if RMS(frame) >= r.cfg.MinRMS {
				speechSeen = true
				silentFor = 0
			} else if speechSeen {
				silentFor += frameDur
				if silentFor >= r.cfg.SilenceAfter {
					return finish("silence")
				}
			}
		}
	}
}
