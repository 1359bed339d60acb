// Package trigger turns the continuous microphone feed into discrete
// voice signals. A rolling window of recent audio is transcribed on a
// fixed cadence and scanned for wake, stop, and sleep phrases. The
// spotter knows nothing about conversation state; the coordinator
// decides what a detection means.
package trigger

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// Class labels what kind of phrase was heard.
type Class string

const (
	ClassWake  Class = "wake"
	ClassStop  Class = "stop"
	ClassSleep Class = "sleep"
)

// Detection is one recognized phrase.
type Detection struct {
	Class  Class
	Phrase string // the configured phrase that matched
	Text   string // full window transcript it matched in
}

// Transcriber converts PCM16 samples to text.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []int16, sampleRate int) (string, float64, error)
}

// FrameSource delivers live capture frames.
type FrameSource interface {
	Subscribe(buffer int) (<-chan []int16, func())
}

// Config tunes the phrase spotter.
type Config struct {
	WakePhrases  []string
	StopPhrases  []string
	SleepPhrases []string
	SampleRate   int
	Window       time.Duration // rolling audio window transcribed each check
	Interval     time.Duration // check cadence
	Debounce     time.Duration // minimum gap between detections
}

func DefaultConfig() Config {
	return Config{
		WakePhrases:  []string{"hey argo", "okay argo"},
		StopPhrases:  []string{"stop"},
		SleepPhrases: []string{"go to sleep"},
		SampleRate:   16000,
		Window:       2 * time.Second,
		Interval:     500 * time.Millisecond,
		Debounce:     time.Second,
	}
}

// Spotter is the wake/stop/sleep phrase detector. It starts paused: the
// coordinator owns active status and resumes it when the session
// begins. Pause is synchronous — once Pause returns, no detection fires
// until the next Resume, and buffered audio is discarded so nothing
// heard before sleep is processed after it.
type Spotter struct {
	cfg Config
	stt Transcriber

	mu       sync.Mutex
	onDetect func(Detection)
	paused   bool
	pauseSeq uint64
	buf      []int16
	lastFire time.Time
	running  bool
	done     chan struct{}
}

func NewSpotter(cfg Config, stt Transcriber) (*Spotter, error) {
	if stt == nil {
		return nil, fmt.Errorf("trigger: transcriber is required")
	}
	if len(cfg.WakePhrases) == 0 {
		return nil, fmt.Errorf("trigger: at least one wake phrase is required")
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Window <= 0 {
		cfg.Window = 2 * time.Second
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 500 * time.Millisecond
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = time.Second
	}
	return &Spotter{cfg: cfg, stt: stt, paused: true}, nil
}

// OnDetect registers the detection callback. The callback runs with the
// spotter lock held so that Pause serializes with dispatch; it must not
// call back into the spotter.
func (s *Spotter) OnDetect(cb func(Detection)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDetect = cb
}

// Start begins consuming frames and checking for phrases. The spotter
// remains paused until Resume is called.
func (s *Spotter) Start(ctx context.Context, source FrameSource) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("trigger: already started")
	}
	s.running = true
	s.done = make(chan struct{})
	s.mu.Unlock()

	frames, cancel := source.Subscribe(64)
	go func() {
		defer cancel()
		s.run(ctx, frames)
	}()

	log.Printf("[trigger] started: wake=%v stop=%v sleep=%v window=%s interval=%s",
		s.cfg.WakePhrases, s.cfg.StopPhrases, s.cfg.SleepPhrases, s.cfg.Window, s.cfg.Interval)
	return nil
}

// Done is closed when the spotter loop has exited.
func (s *Spotter) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Pause stops all audio processing. Frames arriving while paused are
// dropped without being buffered, and any window transcription already
// in flight is discarded when it completes.
func (s *Spotter) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused {
		return
	}
	s.paused = true
	s.pauseSeq++
	s.buf = s.buf[:0]
	metricActive.Set(0)
	log.Printf("[trigger] paused, buffered audio dropped")
}

// Resume re-enables detection.
func (s *Spotter) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused {
		return
	}
	s.paused = false
	metricActive.Set(1)
	log.Printf("[trigger] resumed")
}

// Active reports whether the spotter is running and processing audio.
func (s *Spotter) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running && !s.paused
}

func (s *Spotter) run(ctx context.Context, frames <-chan []int16) {
	defer func() {
		s.mu.Lock()
		s.running = false
		done := s.done
		s.mu.Unlock()
		close(done)
		log.Printf("[trigger] stopped")
	}()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			s.ingest(frame)
		case <-ticker.C:
			s.check(ctx)
		}
	}
}

// ingest appends a frame to the rolling window, trimming from the front
// to keep at most Window seconds of audio.
func (s *Spotter) ingest(frame []int16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused {
		return
	}
	s.buf = append(s.buf, frame...)
	max := s.windowSamples()
	if len(s.buf) > max {
		s.buf = append(s.buf[:0], s.buf[len(s.buf)-max:]...)
	}
}

func (s *Spotter) windowSamples() int {
	return int(float64(s.cfg.SampleRate) * s.cfg.Window.Seconds())
}

// check transcribes the current window and dispatches at most one
// detection. Transcription runs outside the lock; the result is
// re-validated against the pause sequence before it can fire, so a
// Pause during an in-flight transcription suppresses the detection
// even if Resume follows.
func (s *Spotter) check(ctx context.Context) {
	s.mu.Lock()
	if s.paused || len(s.buf) < s.windowSamples()/2 {
		s.mu.Unlock()
		return
	}
	seq := s.pauseSeq
	window := make([]int16, len(s.buf))
	copy(window, s.buf)
	s.mu.Unlock()

	metricWindows.Inc()
	tctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	text, _, err := s.stt.Transcribe(tctx, window, s.cfg.SampleRate)
	cancel()
	if err != nil {
		metricFailures.Inc()
		log.Printf("[trigger] window transcription failed: %v", err)
		return
	}

	det, ok := s.classify(text)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused || s.pauseSeq != seq {
		return
	}
	if time.Since(s.lastFire) < s.cfg.Debounce {
		return
	}
	s.lastFire = time.Now()
	s.buf = s.buf[:0]
	metricDetections.WithLabelValues(string(det.Class)).Inc()
	log.Printf("[trigger] detected %s phrase %q in %q", det.Class, det.Phrase, det.Text)
	if s.onDetect != nil {
		s.onDetect(det)
	}
}

// classify scans a transcript for configured phrases. Stop outranks
// sleep outranks wake, mirroring signal priority, so a window that
// contains both "stop" and a wake phrase yields a stop.
func (s *Spotter) classify(text string) (Detection, bool) {
	lower := strings.ToLower(text)
	if lower == "" {
		return Detection{}, false
	}
	for _, p := range s.cfg.StopPhrases {
		if strings.Contains(lower, strings.ToLower(p)) {
			return Detection{Class: ClassStop, Phrase: p, Text: text}, true
		}
	}
	for _, p := range s.cfg.SleepPhrases {
		if strings.Contains(lower, strings.ToLower(p)) {
			return Detection{Class: ClassSleep, Phrase: p, Text: text}, true
		}
	}
	for _, p := range s.cfg.WakePhrases {
		if strings.Contains(lower, strings.ToLower(p)) {
			return Detection{Class: ClassWake, Phrase: p, Text: text}, true
		}
	}
	return Detection{}, false
}
