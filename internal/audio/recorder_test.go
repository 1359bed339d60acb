package audio

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeSource struct {
	ch chan []int16
}

func (f *fakeSource) Subscribe(buffer int) (<-chan []int16, func()) {
	return f.ch, func() {}
}

// frame builds a constant-amplitude frame. 160 samples at 16 kHz is
// 10 ms, which keeps test durations small.
func frame(amplitude int16) []int16 {
	f := make([]int16, 160)
	for i := range f {
		f[i] = amplitude
	}
	return f
}

func TestRecordEndsOnTrailingSilence(t *testing.T) {
	src := &fakeSource{ch: make(chan []int16, 32)}
	for i := 0; i < 5; i++ {
		src.ch <- frame(2000) // 50 ms of speech
	}
	for i := 0; i < 20; i++ {
		src.ch <- frame(0)
	}

	rec := NewRecorder(src, RecorderConfig{
		SampleRate:   16000,
		MaxDuration:  5 * time.Second,
		SilenceAfter: 40 * time.Millisecond,
		MinRMS:       500,
	})

	samples, rate, err := rec.Record(context.Background())
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if rate != 16000 {
		t.Fatalf("rate = %d, want 16000", rate)
	}
	// 5 speech frames plus 4 silent frames (40 ms) = 9 frames.
	if want := 9 * 160; len(samples) != want {
		t.Fatalf("samples = %d, want %d", len(samples), want)
	}
}

func TestRecordLeadingSilenceDoesNotEndUtterance(t *testing.T) {
	src := &fakeSource{ch: make(chan []int16, 64)}
	for i := 0; i < 10; i++ {
		src.ch <- frame(0) // 100 ms of silence before any speech
	}
	for i := 0; i < 3; i++ {
		src.ch <- frame(2000)
	}
	for i := 0; i < 10; i++ {
		src.ch <- frame(0)
	}

	rec := NewRecorder(src, RecorderConfig{
		SampleRate:   16000,
		MaxDuration:  5 * time.Second,
		SilenceAfter: 30 * time.Millisecond,
		MinRMS:       500,
	})

	samples, _, err := rec.Record(context.Background())
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	// 10 leading + 3 speech + 3 trailing silence frames.
	if want := 16 * 160; len(samples) != want {
		t.Fatalf("samples = %d, want %d", len(samples), want)
	}
}

func TestRecordStopsAtMaxDuration(t *testing.T) {
	src := &fakeSource{ch: make(chan []int16, 8)}
	for i := 0; i < 3; i++ {
		src.ch <- frame(2000)
	}
	// No trailing silence arrives; the cap must end the recording.

	rec := NewRecorder(src, RecorderConfig{
		SampleRate:   16000,
		MaxDuration:  80 * time.Millisecond,
		SilenceAfter: time.Second,
		MinRMS:       500,
	})

	start := time.Now()
	samples, _, err := rec.Record(context.Background())
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("recording ran %s past the cap", elapsed)
	}
	if want := 3 * 160; len(samples) != want {
		t.Fatalf("samples = %d, want %d", len(samples), want)
	}
}

func TestRecordCancel(t *testing.T) {
	src := &fakeSource{ch: make(chan []int16)}
	rec := NewRecorder(src, DefaultRecorderConfig())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, _, err := rec.Record(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRecordSourceClosed(t *testing.T) {
	src := &fakeSource{ch: make(chan []int16)}
	close(src.ch)
	rec := NewRecorder(src, DefaultRecorderConfig())

	if _, _, err := rec.Record(context.Background()); err == nil {
		t.Fatal("expected error when source closes with no audio")
	}
}
