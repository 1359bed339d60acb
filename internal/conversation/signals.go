package conversation

import (
	"sync"
	"time"
)

// Kind classifies an interrupt-class signal.
type Kind string

const (
	KindStop       Kind = "stop"
	KindSleep      Kind = "sleep"
	KindPushToTalk Kind = "push_to_talk"
	KindWake       Kind = "wake"
)

// Priority orders simultaneous signals: stop > sleep > push-to-talk >
// wake-word. A lower-priority signal offered while a higher one is
// pending is discarded, never queued.
func (k Kind) Priority() int {
	switch k {
	case KindStop:
		return 4
	case KindSleep:
		return 3
	case KindPushToTalk:
		return 2
	case KindWake:
		return 1
	}
	return 0
}

// Signal is one external command or detection offered to the loop.
type Signal struct {
	Kind   Kind      `json:"kind"`
	Source string    `json:"source"`
	At     time.Time `json:"at"`
}

// slot is the single-element mailbox between signal producers (trigger
// goroutine, control server) and the foreground loop, which is its only
// consumer. It holds at most one pending signal.
type slot struct {
	mu      sync.Mutex
	pending *Signal
	ch      chan struct{}
}

func newSlot() *slot {
	return &slot{ch: make(chan struct{}, 1)}
}

// offer places a signal in the slot, replacing a lower-priority pending
// one. Returns false when the signal was discarded.
func (s *slot) offer(sig Signal) bool {
	s.mu.Lock()
	if s.pending != nil {
		if sig.Kind.Priority() <= s.pending.Kind.Priority() {
			s.mu.Unlock()
			metricSignalsDiscarded.WithLabelValues(string(sig.Kind)).Inc()
			return false
		}
		metricSignalsDiscarded.WithLabelValues(string(s.pending.Kind)).Inc()
	}
	s.pending = &sig
	select {
	case s.ch <- struct{}{}:
	default:
	}
	s.mu.Unlock()
	metricSignalsAccepted.WithLabelValues(string(sig.Kind)).Inc()
	return true
}

// take pops the pending signal, if any.
func (s *slot) take() (Signal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return Signal{}, false
	}
	sig := *s.pending
	s.pending = nil
	return sig, true
}

// takeInterrupt pops a pending stop or sleep signal at a turn
// checkpoint. A pending wake or push-to-talk is discarded: mid-turn,
// trigger detections are ignored rather than deferred.
func (s *slot) takeInterrupt() *Signal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil
	}
	sig := *s.pending
	s.pending = nil
	switch sig.Kind {
	case KindStop, KindSleep:
		return &sig
	}
	metricSignalsDiscarded.WithLabelValues(string(sig.Kind)).Inc()
	return nil
}

// notify signals that the slot may hold a pending signal. Spurious
// wakeups are possible; callers must tolerate an empty take.
func (s *slot) notify() <-chan struct{} { return s.ch }
