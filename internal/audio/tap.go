package audio

import (
	"log"
	"sync"
)

// Tap fans captured frames out to any number of subscribers. The wake
// word spotter and the utterance recorder each hold a subscription, so
// a single microphone stream serves both. Publish never blocks: a
// subscriber that falls behind loses frames rather than stalling the
// capture callback.
type Tap struct {
	mu     sync.Mutex
	subs   map[int]chan []int16
	nextID int
	closed bool
}

func NewTap() *Tap {
	return &Tap{subs: make(map[int]chan []int16)}
}

// Subscribe registers a new frame consumer. The returned cancel func
// removes the subscription and closes the channel.
func (t *Tap) Subscribe(buffer int) (<-chan []int16, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan []int16, buffer)

	t.mu.Lock()
	id := t.nextID
	t.nextID++
	if t.closed {
		t.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	t.subs[id] = ch
	t.mu.Unlock()

	cancel := func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if sub, ok := t.subs[id]; ok {
			delete(t.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers a frame to every subscriber. Each subscriber gets
// its own copy since consumers hold frames across channel reads.
func (t *Tap) Publish(frame []int16) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	for id, ch := range t.subs {
		cp := make([]int16, len(frame))
		copy(cp, frame)
		select {
		case ch <- cp:
			metricFramesPublished.Inc()
		default:
			metricFramesDropped.Inc()
			log.Printf("[audio] subscriber %d lagging, frame dropped", id)
		}
	}
}

// Close shuts down all subscriptions. Publish becomes a no-op.
func (t *Tap) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	for id, ch := range t.subs {
		delete(t.subs, id)
		close(ch)
	}
}

// Subscribers reports the current subscription count.
func (t *Tap) Subscribers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}
