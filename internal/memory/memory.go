package memory

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

var ErrInvalidCapacity = errors.New("session memory capacity must be a positive integer")

// Record is one completed exchange. Immutable once appended.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	Utterance string    `json:"user_utterance"`
	Intent    string    `json:"parsed_intent"`
	Response  string    `json:"generated_response"`
}

// Stats is a point-in-time snapshot of the buffer.
type Stats struct {
	SessionID  string  `json:"session_id"`
	Capacity   int     `json:"capacity"`
	Count      int     `json:"count"`
	Full       bool    `json:"full"`
	Empty      bool    `json:"empty"`
	AgeSeconds float64 `json:"age_seconds"`
}

// Memory is a fixed-capacity ring buffer of the most recent interaction
// records. Append evicts the oldest record at capacity; it never fails.
type Memory struct {
	mu        sync.RWMutex
	records   []Record
	next      int
	count     int
	capacity  int
	sessionID string
	createdAt time.Time
}

func New(capacity int, sessionID string) (*Memory, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	return &Memory{
		records:   make([]Record, capacity),
		capacity:  capacity,
		sessionID: sessionID,
		createdAt: time.Now(),
	}, nil
}

// Append stores a record, evicting the oldest when full. O(1).
func (m *Memory) Append(rec Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.count == m.capacity {
		log.Printf("[memory] at capacity (%d), evicting oldest record", m.capacity)
	}
	m.records[m.next] = rec
	m.next = (m.next + 1) % m.capacity
	if m.count < m.capacity {
		m.count++
	}
}

// Recent returns up to n records, newest first. n <= 0 returns all.
func (m *Memory) Recent(n int) []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n <= 0 || n > m.count {
		n = m.count
	}
	out := make([]Record, 0, n)
	for i := 1; i <= n; i++ {
		idx := (m.next - i + m.capacity) % m.capacity
		out = append(out, m.records[idx])
	}
	return out
}

// ContextSummary renders the buffer oldest-first as a prompt fragment.
// Pure function of current contents; empty buffer yields "".
func (m *Memory) ContextSummary() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.count == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Previous exchanges this session:\n")
	for i := m.count; i >= 1; i-- {
		idx := (m.next - i + m.capacity) % m.capacity
		rec := m.records[idx]
		fmt.Fprintf(&b, "%d. User said: %q (%s). You replied: %q\n", m.count-i+1, rec.Utterance, rec.Intent, rec.Response)
	}
	return b.String()
}

func (m *Memory) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{
		SessionID:  m.sessionID,
		Capacity:   m.capacity,
		Count:      m.count,
		Full:       m.count == m.capacity,
		Empty:      m.count == 0,
		AgeSeconds: time.Since(m.createdAt).Seconds(),
	}
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.count
}

// Clear empties the buffer. Called once, at loop exit.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.records {
		m.records[i] = Record{}
	}
	m.next = 0
	m.count = 0
	log.Printf("[memory] cleared session buffer (session=%s)", m.sessionID)
}
