// Package journal records session events: state transitions, turns,
// interrupts, loop exits. Recent events are held in memory for the
// control surface; when a database path is configured they are also
// persisted to SQLite through a background writer so the hot path
// never blocks on disk.
package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// maxRecent caps the in-memory event window.
const maxRecent = 200

// Event is one journal entry.
type Event struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	Type      string         `json:"type"`
	Ts        time.Time      `json:"ts"`
	Detail    map[string]any `json:"detail,omitempty"`
}

// Journal collects events for one assistant process.
type Journal struct {
	sessionID string

	mu      sync.Mutex
	entropy *rand.Rand
	recent  []Event
	closed  bool

	db   *sql.DB
	ch   chan Event
	done chan struct{}
}

// New creates a journal. An empty dbPath disables persistence; events
// are then only kept in the in-memory window.
func New(sessionID, dbPath string) (*Journal, error) {
	j := &Journal{
		sessionID: sessionID,
		entropy:   rand.New(rand.NewSource(time.Now().UnixNano())),
		recent:    make([]Event, 0, maxRecent),
	}
	if dbPath == "" {
		log.Printf("[journal] persistence disabled")
		return j, nil
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate journal db: %w", err)
	}

	j.db = db
	j.ch = make(chan Event, 256)
	j.done = make(chan struct{})
	go j.writer()

	log.Printf("[journal] persisting to %s", dbPath)
	return j, nil
}

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id         TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		type       TEXT NOT NULL,
		ts         TEXT NOT NULL,
		detail     TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_events_session_ts ON events(session_id, ts);
	`
	_, err := db.Exec(schema)
	return err
}

// Append records an event. It never blocks: if the write queue is full
// the event is kept in memory but dropped from persistence.
func (j *Journal) Append(typ string, detail map[string]any) {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return
	}
	e := Event{
		ID:        ulid.MustNew(ulid.Timestamp(time.Now()), j.entropy).String(),
		SessionID: j.sessionID,
		Type:      typ,
		Ts:        time.Now().UTC(),
		Detail:    detail,
	}
	if len(j.recent) == maxRecent {
		copy(j.recent, j.recent[1:])
		j.recent[len(j.recent)-1] = e
	} else {
		j.recent = append(j.recent, e)
	}
	ch := j.ch
	j.mu.Unlock()

	metricEvents.WithLabelValues(typ).Inc()
	if ch == nil {
		return
	}
	select {
	case ch <- e:
	default:
		metricDropped.Inc()
		log.Printf("[journal] write queue full, event %s dropped from persistence", typ)
	}
}

// Recent returns up to n events, newest first.
func (j *Journal) Recent(n int) []Event {
	j.mu.Lock()
	defer j.mu.Unlock()
	if n <= 0 || n > len(j.recent) {
		n = len(j.recent)
	}
	out := make([]Event, n)
	for i := 0; i < n; i++ {
		out[i] = j.recent[len(j.recent)-1-i]
	}
	return out
}

// Close flushes pending writes and closes the database.
func (j *Journal) Close() error {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return nil
	}
	j.closed = true
	ch := j.ch
	j.mu.Unlock()

	if ch == nil {
		return nil
	}
	close(ch)
	<-j.done
	return j.db.Close()
}

func (j *Journal) writer() {
	defer close(j.done)
	for e := range j.ch {
		detail := "{}"
		if e.Detail != nil {
			b, err := json.Marshal(e.Detail)
			if err != nil {
				log.Printf("[journal] detail marshal failed for %s: %v", e.Type, err)
			} else {
				detail = string(b)
			}
		}
		_, err := j.db.Exec(
			`INSERT INTO events (id, session_id, type, ts, detail) VALUES (?, ?, ?, ?, ?)`,
			e.ID, e.SessionID, e.Type, e.Ts.Format(time.RFC3339Nano), detail,
		)
		if err != nil {
			metricWriteFailures.Inc()
			log.Printf("[journal] write failed: %v", err)
		}
	}
}
