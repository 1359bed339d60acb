package control

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	ws "nhooyr.io/websocket"
)

// Hub keeps the set of control websocket connections and fans state
// changes out to them. Notify never blocks: the coordinator calls it
// from inside its transition path, so a slow watcher costs a dropped
// notification, not a stalled state machine.
type Hub struct {
	mu    sync.Mutex
	conns map[int]*ws.Conn
	next  int
	ch    chan any
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[int]*ws.Conn),
		ch:    make(chan any, 64),
	}
}

// Add registers a connection and returns its id for Remove.
func (h *Hub) Add(c *ws.Conn) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	h.conns[id] = c
	metricWSConnections.Set(float64(len(h.conns)))
	return id
}

func (h *Hub) Remove(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, id)
	metricWSConnections.Set(float64(len(h.conns)))
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Notify queues v for broadcast. Drops when the queue is full.
func (h *Hub) Notify(v any) {
	select {
	case h.ch <- v:
	default:
		metricBroadcastsDropped.Inc()
	}
}

// Run pumps queued notifications to every connection until ctx ends.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case v := <-h.ch:
			h.broadcast(ctx, v)
		}
	}
}

func (h *Hub) broadcast(ctx context.Context, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("[control] broadcast marshal: %v", err)
		return
	}

	h.mu.Lock()
	conns := make(map[int]*ws.Conn, len(h.conns))
	for id, c := range h.conns {
		conns[id] = c
	}
	h.mu.Unlock()

	for id, c := range conns {
		wctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := c.Write(wctx, ws.MessageText, data)
		cancel()
		if err != nil {
			c.Close(ws.StatusNormalClosure, "write failed")
			h.Remove(id)
		}
	}
}
