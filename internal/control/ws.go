package control

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	ws "nhooyr.io/websocket"
)

// StateEvent is pushed to control websocket clients on every state
// transition.
type StateEvent struct {
	Type string    `json:"type"` // "state_change"
	From string    `json:"from"`
	To   string    `json:"to"`
	Ts   time.Time `json:"ts"`
}

type wsCommand struct {
	Command string `json:"command"`
}

type wsAck struct {
	Type     string `json:"type"` // "ack"
	OK       bool   `json:"ok"`
	Command  string `json:"command,omitempty"`
	Accepted bool   `json:"accepted,omitempty"`
	Error    string `json:"error,omitempty"`
}

// handleControlWS upgrades to a websocket that accepts command frames
// and receives state-change broadcasts. nhooyr serializes concurrent
// writers internally, so acks and hub broadcasts may interleave safely.
func (s *Server) handleControlWS(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	c, err := ws.Accept(w, r, nil)
	if err != nil {
		log.Printf("[control] ws accept: %v", err)
		return
	}
	id := s.hub.Add(c)
	log.Printf("[control] ws client %d connected", id)

	ctx := r.Context()
	s.writeJSON(ctx, c, map[string]any{
		"type":  "hello",
		"state": s.coord.Snapshot(),
	})

	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			break
		}
		if typ != ws.MessageText && typ != ws.MessageBinary {
			continue
		}
		var cmd wsCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			s.writeJSON(ctx, c, wsAck{Type: "ack", Error: "invalid frame"})
			continue
		}
		kind, err := parseKind(cmd.Command)
		if err != nil {
			s.writeJSON(ctx, c, wsAck{Type: "ack", Command: cmd.Command, Error: err.Error()})
			continue
		}
		accepted := s.coord.Signal(kind, "ws")
		metricSignals.WithLabelValues(string(kind)).Inc()
		s.writeJSON(ctx, c, wsAck{Type: "ack", OK: true, Command: cmd.Command, Accepted: accepted})
	}

	_ = c.Close(ws.StatusNormalClosure, "done")
	s.hub.Remove(id)
	log.Printf("[control] ws client %d disconnected", id)
}

func (s *Server) writeJSON(ctx context.Context, c *ws.Conn, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	wctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.Write(wctx, ws.MessageText, data); err != nil {
		log.Printf("[control] ws write: %v", err)
	}
}
