// Package control is the local HTTP surface of the assistant: liveness
// and readiness probes, Prometheus metrics, read-only session
// inspection, and a websocket channel that injects stop/sleep/wake/
// push-to-talk signals and streams state changes back out.
package control

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tommygunn212/project-argo-sub000/internal/config"
	"github.com/tommygunn212/project-argo-sub000/internal/conversation"
	"github.com/tommygunn212/project-argo-sub000/internal/health"
	"github.com/tommygunn212/project-argo-sub000/internal/journal"
	"github.com/tommygunn212/project-argo-sub000/internal/memory"
)

// Controller is the slice of the coordinator the control surface uses.
type Controller interface {
	Signal(kind conversation.Kind, source string) bool
	Snapshot() conversation.Status
	Memory() *memory.Memory
	SessionID() string
}

// EventSource serves recent journal events.
type EventSource interface {
	Recent(n int) []journal.Event
}

type Server struct {
	cfg    config.Config
	coord  Controller
	events EventSource
	hub    *Hub
	srv    *http.Server
}

// NewServer wires the control routes. events may be nil when the
// journal is disabled.
func NewServer(cfg config.Config, coord Controller, events EventSource) *Server {
	s := &Server{
		cfg:    cfg,
		coord:  coord,
		events: events,
		hub:    NewHub(),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/readyz", s.handleReady)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/state", s.handleState)
	mux.HandleFunc("/session/events", s.handleEvents)
	mux.HandleFunc("/session/memory", s.handleMemory)
	mux.HandleFunc("/signal", s.handleSignal)
	mux.HandleFunc("/ws/control", s.handleControlWS)

	s.srv = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           logMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Hub exposes the broadcast hub so the coordinator's transition hook
// can be wired to it.
func (s *Server) Hub() *Hub { return s.hub }

// ListenAndServe blocks serving the control surface.
func (s *Server) ListenAndServe() error {
	if s.cfg.Server.ControlToken == "" {
		log.Printf("[control] ARGO_CONTROL_TOKEN not set; signal endpoints are unauthenticated")
	}
	log.Printf("[control] listening on %s", s.cfg.Server.Addr)
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler returns the full route stack, for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	status := health.CheckAll(ctx, s.cfg, nil)
	w.Header().Set("Content-Type", "application/json")
	if !status.OK {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.coord.Snapshot())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.events == nil {
		http.Error(w, "journal disabled", http.StatusNotFound)
		return
	}
	limit := 50
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"session_id": s.coord.SessionID(),
		"events":     s.events.Recent(limit),
	})
}

func (s *Server) handleMemory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	mem := s.coord.Memory()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"stats":     mem.Stats(),
		"exchanges": mem.Recent(0),
	})
}

func (s *Server) handleSignal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.authorized(r) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	var req struct {
		Command string `json:"command"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	kind, err := parseKind(req.Command)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	accepted := s.coord.Signal(kind, "http")
	metricSignals.WithLabelValues(string(kind)).Inc()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok":       true,
		"command":  req.Command,
		"accepted": accepted,
	})
}

// authorized checks the bearer token on mutating endpoints. An empty
// configured token disables auth for local use.
func (s *Server) authorized(r *http.Request) bool {
	secret := s.cfg.Server.ControlToken
	if secret == "" {
		return true
	}
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		return false
	}
	token := strings.TrimPrefix(authz, "Bearer ")
	_, err := ValidateToken(secret, token, TokenSubject, time.Now(), 30)
	return err == nil
}

func parseKind(command string) (conversation.Kind, error) {
	switch strings.ToLower(strings.TrimSpace(command)) {
	case "stop":
		return conversation.KindStop, nil
	case "sleep":
		return conversation.KindSleep, nil
	case "wake":
		return conversation.KindWake, nil
	case "ptt", "push_to_talk":
		return conversation.KindPushToTalk, nil
	default:
		return "", fmt.Errorf("unknown command %q", command)
	}
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
