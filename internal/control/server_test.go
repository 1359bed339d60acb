package control

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "nhooyr.io/websocket"

	"github.com/tommygunn212/project-argo-sub000/internal/config"
	"github.com/tommygunn212/project-argo-sub000/internal/conversation"
	"github.com/tommygunn212/project-argo-sub000/internal/journal"
	"github.com/tommygunn212/project-argo-sub000/internal/memory"
)

type fakeController struct {
	mu      sync.Mutex
	signals []conversation.Kind
	mem     *memory.Memory
}

func newFakeController(t *testing.T) *fakeController {
	t.Helper()
	mem, err := memory.New(3, "test-session")
	if err != nil {
		t.Fatalf("memory.New: %v", err)
	}
	return &fakeController{mem: mem}
}

func (f *fakeController) Signal(kind conversation.Kind, source string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signals = append(f.signals, kind)
	return true
}

func (f *fakeController) Snapshot() conversation.Status {
	return conversation.Status{
		SessionID:     "test-session",
		State:         conversation.StateListening,
		InteractionID: 4,
		Turns:         2,
		Memory:        f.mem.Stats(),
	}
}

func (f *fakeController) Memory() *memory.Memory { return f.mem }
func (f *fakeController) SessionID() string      { return "test-session" }

func (f *fakeController) lastSignal() (conversation.Kind, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.signals) == 0 {
		return "", false
	}
	return f.signals[len(f.signals)-1], true
}

func newTestServer(t *testing.T, token string, events EventSource) (*Server, *fakeController, *httptest.Server) {
	t.Helper()
	var cfg config.Config
	cfg.Server.Addr = ":0"
	cfg.Server.ControlToken = token
	coord := newFakeController(t)
	s := NewServer(cfg, coord, events)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, coord, ts
}

func TestHealthz(t *testing.T) {
	_, _, ts := newTestServer(t, "", nil)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestStateEndpoint(t *testing.T) {
	_, _, ts := newTestServer(t, "", nil)

	resp, err := http.Get(ts.URL + "/state")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	var status conversation.Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.SessionID != "test-session" || status.State != conversation.StateListening {
		t.Fatalf("unexpected status: %+v", status)
	}
	if status.InteractionID != 4 {
		t.Fatalf("interaction id = %d, want 4", status.InteractionID)
	}
}

func TestMemoryEndpoint(t *testing.T) {
	_, coord, ts := newTestServer(t, "", nil)
	coord.mem.Append(memory.Record{Utterance: "hello", Response: "hi there"})

	resp, err := http.Get(ts.URL + "/session/memory")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Stats     memory.Stats    `json:"stats"`
		Exchanges []memory.Record `json:"exchanges"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Stats.Count != 1 || len(body.Exchanges) != 1 {
		t.Fatalf("unexpected memory body: %+v", body)
	}
	if body.Exchanges[0].Utterance != "hello" {
		t.Fatalf("exchange = %+v", body.Exchanges[0])
	}
}

func TestEventsEndpoint(t *testing.T) {
	jn, err := journal.New("test-session", "")
	if err != nil {
		t.Fatalf("journal.New: %v", err)
	}
	defer jn.Close()
	jn.Append("session_started", nil)
	jn.Append("turn_completed", map[string]any{"interaction_id": 1})

	_, _, ts := newTestServer(t, "", jn)

	resp, err := http.Get(ts.URL + "/session/events?limit=10")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		SessionID string          `json:"session_id"`
		Events    []journal.Event `json:"events"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Events) != 2 || body.Events[0].Type != "turn_completed" {
		t.Fatalf("unexpected events: %+v", body.Events)
	}
}

func TestEventsEndpointJournalDisabled(t *testing.T) {
	_, _, ts := newTestServer(t, "", nil)

	resp, err := http.Get(ts.URL + "/session/events")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 with journal disabled, got %d", resp.StatusCode)
	}
}

func postSignal(t *testing.T, url, bearer, command string) *http.Response {
	t.Helper()
	body := bytes.NewBufferString(fmt.Sprintf(`{"command":%q}`, command))
	req, err := http.NewRequest(http.MethodPost, url+"/signal", body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	return resp
}

func TestSignalEndpoint(t *testing.T) {
	_, coord, ts := newTestServer(t, "", nil)

	resp := postSignal(t, ts.URL, "", "stop")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var ack struct {
		OK       bool `json:"ok"`
		Accepted bool `json:"accepted"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !ack.OK || !ack.Accepted {
		t.Fatalf("unexpected ack: %+v", ack)
	}
	if kind, ok := coord.lastSignal(); !ok || kind != conversation.KindStop {
		t.Fatalf("signal not forwarded: %v %v", kind, ok)
	}
}

func TestSignalEndpointRejectsUnknownCommand(t *testing.T) {
	_, _, ts := newTestServer(t, "", nil)

	resp := postSignal(t, ts.URL, "", "reboot")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestSignalEndpointAuth(t *testing.T) {
	_, coord, ts := newTestServer(t, "hush", nil)

	resp := postSignal(t, ts.URL, "", "stop")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
	if _, ok := coord.lastSignal(); ok {
		t.Fatal("unauthorized signal reached the coordinator")
	}

	tok := GenerateToken("hush", TokenSubject, time.Now().Add(time.Hour).Unix())
	resp = postSignal(t, ts.URL, tok, "sleep")
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with valid token, got %d", resp.StatusCode)
	}
	if kind, ok := coord.lastSignal(); !ok || kind != conversation.KindSleep {
		t.Fatalf("signal not forwarded: %v %v", kind, ok)
	}
}

func TestParseKind(t *testing.T) {
	cases := map[string]conversation.Kind{
		"stop":         conversation.KindStop,
		"SLEEP":        conversation.KindSleep,
		" wake ":       conversation.KindWake,
		"ptt":          conversation.KindPushToTalk,
		"push_to_talk": conversation.KindPushToTalk,
	}
	for in, want := range cases {
		got, err := parseKind(in)
		if err != nil || got != want {
			t.Fatalf("parseKind(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := parseKind("dance"); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestControlWS(t *testing.T) {
	s, coord, ts := newTestServer(t, "", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go s.Hub().Run(ctx)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/control"
	c, _, err := ws.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close(ws.StatusNormalClosure, "done")

	// First frame is the hello with a state snapshot.
	_, data, err := c.Read(ctx)
	if err != nil {
		t.Fatalf("read hello: %v", err)
	}
	var hello struct {
		Type  string              `json:"type"`
		State conversation.Status `json:"state"`
	}
	if err := json.Unmarshal(data, &hello); err != nil {
		t.Fatalf("decode hello: %v", err)
	}
	if hello.Type != "hello" || hello.State.SessionID != "test-session" {
		t.Fatalf("unexpected hello: %s", data)
	}

	// Inject a command and read the ack.
	if err := c.Write(ctx, ws.MessageText, []byte(`{"command":"ptt"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, data, err = c.Read(ctx)
	if err != nil {
		t.Fatalf("read ack: %v", err)
	}
	var ack wsAck
	if err := json.Unmarshal(data, &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if !ack.OK || !ack.Accepted || ack.Command != "ptt" {
		t.Fatalf("unexpected ack: %+v", ack)
	}
	if kind, ok := coord.lastSignal(); !ok || kind != conversation.KindPushToTalk {
		t.Fatalf("signal not forwarded: %v %v", kind, ok)
	}

	// State changes fan out through the hub.
	s.Hub().Notify(StateEvent{Type: "state_change", From: "listening", To: "thinking", Ts: time.Now()})
	_, data, err = c.Read(ctx)
	if err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	var ev StateEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("decode broadcast: %v", err)
	}
	if ev.Type != "state_change" || ev.To != "thinking" {
		t.Fatalf("unexpected broadcast: %s", data)
	}
}
