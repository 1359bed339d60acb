// argo-stub is a development stand-in for the transcription and
// generation sidecars. It answers the whisper-server /inference route
// and the OpenAI-style /v1/chat/completions route with canned text so
// the assistant can run end to end without real models:
//
//	argo-stub --addr :8082 --transcript "hey argo what time is it"
//	ARGO_STT_URL=http://127.0.0.1:8082/inference \
//	ARGO_LLM_URL=http://127.0.0.1:8082/v1/chat/completions argo run
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	addr       = flag.String("addr", ":8082", "stub listen addr")
	transcript = flag.String("transcript", "hey argo what time is it", "transcript returned for every /inference call")
	reply      = flag.String("reply", "You said: %s", "reply template for /v1/chat/completions; %s is the last user message")
)

func main() {
	flag.Parse()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok\n")) })
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok\n")) })
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/inference", handleInference)
	mux.HandleFunc("/v1/chat/completions", handleChat)

	log.Printf("argo-stub listening on %s (transcript=%q)", *addr, *transcript)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		log.Fatalf("serve: %v", err)
	}
}

// handleInference mimics whisper-server: accepts a multipart upload and
// returns a transcript. The audio itself is discarded.
func handleInference(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "expected multipart form", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"text":       *transcript,
		"confidence": 0.99,
	})
}

// handleChat mimics the OpenAI chat completions shape the generator
// client speaks.
func handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	last := ""
	for _, m := range req.Messages {
		if m.Role == "user" {
			last = m.Content
		}
	}
	content := fmt.Sprintf(*reply, last)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"model": req.Model,
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	})
}
