package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/tommygunn212/project-argo-sub000/internal/intent"
)

// GenerationError marks per-turn generation failures (backend unreachable,
// bad status, empty completion). Recoverable at the turn boundary.
type GenerationError struct {
	Status int
	Msg    string
}

func (e *GenerationError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("generation failed: %s (status %d)", e.Msg, e.Status)
	}
	return fmt.Sprintf("generation failed: %s", e.Msg)
}

// Request carries everything the generator may see for one turn. The
// context summary is the only cross-turn input.
type Request struct {
	Utterance      string
	Intent         intent.Intent
	Verbosity      intent.Verbosity
	Persona        intent.Persona
	ContextSummary string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Client talks to an OpenAI-compatible chat completions endpoint
// (Ollama, llama.cpp server, or a hosted API).
type Client struct {
	url    string
	model  string
	apiKey string
	hc     *http.Client
}

func NewClient(url, model, apiKey string, timeout time.Duration) *Client {
	return &Client{
		url:    url,
		model:  model,
		apiKey: apiKey,
		hc:     &http.Client{Timeout: timeout},
	}
}

// Generate performs one blocking chat completion.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	metricRequests.Inc()

	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: buildMessages(req),
		Stream:   false,
	})
	if err != nil {
		metricFailures.Inc()
		return "", &GenerationError{Msg: fmt.Sprintf("encode request: %v", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		metricFailures.Inc()
		return "", &GenerationError{Msg: err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		metricFailures.Inc()
		return "", &GenerationError{Msg: fmt.Sprintf("backend unreachable: %v", err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		metricFailures.Inc()
		return "", &GenerationError{Status: resp.StatusCode, Msg: fmt.Sprintf("read response: %v", err)}
	}
	if resp.StatusCode != http.StatusOK {
		metricFailures.Inc()
		return "", &GenerationError{Status: resp.StatusCode, Msg: strings.TrimSpace(string(data))}
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		metricFailures.Inc()
		return "", &GenerationError{Status: resp.StatusCode, Msg: fmt.Sprintf("decode response: %v", err)}
	}
	if parsed.Error != nil {
		metricFailures.Inc()
		return "", &GenerationError{Status: resp.StatusCode, Msg: parsed.Error.Message}
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		metricFailures.Inc()
		return "", &GenerationError{Status: resp.StatusCode, Msg: "empty completion"}
	}

	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	metricLatencyMS.Observe(float64(time.Since(start).Milliseconds()))
	log.Printf("[llm] completion in %s (%d chars)", time.Since(start).Round(time.Millisecond), len(text))
	return text, nil
}

// buildMessages renders the fixed prompt fragments plus the bounded
// session summary into a chat message list.
func buildMessages(req Request) []chatMessage {
	var sys strings.Builder
	sys.WriteString(req.Persona.PromptFragment())
	sys.WriteString(" ")
	sys.WriteString(req.Intent.PromptFragment())
	sys.WriteString(" ")
	sys.WriteString(req.Verbosity.PromptFragment())
	if req.ContextSummary != "" {
		sys.WriteString("\n\n")
		sys.WriteString(req.ContextSummary)
	}
	return []chatMessage{
		{Role: "system", Content: sys.String()},
		{Role: "user", Content: req.Utterance},
	}
}
