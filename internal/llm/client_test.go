package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tommygunn212/project-argo-sub000/internal/intent"
)

func testRequest() Request {
	return Request{
		Utterance:      "what time is it",
		Intent:         intent.Question,
		Verbosity:      intent.Brief,
		Persona:        intent.PersonaButler,
		ContextSummary: "Previous exchanges this session:\n1. User said: \"hello\" (greeting). You replied: \"Good day.\"\n",
	}
}

func TestGenerateSuccess(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":" It is noon. "}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-model", "", 5*time.Second)
	text, err := c.Generate(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "It is noon." {
		t.Fatalf("text = %q, want trimmed completion", text)
	}
	if got.Model != "test-model" || got.Stream {
		t.Fatalf("request model/stream = %q/%v", got.Model, got.Stream)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Role != "user" {
		t.Fatalf("messages = %+v", got.Messages)
	}
	if !strings.Contains(got.Messages[0].Content, "Previous exchanges") {
		t.Fatal("system prompt missing context summary")
	}
	if got.Messages[1].Content != "what time is it" {
		t.Fatalf("user message = %q", got.Messages[1].Content)
	}
}

func TestGenerateAuthHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "m", "sk-test", 5*time.Second)
	if _, err := c.Generate(context.Background(), testRequest()); err != nil {
		t.Fatalf("Generate: %v", err)
	}
}

func TestGenerateBackendErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "m", "", 5*time.Second)
	_, err := c.Generate(context.Background(), testRequest())
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("error = %v, want *GenerationError", err)
	}
	if genErr.Status != http.StatusInternalServerError {
		t.Fatalf("status = %d", genErr.Status)
	}

	// Unreachable backend.
	c = NewClient("http://127.0.0.1:1", "m", "", time.Second)
	if _, err := c.Generate(context.Background(), testRequest()); !errors.As(err, &genErr) {
		t.Fatalf("unreachable error = %v, want *GenerationError", err)
	}
}

func TestGenerateEmptyCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "m", "", 5*time.Second)
	var genErr *GenerationError
	if _, err := c.Generate(context.Background(), testRequest()); !errors.As(err, &genErr) {
		t.Fatalf("error = %v, want *GenerationError", err)
	}
}
