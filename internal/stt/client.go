package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// TranscriptionError marks per-turn transcription failures (empty or
// malformed audio, unreachable engine, empty transcript).
type TranscriptionError struct {
	Reason string
}

func (e *TranscriptionError) Error() string {
	return "transcription failed: " + e.Reason
}

type inferenceResponse struct {
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// Client talks to a whisper.cpp-compatible inference server. Audio is
// uploaded as a 16-bit PCM WAV file in a multipart form.
type Client struct {
	url string
	hc  *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{url: url, hc: &http.Client{Timeout: timeout}}
}

// Transcribe performs one blocking transcription of the captured samples.
func (c *Client) Transcribe(ctx context.Context, samples []int16, sampleRate int) (string, float64, error) {
	if len(samples) == 0 {
		metricFailures.Inc()
		return "", 0, &TranscriptionError{Reason: "empty audio"}
	}
	if sampleRate <= 0 {
		metricFailures.Inc()
		return "", 0, &TranscriptionError{Reason: fmt.Sprintf("malformed audio: sample rate %d", sampleRate)}
	}
	start := time.Now()
	metricRequests.Inc()
	metricAudioSeconds.Add(float64(len(samples)) / float64(sampleRate))

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	part, err := mw.CreateFormFile("file", "capture.wav")
	if err != nil {
		metricFailures.Inc()
		return "", 0, &TranscriptionError{Reason: fmt.Sprintf("encode form: %v", err)}
	}
	if err := writeWAV(part, samples, sampleRate); err != nil {
		metricFailures.Inc()
		return "", 0, &TranscriptionError{Reason: fmt.Sprintf("encode wav: %v", err)}
	}
	_ = mw.WriteField("response_format", "json")
	if err := mw.Close(); err != nil {
		metricFailures.Inc()
		return "", 0, &TranscriptionError{Reason: fmt.Sprintf("encode form: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &form)
	if err != nil {
		metricFailures.Inc()
		return "", 0, &TranscriptionError{Reason: err.Error()}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.hc.Do(req)
	if err != nil {
		metricFailures.Inc()
		return "", 0, &TranscriptionError{Reason: fmt.Sprintf("engine unreachable: %v", err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		metricFailures.Inc()
		return "", 0, &TranscriptionError{Reason: fmt.Sprintf("read response: %v", err)}
	}
	if resp.StatusCode != http.StatusOK {
		metricFailures.Inc()
		return "", 0, &TranscriptionError{Reason: fmt.Sprintf("engine status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))}
	}

	var parsed inferenceResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		metricFailures.Inc()
		return "", 0, &TranscriptionError{Reason: fmt.Sprintf("decode response: %v", err)}
	}
	if parsed.Error != "" {
		metricFailures.Inc()
		return "", 0, &TranscriptionError{Reason: parsed.Error}
	}

	text := strings.TrimSpace(parsed.Text)
	if text == "" {
		metricFailures.Inc()
		return "", 0, &TranscriptionError{Reason: "empty transcript"}
	}
	confidence := 1.0
	if parsed.Confidence != nil {
		confidence = *parsed.Confidence
	}
	metricLatencyMS.Observe(float64(time.Since(start).Milliseconds()))
	log.Printf("[stt] transcribed %.1fs of audio in %s", float64(len(samples))/float64(sampleRate), time.Since(start).Round(time.Millisecond))
	return text, confidence, nil
}
