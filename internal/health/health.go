package health

import (
	"context"
	"fmt"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/tommygunn212/project-argo-sub000/internal/audio"
	"github.com/tommygunn212/project-argo-sub000/internal/config"
)

type CheckResult struct {
	Name    string        `json:"name"`
	OK      bool          `json:"ok"`
	Latency time.Duration `json:"latency_ms"`
	Error   string        `json:"error,omitempty"`
}

type HealthStatus struct {
	OK        bool          `json:"ok"`
	Checks    []CheckResult `json:"checks"`
	CheckedAt time.Time     `json:"checked_at"`
}

func (h HealthStatus) String() string {
	status := "OK"
	if !h.OK {
		status = "FAIL"
	}
	s := fmt.Sprintf("Health: %s\n", status)
	for _, c := range h.Checks {
		mark := "✓"
		if !c.OK {
			mark = "✗"
		}
		s += fmt.Sprintf("  %s %s (%dms)", mark, c.Name, c.Latency.Milliseconds())
		if c.Error != "" {
			s += fmt.Sprintf(" - %s", c.Error)
		}
		s += "\n"
	}
	return s
}

// DeviceLister enumerates audio input devices. Passing nil skips the
// audio check, for contexts where the capture device is already held.
type DeviceLister func() ([]audio.Device, error)

// CheckAll runs all health checks and returns combined status
func CheckAll(ctx context.Context, cfg config.Config, devices DeviceLister) HealthStatus {
	checks := []CheckResult{
		checkEndpoint(ctx, "stt", cfg.STT.URL),
		checkEndpoint(ctx, "llm", cfg.LLM.URL),
		checkTTS(cfg),
	}
	if devices != nil {
		checks = append(checks, checkAudio(devices))
	}

	allOK := true
	for _, c := range checks {
		if !c.OK {
			allOK = false
		}
	}

	return HealthStatus{
		OK:        allOK,
		Checks:    checks,
		CheckedAt: time.Now().UTC(),
	}
}

// checkEndpoint probes a collaborator URL for reachability. Any HTTP
// response below 500 counts: the STT and LLM sidecars answer their real
// endpoints with 404/405 on a bare GET, which still proves the process
// is up and listening.
func checkEndpoint(ctx context.Context, name, url string) CheckResult {
	start := time.Now()
	result := CheckResult{Name: name}

	if url == "" {
		result.Error = fmt.Sprintf("%s url not set", name)
		result.Latency = time.Since(start)
		return result
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		result.Error = fmt.Sprintf("request build failed: %v", err)
		result.Latency = time.Since(start)
		return result
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		result.Latency = time.Since(start)
		return result
	}
	defer resp.Body.Close()

	result.Latency = time.Since(start)

	if resp.StatusCode >= 500 {
		result.Error = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		return result
	}

	result.OK = true
	return result
}

func checkTTS(cfg config.Config) CheckResult {
	start := time.Now()
	result := CheckResult{Name: "tts"}

	fields := strings.Fields(cfg.TTS.Command)
	if len(fields) == 0 {
		result.Error = "tts command not set"
		result.Latency = time.Since(start)
		return result
	}

	if _, err := exec.LookPath(fields[0]); err != nil {
		result.Error = fmt.Sprintf("%q not found in PATH", fields[0])
		result.Latency = time.Since(start)
		return result
	}

	result.OK = true
	result.Latency = time.Since(start)
	return result
}

func checkAudio(devices DeviceLister) CheckResult {
	start := time.Now()
	result := CheckResult{Name: "audio"}

	list, err := devices()
	result.Latency = time.Since(start)
	if err != nil {
		result.Error = fmt.Sprintf("device enumeration failed: %v", err)
		return result
	}
	if len(list) == 0 {
		result.Error = "no input devices found"
		return result
	}

	result.OK = true
	return result
}
