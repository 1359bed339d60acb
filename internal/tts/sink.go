package tts

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Sink synthesizes and plays responses through an external command, one
// playback at a time. HardKill terminates the running process forcibly
// and returns within the configured kill timeout.
type Sink struct {
	command     string
	killTimeout time.Duration

	mu   sync.Mutex
	proc *proc
}

type proc struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc
	id     uint64
	waited chan struct{}
}

func NewSink(command string, killTimeout time.Duration) (*Sink, error) {
	if strings.TrimSpace(command) == "" {
		return nil, errors.New("tts command not configured")
	}
	if killTimeout <= 0 {
		killTimeout = 50 * time.Millisecond
	}
	return &Sink{command: command, killTimeout: killTimeout}, nil
}

// buildArgs splits the configured command line and substitutes the
// response text for a {text} placeholder, appending it when absent.
func buildArgs(command, text string) []string {
	parts := strings.Fields(command)
	replaced := false
	out := make([]string, 0, len(parts)+1)
	for _, p := range parts {
		if p == "{text}" {
			out = append(out, text)
			replaced = true
			continue
		}
		out = append(out, p)
	}
	if !replaced {
		out = append(out, text)
	}
	return out
}

// Speak starts playback of text tagged with interactionID. The returned
// channel delivers the playback result exactly once; a hard kill
// surfaces there as an error nobody is required to read.
func (s *Sink) Speak(text string, interactionID uint64) (<-chan error, error) {
	argv := buildArgs(s.command, text)
	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	s.mu.Lock()
	if s.proc != nil {
		s.mu.Unlock()
		cancel()
		return nil, fmt.Errorf("playback already in progress (interaction %d)", s.proc.id)
	}
	if err := cmd.Start(); err != nil {
		s.mu.Unlock()
		cancel()
		return nil, fmt.Errorf("start %s: %w", argv[0], err)
	}
	p := &proc{cmd: cmd, cancel: cancel, id: interactionID, waited: make(chan struct{})}
	s.proc = p
	s.mu.Unlock()

	metricSpeaks.Inc()
	log.Printf("[tts] speaking interaction %d (%d chars, pid %d)", interactionID, len(text), cmd.Process.Pid)

	done := make(chan error, 1)
	start := time.Now()
	go func() {
		err := cmd.Wait()
		s.mu.Lock()
		if s.proc == p {
			s.proc = nil
		}
		s.mu.Unlock()
		close(p.waited)
		metricPlaybackMS.Observe(float64(time.Since(start).Milliseconds()))
		done <- err
	}()
	return done, nil
}

// HardKill forcibly terminates the current playback, if any, and blocks
// until the process is reaped or the kill timeout elapses. Idle is a
// no-op.
func (s *Sink) HardKill() error {
	s.mu.Lock()
	p := s.proc
	s.mu.Unlock()
	if p == nil {
		return nil
	}

	start := time.Now()
	metricKills.Inc()
	p.cancel()
	if p.cmd.Process != nil {
		if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			log.Printf("[tts] kill pid %d: %v", p.cmd.Process.Pid, err)
		}
	}
	select {
	case <-p.waited:
	case <-time.After(s.killTimeout):
		log.Printf("[tts] interaction %d not reaped within %s", p.id, s.killTimeout)
	}
	metricKillLatencyMS.Observe(float64(time.Since(start).Milliseconds()))
	log.Printf("[tts] hard-killed interaction %d in %s", p.id, time.Since(start).Round(time.Millisecond))
	return nil
}

func (s *Sink) IsIdle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proc == nil
}
