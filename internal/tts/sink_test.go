package tts

import (
	"testing"
	"time"
)

func TestBuildArgs(t *testing.T) {
	got := buildArgs("say -v Daniel {text}", "hello there")
	want := []string{"say", "-v", "Daniel", "hello there"}
	if len(got) != len(want) {
		t.Fatalf("buildArgs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("buildArgs[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	got = buildArgs("espeak", "hi")
	if len(got) != 2 || got[0] != "espeak" || got[1] != "hi" {
		t.Fatalf("buildArgs without placeholder = %v", got)
	}
}

func TestNewSinkRequiresCommand(t *testing.T) {
	if _, err := NewSink("   ", time.Millisecond); err == nil {
		t.Fatal("NewSink accepted blank command")
	}
}

func TestSpeakCompletesNaturally(t *testing.T) {
	s, err := NewSink("true", 50*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSink: %v", err)
	}
	done, err := s.Speak("anything", 1)
	if err != nil {
		t.Fatalf("Speak: %v", err)
	}
	select {
	case perr := <-done:
		if perr != nil {
			t.Fatalf("playback error: %v", perr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("playback did not complete")
	}
	if !s.IsIdle() {
		t.Fatal("sink not idle after completion")
	}
}

func TestSpeakRejectsOverlap(t *testing.T) {
	s, err := NewSink("sleep", 50*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSink: %v", err)
	}
	done, err := s.Speak("2", 1)
	if err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if _, err := s.Speak("2", 2); err == nil {
		t.Fatal("second Speak succeeded during playback")
	}
	if err := s.HardKill(); err != nil {
		t.Fatalf("HardKill: %v", err)
	}
	<-done
}

func TestHardKillBoundedAndIdempotent(t *testing.T) {
	s, err := NewSink("sleep", 100*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSink: %v", err)
	}
	done, err := s.Speak("5", 7)
	if err != nil {
		t.Fatalf("Speak: %v", err)
	}

	start := time.Now()
	if err := s.HardKill(); err != nil {
		t.Fatalf("HardKill: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("HardKill took %s", elapsed)
	}

	select {
	case perr := <-done:
		if perr == nil {
			t.Fatal("killed playback reported success")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("killed playback never reported")
	}
	if !s.IsIdle() {
		t.Fatal("sink not idle after kill")
	}

	// Killing an idle sink is a no-op.
	if err := s.HardKill(); err != nil {
		t.Fatalf("idle HardKill: %v", err)
	}
}

func TestSpeakStartFailure(t *testing.T) {
	s, err := NewSink("/nonexistent/binary/for/test", 50*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSink: %v", err)
	}
	if _, err := s.Speak("x", 1); err == nil {
		t.Fatal("Speak started a nonexistent binary")
	}
	if !s.IsIdle() {
		t.Fatal("sink not idle after failed start")
	}
}
