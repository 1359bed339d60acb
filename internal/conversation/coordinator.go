package conversation

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/tommygunn212/project-argo-sub000/internal/intent"
	"github.com/tommygunn212/project-argo-sub000/internal/llm"
	"github.com/tommygunn212/project-argo-sub000/internal/memory"
)

// Recorder captures one utterance from the microphone. It returns when
// silence follows speech or the max-duration cap is hit; both are
// normal ends, not errors.
type Recorder interface {
	Record(ctx context.Context) (samples []int16, sampleRate int, err error)
}

// Transcriber converts captured audio to text plus a confidence score.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []int16, sampleRate int) (text string, confidence float64, err error)
}

// Generator produces the response text for one turn.
type Generator interface {
	Generate(ctx context.Context, req llm.Request) (string, error)
}

// Speaker synthesizes and plays response audio. Speak returns a channel
// that delivers the playback result exactly once; HardKill terminates
// the underlying playback forcibly and synchronously within a bounded
// latency.
type Speaker interface {
	Speak(text string, interactionID uint64) (<-chan error, error)
	HardKill() error
	IsIdle() bool
}

// TriggerControl pauses and resumes the wake-word trigger. Pause must be
// synchronous: no detection may fire after it returns.
type TriggerControl interface {
	Pause()
	Resume()
	Active() bool
}

// Journal is the fire-and-forget audit log. Append never blocks and its
// failures are never fatal to the loop.
type Journal interface {
	Append(typ string, detail map[string]any)
}

// Deps are the external collaborators behind the coordinator.
type Deps struct {
	Recorder    Recorder
	Transcriber Transcriber
	Generator   Generator
	Speaker     Speaker
	Trigger     TriggerControl
	Journal     Journal
}

type Config struct {
	SessionID       string
	MaxInteractions int
	StopKeywords    []string
	Clarification   string
	MemoryCapacity  int
	Persona         intent.Persona

	// OnTransition, when set, observes every state change. It runs under
	// the coordinator mutex and must not block.
	OnTransition func(from, to State)
}

// Status is a point-in-time snapshot for the control surface.
type Status struct {
	SessionID     string       `json:"session_id"`
	State         State        `json:"state"`
	InteractionID uint64       `json:"interaction_id"`
	Turns         int          `json:"turns"`
	FailedTurns   int          `json:"failed_turns"`
	Authority     string       `json:"audio_authority"`
	TriggerActive bool         `json:"trigger_active"`
	Memory        memory.Stats `json:"memory"`
	StartedAt     time.Time    `json:"started_at"`
}

// Coordinator owns the interaction state machine, the audio authority,
// and the current interaction id, and runs the bounded turn loop. All
// three mutate only under mu.
type Coordinator struct {
	cfg  Config
	deps Deps

	slot *slot
	mem  *memory.Memory

	mu           sync.Mutex
	state        State
	id           uint64
	turns        int
	failed       int
	lastResponse string
	authority    Authority
	started      time.Time
}

func New(cfg Config, deps Deps) (*Coordinator, error) {
	if cfg.MaxInteractions <= 0 {
		return nil, fmt.Errorf("max interactions must be positive, got %d", cfg.MaxInteractions)
	}
	if deps.Recorder == nil || deps.Transcriber == nil || deps.Generator == nil || deps.Speaker == nil || deps.Trigger == nil {
		return nil, fmt.Errorf("coordinator requires recorder, transcriber, generator, speaker and trigger")
	}
	mem, err := memory.New(cfg.MemoryCapacity, cfg.SessionID)
	if err != nil {
		return nil, err
	}
	if cfg.Clarification == "" {
		cfg.Clarification = "Sorry, I didn't catch that."
	}
	return &Coordinator{
		cfg:   cfg,
		deps:  deps,
		slot:  newSlot(),
		mem:   mem,
		state: StateListening,
	}, nil
}

// Signal offers an external signal to the loop. It never blocks; a
// lower-priority signal offered while a higher one is pending reports
// false and is dropped.
func (c *Coordinator) Signal(kind Kind, source string) bool {
	accepted := c.slot.offer(Signal{Kind: kind, Source: source, At: time.Now()})
	c.journal("signal", map[string]any{"kind": string(kind), "source": source, "accepted": accepted})
	return accepted
}

func (c *Coordinator) Snapshot() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		SessionID:     c.cfg.SessionID,
		State:         c.state,
		InteractionID: c.id,
		Turns:         c.turns,
		FailedTurns:   c.failed,
		Authority:     c.authority.Status(),
		TriggerActive: c.deps.Trigger.Active(),
		Memory:        c.mem.Stats(),
		StartedAt:     c.started,
	}
}

// Memory exposes the session buffer for the control surface (stats and
// recent records); the generator only ever sees its summary string.
func (c *Coordinator) Memory() *memory.Memory { return c.mem }

func (c *Coordinator) SessionID() string { return c.cfg.SessionID }

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Run drives the bounded interaction loop until an exit condition is
// met, the context ends, or a fatal invariant violation surfaces.
// SessionMemory is cleared on every exit path.
func (c *Coordinator) Run(ctx context.Context) error {
	c.mu.Lock()
	c.started = time.Now()
	c.deps.Trigger.Resume()
	if err := c.verifyTriggerLocked(c.state); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	log.Printf("[coord] session %s started (max_interactions=%d, memory_capacity=%d)",
		c.cfg.SessionID, c.cfg.MaxInteractions, c.cfg.MemoryCapacity)
	c.journal("session_started", map[string]any{
		"max_interactions": c.cfg.MaxInteractions,
		"memory_capacity":  c.cfg.MemoryCapacity,
		"persona":          string(c.cfg.Persona),
	})

	defer func() {
		c.mem.Clear()
		c.deps.Trigger.Pause()
	}()

	for {
		if reason := c.exitReason(); reason != "" {
			log.Printf("[coord] session %s ended: %s (turns=%d, failed=%d)", c.cfg.SessionID, reason, c.Turns(), c.FailedTurns())
			c.journal("session_ended", map[string]any{"reason": reason, "turns": c.Turns(), "failed_turns": c.FailedTurns()})
			return nil
		}

		var sig Signal
		select {
		case <-ctx.Done():
			c.journal("session_ended", map[string]any{"reason": "shutdown", "turns": c.Turns()})
			return ctx.Err()
		case <-c.slot.notify():
			s, ok := c.slot.take()
			if !ok {
				continue
			}
			sig = s
		}

		if err := c.dispatch(ctx, sig); err != nil {
			return err
		}
	}
}

// dispatch routes one consumed signal according to the current state.
// It returns only fatal errors.
func (c *Coordinator) dispatch(ctx context.Context, sig Signal) error {
	switch c.State() {
	case StateListening:
		switch sig.Kind {
		case KindStop:
			return c.interrupt(sig)
		case KindSleep:
			return c.toSleep(sig)
		case KindWake, KindPushToTalk:
			return c.turn(ctx, sig)
		}
	case StateSleep:
		switch sig.Kind {
		case KindStop:
			return c.interrupt(sig)
		case KindWake:
			return c.wakeUp(sig)
		case KindPushToTalk:
			if err := c.wakeUp(sig); err != nil {
				return err
			}
			return c.turn(ctx, sig)
		default:
			metricSignalsDiscarded.WithLabelValues(string(sig.Kind)).Inc()
			log.Printf("[coord] discarding %s signal while asleep", sig.Kind)
		}
	default:
		metricSignalsDiscarded.WithLabelValues(string(sig.Kind)).Inc()
		log.Printf("[coord] discarding %s signal in state %s", sig.Kind, c.State())
	}
	return nil
}

// turn runs one full interaction: record, transcribe, classify,
// generate, remember, speak. Stop and sleep signals are honored at the
// checkpoint between each step; results computed before an interrupt
// are discarded via the stale-id check.
func (c *Coordinator) turn(ctx context.Context, cause Signal) error {
	c.mu.Lock()
	id, err := c.mintLocked()
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if err := c.transitionLocked(StateThinking); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	log.Printf("[coord] turn %d started (%s)", id, cause.Kind)
	c.journal("turn_started", map[string]any{"interaction_id": id, "cause": string(cause.Kind)})

	samples, rate, err := c.deps.Recorder.Record(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return c.failTurn(ctx, id, "record", err)
	}
	if sig := c.slot.takeInterrupt(); sig != nil {
		return c.cancelTurn(id, *sig)
	}

	text, confidence, err := c.deps.Transcriber.Transcribe(ctx, samples, rate)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return c.failTurn(ctx, id, "transcribe", err)
	}
	if sig := c.slot.takeInterrupt(); sig != nil {
		return c.cancelTurn(id, *sig)
	}

	category, verbosity := intent.Classify(text)
	log.Printf("[coord] turn %d heard %q (intent=%s, confidence=%.2f)", id, text, category, confidence)

	response, err := c.deps.Generator.Generate(ctx, llm.Request{
		Utterance:      text,
		Intent:         category,
		Verbosity:      verbosity,
		Persona:        c.cfg.Persona,
		ContextSummary: c.mem.ContextSummary(),
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return c.failTurn(ctx, id, "generate", err)
	}
	if sig := c.slot.takeInterrupt(); sig != nil {
		return c.cancelTurn(id, *sig)
	}

	c.mem.Append(memory.Record{
		Timestamp: time.Now(),
		Utterance: text,
		Intent:    string(category),
		Response:  response,
	})

	interrupted, err := c.speak(ctx, response, id)
	if err != nil {
		return err
	}

	outcome := "completed"
	if interrupted {
		outcome = "barged"
	}
	c.mu.Lock()
	c.turns++
	c.lastResponse = response
	turns := c.turns
	c.mu.Unlock()
	metricTurns.WithLabelValues(outcome).Inc()
	log.Printf("[coord] turn %d %s (%d/%d)", id, outcome, turns, c.cfg.MaxInteractions)
	c.journal("turn_"+outcome, map[string]any{
		"interaction_id": id,
		"utterance":      text,
		"intent":         string(category),
		"response_chars": len(response),
		"turns":          turns,
	})
	return nil
}

// failTurn handles recoverable per-turn errors: the turn counts toward
// the ceiling, a spoken clarification replaces the response, and no
// record is appended.
func (c *Coordinator) failTurn(ctx context.Context, id uint64, stage string, cause error) error {
	c.mu.Lock()
	c.turns++
	c.failed++
	turns := c.turns
	c.mu.Unlock()
	metricTurns.WithLabelValues("failed").Inc()
	log.Printf("[coord] turn %d failed at %s (%d/%d): %v", id, stage, turns, c.cfg.MaxInteractions, cause)
	c.journal("turn_failed", map[string]any{
		"interaction_id": id,
		"stage":          stage,
		"error":          cause.Error(),
		"turns":          turns,
	})
	if _, err := c.speak(ctx, c.cfg.Clarification, id); err != nil {
		return err
	}
	return nil
}

// cancelTurn aborts a turn at a checkpoint after a stop or sleep signal.
// The interrupt sequence mints a fresh id, so anything the aborted turn
// computed is dead on arrival.
func (c *Coordinator) cancelTurn(id uint64, sig Signal) error {
	if err := c.interrupt(sig); err != nil {
		return err
	}
	c.mu.Lock()
	c.turns++
	turns := c.turns
	c.mu.Unlock()
	metricTurns.WithLabelValues("canceled").Inc()
	log.Printf("[coord] turn %d canceled by %s (%d/%d)", id, sig.Kind, turns, c.cfg.MaxInteractions)
	c.journal("turn_canceled", map[string]any{"interaction_id": id, "kind": string(sig.Kind), "turns": turns})
	if sig.Kind == KindSleep {
		c.slot.offer(sig)
	}
	return nil
}

// speak transitions to Speaking, acquires the audio authority, starts
// playback tagged with id, and waits for completion or an interrupt. A
// stale id makes the whole call a no-op. Returns whether playback was
// interrupted.
func (c *Coordinator) speak(ctx context.Context, text string, id uint64) (bool, error) {
	c.mu.Lock()
	if id != c.id {
		current := c.id
		c.mu.Unlock()
		metricStaleCallbacks.Inc()
		log.Printf("[coord] dropping speak for stale interaction %d (current %d)", id, current)
		return false, nil
	}
	if err := c.transitionLocked(StateSpeaking); err != nil {
		c.mu.Unlock()
		return false, err
	}
	if err := c.authority.Acquire(id); err != nil {
		c.mu.Unlock()
		return false, fmt.Errorf("%w: %v", ErrInvariant, err)
	}
	c.mu.Unlock()

	done, err := c.deps.Speaker.Speak(text, id)
	if err != nil {
		log.Printf("[coord] speak failed to start: %v", err)
		c.journal("speak_failed", map[string]any{"interaction_id": id, "error": err.Error()})
		c.mu.Lock()
		c.authority.Release(id)
		terr := c.transitionLocked(StateListening)
		c.mu.Unlock()
		return false, terr
	}
	c.journal("speaking", map[string]any{"interaction_id": id, "chars": len(text)})

	for {
		select {
		case perr := <-done:
			c.mu.Lock()
			if id != c.id {
				c.mu.Unlock()
				metricStaleCallbacks.Inc()
				return true, nil
			}
			c.authority.Release(id)
			terr := c.transitionLocked(StateListening)
			c.mu.Unlock()
			if perr != nil {
				log.Printf("[coord] playback for turn %d ended with error: %v", id, perr)
			}
			return false, terr
		case <-c.slot.notify():
			sig, ok := c.slot.take()
			if !ok {
				continue
			}
			if err := c.interrupt(sig); err != nil {
				return true, err
			}
			if sig.Kind == KindSleep || sig.Kind == KindPushToTalk {
				c.slot.offer(sig)
			}
			return true, nil
		case <-ctx.Done():
			if err := c.deps.Speaker.HardKill(); err != nil {
				log.Printf("[coord] hard kill on shutdown: %v", err)
			}
			c.mu.Lock()
			c.authority.Revoke()
			_ = c.authority.Reset()
			c.mu.Unlock()
			return true, ctx.Err()
		}
	}
}

// interrupt executes the barge-in sequence atomically: mint a fresh id,
// hard-kill playback if speaking, transition to Listening, reset the
// authority. Other goroutines never observe an intermediate step.
func (c *Coordinator) interrupt(sig Signal) error {
	start := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	previous := c.id
	if _, err := c.mintLocked(); err != nil {
		return err
	}
	killed := false
	if c.state == StateSpeaking {
		c.authority.Revoke()
		if err := c.deps.Speaker.HardKill(); err != nil {
			log.Printf("[coord] hard kill: %v", err)
		}
		killed = true
		metricBargeIns.Inc()
	}
	if err := c.transitionLocked(StateListening); err != nil {
		return err
	}
	if err := c.authority.Reset(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvariant, err)
	}

	elapsed := time.Since(start)
	metricInterrupts.WithLabelValues(string(sig.Kind)).Inc()
	metricInterruptLatencyMS.Observe(float64(elapsed.Milliseconds()))
	log.Printf("[coord] interrupt (%s) handled in %s, interaction %d superseded", sig.Kind, elapsed.Round(time.Microsecond), previous)
	c.journal("interrupt", map[string]any{
		"kind":       string(sig.Kind),
		"superseded": previous,
		"latency_ms": elapsed.Milliseconds(),
		"killed":     killed,
	})
	return nil
}

func (c *Coordinator) toSleep(sig Signal) error {
	c.mu.Lock()
	err := c.transitionLocked(StateSleep)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	log.Printf("[coord] going to sleep (%s)", sig.Source)
	c.journal("sleep", map[string]any{"source": sig.Source})
	return nil
}

func (c *Coordinator) wakeUp(sig Signal) error {
	c.mu.Lock()
	err := c.transitionLocked(StateListening)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	log.Printf("[coord] awake (%s)", sig.Source)
	c.journal("wake", map[string]any{"source": sig.Source})
	return nil
}

// transitionLocked performs one guarded state change, synchronizes the
// trigger, and runs the trigger consistency check. Caller holds mu.
func (c *Coordinator) transitionLocked(to State) error {
	from := c.state
	if !canTransition(from, to) {
		return fmt.Errorf("%w: illegal transition %s -> %s", ErrInvariant, from, to)
	}
	c.state = to
	metricStateTransitions.WithLabelValues(string(from), string(to)).Inc()
	if to == StateSleep {
		c.deps.Trigger.Pause()
	} else {
		c.deps.Trigger.Resume()
	}
	if err := c.verifyTriggerLocked(to); err != nil {
		return err
	}
	if c.cfg.OnTransition != nil {
		c.cfg.OnTransition(from, to)
	}
	log.Printf("[coord] state %s -> %s", from, to)
	return nil
}

// verifyTriggerLocked asserts the trigger's status matches the state:
// fully paused in Sleep, running everywhere else.
func (c *Coordinator) verifyTriggerLocked(st State) error {
	expected := st != StateSleep
	if active := c.deps.Trigger.Active(); active != expected {
		return fmt.Errorf("%w: trigger active=%v in state %s (expected %v)", ErrInvariant, active, st, expected)
	}
	return nil
}

// mintLocked increments the interaction id. Caller holds mu.
func (c *Coordinator) mintLocked() (uint64, error) {
	next := c.id + 1
	if next <= c.id {
		return 0, fmt.Errorf("%w: interaction id would not increase past %d", ErrInvariant, c.id)
	}
	c.id = next
	metricIDsMinted.Inc()
	return next, nil
}

func (c *Coordinator) exitReason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.turns >= c.cfg.MaxInteractions {
		return "max_interactions"
	}
	if containsStopKeyword(c.lastResponse, c.cfg.StopKeywords) {
		return "stop_keyword"
	}
	return ""
}

func containsStopKeyword(text string, keywords []string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func (c *Coordinator) Turns() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.turns
}

func (c *Coordinator) FailedTurns() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failed
}

func (c *Coordinator) InteractionID() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

func (c *Coordinator) journal(typ string, detail map[string]any) {
	if c.deps.Journal != nil {
		c.deps.Journal.Append(typ, detail)
	}
}
