package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tommygunn212/project-argo-sub000/internal/audio"
	"github.com/tommygunn212/project-argo-sub000/internal/config"
	"github.com/tommygunn212/project-argo-sub000/internal/control"
	"github.com/tommygunn212/project-argo-sub000/internal/conversation"
	"github.com/tommygunn212/project-argo-sub000/internal/intent"
	"github.com/tommygunn212/project-argo-sub000/internal/journal"
	"github.com/tommygunn212/project-argo-sub000/internal/llm"
	"github.com/tommygunn212/project-argo-sub000/internal/stt"
	"github.com/tommygunn212/project-argo-sub000/internal/trigger"
	"github.com/tommygunn212/project-argo-sub000/internal/tts"
)

func init() {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the assistant session",
		Long: "Opens the microphone, starts the wake-phrase spotter and the control\n" +
			"server, and runs the interaction loop until the turn ceiling is hit,\n" +
			"a stop keyword shows up in a reply, or the process is interrupted.",
		Run: runSession,
	}
	RootCmd.AddCommand(cmd)
}

func runSession(cmd *cobra.Command, args []string) {
	// Load .env file if present (ignored if missing)
	_ = godotenv.Load()

	cfg := config.Load()

	sessionID := cfg.Session.ID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	log.Printf("[argo] session %s starting", sessionID)

	persona, err := intent.ParsePersona(cfg.LLM.Persona)
	if err != nil {
		exitErr("config", err)
	}

	// Audio capture fans out to the spotter and the recorder through
	// one tap; the device runs for the whole session.
	tap := audio.NewTap()
	capture, err := audio.NewPortAudioCapture(audio.Config{
		DeviceID:   cfg.Audio.DeviceID,
		SampleRate: cfg.Audio.SampleRate,
	}, tap)
	if err != nil {
		exitErr("audio", err)
	}
	defer capture.Close()
	if err := capture.Start(); err != nil {
		exitErr("audio", err)
	}
	defer tap.Close()

	recorder := audio.NewRecorder(tap, audio.RecorderConfig{
		SampleRate:   cfg.Audio.SampleRate,
		MaxDuration:  time.Duration(cfg.Record.MaxSeconds) * time.Second,
		SilenceAfter: time.Duration(cfg.Record.SilenceMs) * time.Millisecond,
		MinRMS:       cfg.Record.MinRMS,
	})

	transcriber := stt.NewClient(cfg.STT.URL, time.Duration(cfg.STT.TimeoutSeconds)*time.Second)
	generator := llm.NewClient(cfg.LLM.URL, cfg.LLM.Model, cfg.LLM.APIKey, time.Duration(cfg.LLM.TimeoutSeconds)*time.Second)

	sink, err := tts.NewSink(cfg.TTS.Command, time.Duration(cfg.TTS.KillTimeoutMs)*time.Millisecond)
	if err != nil {
		exitErr("tts", err)
	}

	spotter, err := trigger.NewSpotter(trigger.Config{
		WakePhrases:  cfg.Trigger.WakePhrases,
		StopPhrases:  cfg.Trigger.StopPhrases,
		SleepPhrases: cfg.Trigger.SleepPhrases,
		SampleRate:   cfg.Audio.SampleRate,
		Window:       time.Duration(cfg.Trigger.WindowMs) * time.Millisecond,
		Interval:     time.Duration(cfg.Trigger.IntervalMs) * time.Millisecond,
	}, transcriber)
	if err != nil {
		exitErr("trigger", err)
	}

	jn, err := journal.New(sessionID, cfg.Journal.Path)
	if err != nil {
		exitErr("journal", err)
	}
	defer jn.Close()

	// The hub is created by the control server below; the transition
	// hook closes over this variable, which is set before the loop runs.
	var hub *control.Hub

	coord, err := conversation.New(conversation.Config{
		SessionID:       sessionID,
		MaxInteractions: cfg.Loop.MaxInteractions,
		StopKeywords:    cfg.Loop.StopKeywords,
		Clarification:   cfg.Loop.Clarification,
		MemoryCapacity:  cfg.Memory.Capacity,
		Persona:         persona,
		OnTransition: func(from, to conversation.State) {
			if hub != nil {
				hub.Notify(control.StateEvent{
					Type: "state_change",
					From: string(from),
					To:   string(to),
					Ts:   time.Now().UTC(),
				})
			}
		},
	}, conversation.Deps{
		Recorder:    recorder,
		Transcriber: transcriber,
		Generator:   generator,
		Speaker:     sink,
		Trigger:     spotter,
		Journal:     jn,
	})
	if err != nil {
		exitErr("coordinator", err)
	}

	spotter.OnDetect(func(d trigger.Detection) {
		switch d.Class {
		case trigger.ClassStop:
			coord.Signal(conversation.KindStop, "voice")
		case trigger.ClassSleep:
			coord.Signal(conversation.KindSleep, "voice")
		case trigger.ClassWake:
			coord.Signal(conversation.KindWake, "voice")
		}
	})

	srv := control.NewServer(cfg, coord, jn)
	hub = srv.Hub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := spotter.Start(ctx, tap); err != nil {
		exitErr("trigger", err)
	}

	go hub.Run(ctx)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[control] server error: %v", err)
			cancel()
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigc
		log.Printf("[argo] shutdown signal received; ending session...")
		cancel()
	}()

	err = coord.Run(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	_ = srv.Shutdown(shutdownCtx)
	shutdownCancel()
	cancel()

	switch {
	case err == nil:
		log.Printf("[argo] session %s ended: turns=%d failed=%d", sessionID, coord.Turns(), coord.FailedTurns())
	case errors.Is(err, context.Canceled):
		log.Printf("[argo] session %s interrupted: turns=%d", sessionID, coord.Turns())
	default:
		// Invariant violations land here: the safe move is to stop, not
		// to keep running with a broken state machine.
		log.Printf("[argo] session %s halted: %v", sessionID, err)
		jn.Close()
		capture.Close()
		os.Exit(1)
	}
}
