package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tommygunn212/project-argo-sub000/internal/audio"
	"github.com/tommygunn212/project-argo-sub000/internal/config"
	"github.com/tommygunn212/project-argo-sub000/internal/health"
)

func init() {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Probe the collaborators and report readiness",
		Long: "Checks that the transcription and generation endpoints answer, the\n" +
			"speech command is on PATH, and an audio input device exists.",
		Run: runCheck,
	}
	RootCmd.AddCommand(cmd)
}

func runCheck(cmd *cobra.Command, args []string) {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	status := health.CheckAll(ctx, cfg, listInputDevices)
	fmt.Print(status.String())
	if !status.OK {
		os.Exit(1)
	}
}

func listInputDevices() ([]audio.Device, error) {
	capture, err := audio.NewPortAudioCapture(audio.DefaultConfig(), audio.NewTap())
	if err != nil {
		return nil, err
	}
	defer capture.Close()
	return capture.Devices()
}
