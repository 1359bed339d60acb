// Package cli implements the argo commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "argo",
	Short: "Half-duplex voice assistant",
	Long: "ARGO is a push-to-wake voice assistant: one microphone, one speaker,\n" +
		"never both at once. Configuration comes from the environment (see\n" +
		"ARGO_* variables) or a .env file in the working directory.",
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
