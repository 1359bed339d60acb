package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List audio input devices",
		Run:   runDevices,
	}
	RootCmd.AddCommand(cmd)
}

func runDevices(cmd *cobra.Command, args []string) {
	devices, err := listInputDevices()
	if err != nil {
		exitErr("list devices", err)
	}
	if len(devices) == 0 {
		fmt.Println("no input devices found")
		return
	}
	for _, d := range devices {
		marker := " "
		if d.IsDefault {
			marker = "*"
		}
		fmt.Printf("%s %3d  %s (%d ch)\n", marker, d.ID, d.Name, d.InputChannels)
	}
	fmt.Println("\n* default device; select with ARGO_AUDIO_DEVICE=<id>")
}
