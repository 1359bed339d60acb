package main

import (
	"os"

	"github.com/tommygunn212/project-argo-sub000/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
