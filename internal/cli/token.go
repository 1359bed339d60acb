package cli

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tommygunn212/project-argo-sub000/internal/config"
	"github.com/tommygunn212/project-argo-sub000/internal/control"
)

func init() {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the control surface",
		Run:   runToken,
	}
	cmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	RootCmd.AddCommand(cmd)
}

func runToken(cmd *cobra.Command, args []string) {
	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.Server.ControlToken == "" {
		exitErr("token", fmt.Errorf("ARGO_CONTROL_TOKEN is not set; the control surface is unauthenticated"))
	}

	ttl, _ := cmd.Flags().GetDuration("ttl")
	exp := time.Now().Add(ttl).Unix()
	fmt.Println(control.GenerateToken(cfg.Server.ControlToken, control.TokenSubject, exp))
}
