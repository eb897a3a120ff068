package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/config"
)

var homeCmd = &cobra.Command{
	Use:   "home",
	Short: "Greet the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		mgr, err := cfg.ResolveSession(cmd.Context())
		if err != nil {
			return err
		}

		if id, ok := mgr.Snapshot().Identity(); ok {
			pterm.Printf("Welcome back, %s!\n", id.Name())
			pterm.Info.Println("Run `portalctl dashboard` to see your account.")
			return nil
		}
		pterm.Println("You are not logged in. Please log in to continue.")
		pterm.Info.Println("Run `portalctl auth login`.")
		return nil
	},
}
