package auth

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/config"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the stored token and log out",
	Long: `Revokes the stored token with the identity service. The token is only
removed locally once the service confirms; if revocation fails you stay
logged in and can retry.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())

		mgr, err := cfg.ResolveSession(cmd.Context())
		if err != nil {
			return err
		}
		if err := mgr.Logout(cmd.Context()); err != nil {
			return err
		}

		store, err := cfg.ClientProvider.TokenStore()
		if err != nil {
			return err
		}
		if token, _ := store.Get(); token != "" || mgr.Snapshot().Authenticated() {
			pterm.Warning.Println("Logout failed; the session was left unchanged. Run with --log-level debug for details.")
			return nil
		}
		pterm.Success.Println("Logged out successfully")
		return nil
	},
}
