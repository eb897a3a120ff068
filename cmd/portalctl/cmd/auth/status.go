package auth

import (
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/config"
	"github.com/terraconstructs/portal/pkg/sdk"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display authentication status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())

		mgr, err := cfg.ResolveSession(cmd.Context())
		if err != nil {
			return err
		}
		snap := mgr.Snapshot()

		pterm.DefaultSection.Println("Authentication Status")
		pterm.Info.Printf("Identity service: %s\n", cfg.ClientProvider.ServerURL())
		pterm.Info.Printf("Session: %s\n", snap.Status())

		id, ok := snap.Identity()
		if !ok {
			pterm.Info.Println("Not logged in. Run `portalctl auth login` to log in.")
			return nil
		}

		rows := pterm.TableData{
			{"ID", id.ID},
			{"Display name", id.DisplayName},
			{"Login", id.Login},
			{"Email", id.Email},
			{"Role", id.Role},
		}

		store, err := cfg.ClientProvider.TokenStore()
		if err != nil {
			return err
		}
		token, err := store.Get()
		if err != nil {
			return err
		}
		rows = append(rows, []string{"Token", sdk.Fingerprint(token)})
		if claims, err := sdk.InspectToken(token); err == nil && !claims.ExpiresAt.IsZero() {
			rows = append(rows, []string{"Expires", claims.ExpiresAt.Format(time.RFC1123)})
		}

		return pterm.DefaultTable.WithData(rows).Render()
	},
}
