package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/terraconstructs/portal/cmd/portalctl/cmd/auth"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/config"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/guard"
)

var dashboardCmd = &cobra.Command{
	Use:         "dashboard",
	Short:       "Show the signed-in identity",
	Annotations: auth.Policy(guard.PolicyProtected),
	RunE: func(cmd *cobra.Command, args []string) error {
		return renderDashboard(cmd, "Dashboard")
	},
}

var dashboardTestCmd = &cobra.Command{
	Use:         "test",
	Short:       "Second dashboard page behind the same guard",
	Annotations: auth.Policy(guard.PolicyProtected),
	RunE: func(cmd *cobra.Command, args []string) error {
		return renderDashboard(cmd, "Test")
	},
}

func init() {
	dashboardCmd.AddCommand(dashboardTestCmd)
}

func renderDashboard(cmd *cobra.Command, title string) error {
	cfg := config.MustFromContext(cmd.Context())
	mgr, err := cfg.ClientProvider.Session()
	if err != nil {
		return err
	}
	id, _ := mgr.Snapshot().Identity()

	pterm.DefaultSection.Println(title)
	return pterm.DefaultTable.WithData(pterm.TableData{
		{"Display name", id.DisplayName},
		{"Email", id.Email},
		{"Role", id.Role},
	}).Render()
}
