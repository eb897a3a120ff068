package auth

import (
	"github.com/spf13/cobra"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/guard"
)

// AuthCmd is the parent command for auth operations
var AuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication",
	Long:  `Commands for logging in, registering, logging out and inspecting the session.`,
}

func init() {
	AuthCmd.AddCommand(loginCmd)
	AuthCmd.AddCommand(signupCmd)
	AuthCmd.AddCommand(logoutCmd)
	AuthCmd.AddCommand(statusCmd)
	AuthCmd.AddCommand(exportCmd)
}

// Policy returns command annotations requesting policy from the root command.
func Policy(p guard.Policy) map[string]string {
	return map[string]string{guard.Annotation: p.String()}
}
