package auth

import (
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/config"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/forms"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/guard"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/terminal"
	"github.com/terraconstructs/portal/pkg/sdk"
)

var (
	loginIdentifier    string
	loginPasswordStdin bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with a username or email address",
	Long: `Logs in against the identity service and stores the issued token.

The identifier is sent as an email address when it contains "@" and as a
username otherwise. Without --login and --password-stdin the command prompts
on the terminal; the password is never echoed.

  portalctl auth login --login jo@example.com
  printf '%s\n' "$PASSWORD" | portalctl auth login --login jo --password-stdin`,
	Annotations: Policy(guard.PolicyAuthOnly),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())

		form := forms.Login{Login: loginIdentifier}
		if form.Login == "" {
			if !terminal.Interactive(cfg.NonInteractive) {
				return errors.New("--login is required in non-interactive mode")
			}
			var err error
			if form.Login, err = terminal.Prompt("Email or Username"); err != nil {
				return err
			}
		}
		password, err := terminal.Password(cmd.InOrStdin(), loginPasswordStdin, terminal.Interactive(cfg.NonInteractive), false)
		if err != nil {
			return err
		}
		form.Password = password

		if err := form.Validate(); err != nil {
			return err
		}

		mgr, err := cfg.ClientProvider.Session()
		if err != nil {
			return err
		}
		id, err := mgr.ApplyLogin(cmd.Context(), form.Login, form.Password)
		if err != nil {
			return fmt.Errorf("login failed: %s", sdk.DisplayMessage(err))
		}

		pterm.Success.Printf("Logged in as %s\n", describe(id))
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginIdentifier, "login", "", "Username or email address")
	loginCmd.Flags().BoolVar(&loginPasswordStdin, "password-stdin", false, "Read the password from stdin")
}

func describe(id sdk.Identity) string {
	s := id.Name()
	if id.Email != "" && id.Email != s {
		s += " <" + id.Email + ">"
	}
	if id.Role != "" {
		s += " (" + id.Role + ")"
	}
	return s
}
