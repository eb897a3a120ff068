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
	signupForm          forms.Signup
	signupPasswordStdin bool
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and log in",
	Long: `Registers a new account with the identity service and stores the token
issued for it. Missing fields are prompted for on interactive terminals.
Registration requires identity.auth_key to be configured.`,
	Annotations: Policy(guard.PolicyAuthOnly),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		form := signupForm

		fields := []struct {
			label string
			value *string
		}{
			{"First Name", &form.FirstName},
			{"Last Name", &form.LastName},
			{"Username", &form.Username},
			{"Email", &form.Email},
		}
		for _, f := range fields {
			if *f.value != "" {
				continue
			}
			if !terminal.Interactive(cfg.NonInteractive) {
				break
			}
			v, err := terminal.Prompt(f.label)
			if err != nil {
				return err
			}
			*f.value = v
		}

		password, err := terminal.Password(cmd.InOrStdin(), signupPasswordStdin, terminal.Interactive(cfg.NonInteractive), true)
		if err != nil {
			return err
		}
		form.Password = password
		form.ConfirmPassword = password

		if err := form.Validate(); err != nil {
			return err
		}
		if cfg.Settings.Identity.AuthKey == "" {
			return errors.New("identity.auth_key is not configured; registration needs the site's AUTH_KEY")
		}

		mgr, err := cfg.ClientProvider.Session()
		if err != nil {
			return err
		}
		id, err := mgr.ApplyRegistration(cmd.Context(), form.Registration())
		if err != nil {
			return fmt.Errorf("sign up failed: %s", sdk.DisplayMessage(err))
		}

		pterm.Success.Printf("Account created, logged in as %s\n", describe(id))
		return nil
	},
}

func init() {
	signupCmd.Flags().StringVar(&signupForm.Email, "email", "", "Email address")
	signupCmd.Flags().StringVar(&signupForm.Username, "username", "", "Username")
	signupCmd.Flags().StringVar(&signupForm.FirstName, "first-name", "", "First name")
	signupCmd.Flags().StringVar(&signupForm.LastName, "last-name", "", "Last name")
	signupCmd.Flags().BoolVar(&signupPasswordStdin, "password-stdin", false, "Read the password from stdin")
}
