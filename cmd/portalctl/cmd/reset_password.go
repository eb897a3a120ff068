package cmd

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/terraconstructs/portal/cmd/portalctl/cmd/auth"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/config"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/forms"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/guard"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/terminal"
	"github.com/terraconstructs/portal/pkg/sdk"
)

var (
	resetEmail         string
	resetCode          string
	resetPasswordStdin bool
)

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Request a password reset or set a new password",
	Long: `Without --code, asks the identity service to email a reset code to --email.

With both --email and --code (from the reset email), sets a new password:

  portalctl reset-password --email jo@example.com
  portalctl reset-password --email jo@example.com --code 123456`,
	Annotations: auth.Policy(guard.PolicyAuthOnly),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		interactive := terminal.Interactive(cfg.NonInteractive)

		mode := guard.ResetMode(url.Values{"email": {resetEmail}, "code": {resetCode}})
		if mode == guard.ResetModeSetPassword {
			password, err := terminal.Password(cmd.InOrStdin(), resetPasswordStdin, interactive, true)
			if err != nil {
				return err
			}
			form := forms.SetPassword{Email: resetEmail, Code: resetCode, Password: password, ConfirmPassword: password}
			if err := form.Validate(); err != nil {
				return err
			}
			if err := cfg.ClientProvider.ResetPassword(cmd.Context(), form.Email, form.Code, form.Password); err != nil {
				return fmt.Errorf("password reset failed: %s", sdk.DisplayMessage(err))
			}
			pterm.Success.Println("User Password has been changed. Log in with `portalctl auth login`.")
			return nil
		}

		form := forms.ResetRequest{Email: resetEmail}
		if form.Email == "" {
			if !interactive {
				return errors.New("--email is required in non-interactive mode")
			}
			var err error
			if form.Email, err = terminal.Prompt("Email"); err != nil {
				return err
			}
		}
		if err := form.Validate(); err != nil {
			return err
		}
		if err := cfg.ClientProvider.RequestPasswordReset(cmd.Context(), form.Email); err != nil {
			return fmt.Errorf("password reset failed: %s", sdk.DisplayMessage(err))
		}
		pterm.Success.Println("Check your email for password reset link")
		return nil
	},
}

func init() {
	resetPasswordCmd.Flags().StringVar(&resetEmail, "email", "", "Account email address")
	resetPasswordCmd.Flags().StringVar(&resetCode, "code", "", "Reset code from the email")
	resetPasswordCmd.Flags().BoolVar(&resetPasswordStdin, "password-stdin", false, "Read the new password from stdin")
}
