package auth

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/config"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/guard"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/terminal"
)

// TokenEnv is the variable export writes and the root command reads.
const TokenEnv = "PORTAL_TOKEN"

var (
	shellFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the session token as an environment variable",
	Long: `Export the stored token as PORTAL_TOKEN so scripts and other portalctl
invocations can reuse the session without touching the token file.

Supported shells:
  - posix (bash, zsh, sh) - default
  - fish
  - powershell

Usage:
  # POSIX shells (bash/zsh/sh)
  eval $(portalctl auth export)

  # Fish shell
  eval (portalctl auth export --shell fish)

  # PowerShell
  portalctl auth export --shell powershell | Invoke-Expression

A portalctl command run with PORTAL_TOKEN set keeps that token in memory and
never writes it to disk.`,
	Annotations: Policy(guard.PolicyProtected),
	RunE:        runExport,
}

func init() {
	exportCmd.Flags().StringVar(&shellFormat, "shell", "", "Shell format: posix, fish, powershell (auto-detected if not specified)")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg := config.MustFromContext(cmd.Context())

	store, err := cfg.ClientProvider.TokenStore()
	if err != nil {
		return err
	}
	token, err := store.Get()
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}

	shell := shellFormat
	if shell == "" {
		shell = detectShell()
	}

	hint := terminal.IsTerminal(os.Stdout)
	return writeExport(cmd.OutOrStdout(), os.Stderr, strings.ToLower(shell), token, hint)
}

// writeExport prints the export line for shell to out. When hint is set a
// usage reminder goes to errOut, so eval never sees it.
func writeExport(out, errOut io.Writer, shell, token string, hint bool) error {
	var line, usage string
	switch shell {
	case "posix", "bash", "zsh", "sh":
		line = fmt.Sprintf("export %s=%q", TokenEnv, token)
		usage = "eval $(portalctl auth export)"
	case "fish":
		line = fmt.Sprintf("set -x %s %q", TokenEnv, token)
		usage = "eval (portalctl auth export --shell fish)"
	case "powershell", "pwsh", "ps1":
		line = fmt.Sprintf("$env:%s=%q", TokenEnv, token)
		usage = "portalctl auth export --shell powershell | Invoke-Expression"
	default:
		return fmt.Errorf("unsupported shell format: %s\n\nSupported formats: posix, fish, powershell", shell)
	}

	if hint {
		fmt.Fprintln(errOut, "# Run this command to configure your environment:")
		fmt.Fprintf(errOut, "#   %s\n\n", usage)
	}
	fmt.Fprintln(out, line)
	return nil
}

// detectShell attempts to detect the current shell from the SHELL environment variable
func detectShell() string {
	shell := os.Getenv("SHELL")
	if shell == "" {
		return "posix"
	}

	switch filepath.Base(shell) {
	case "fish":
		return "fish"
	case "pwsh", "powershell":
		return "powershell"
	default:
		return "posix"
	}
}
