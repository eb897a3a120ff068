package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/terraconstructs/portal/cmd/portalctl/cmd/auth"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/client"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/config"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/guard"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/logging"
)

var (
	configPath     string
	serverURL      string
	storeDir       string
	logLevel       string
	logFormat      string
	nonInteractive bool
	ephemeral      bool
)

// flagKeys maps persistent flags to configuration keys.
var flagKeys = map[string]string{
	"url":        "identity.url",
	"store-dir":  "store.dir",
	"log-level":  "log.level",
	"log-format": "log.format",
}

var rootCmd = &cobra.Command{
	Use:   "portalctl",
	Short: "Portal CLI - sign in to a WordPress site with Simple JWT Login",
	Long: `portalctl keeps a single signed-in session against a WordPress site running
the Simple JWT Login plugin. Use it to log in, register, reset a password,
inspect the current identity, or serve the portal pages locally.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.portal/config.yaml when present)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", "", "Identity service base URL (identity.url)")
	rootCmd.PersistentFlags().StringVar(&storeDir, "store-dir", "", "Directory holding the stored token (default ~/.portal)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: colorful, json")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "Disable interactive prompts (also set via PORTAL_NON_INTERACTIVE=1)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "Keep the token in memory only")

	rootCmd.AddCommand(auth.AuthCmd)
	rootCmd.AddCommand(resetPasswordCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(homeCmd)
	rootCmd.AddCommand(serveCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	if os.Getenv("PORTAL_NON_INTERACTIVE") == "1" {
		nonInteractive = true
	}

	overrides := make(map[string]any)
	for flag, key := range flagKeys {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			overrides[key] = f.Value.String()
		}
	}

	settings, err := config.Load(resolveConfigPath(), overrides)
	if err != nil {
		return err
	}

	logger, err := logging.New(settings.Log.Level, settings.Log.Format, os.Stderr)
	if err != nil {
		return err
	}

	provider := client.NewProvider(client.Settings{
		ServerURL:       settings.Identity.URL,
		AuthKey:         settings.Identity.AuthKey,
		RESTRoute:       settings.Identity.RESTRoute,
		Timeout:         settings.Identity.Timeout,
		StoreDir:        settings.Store.Dir,
		Ephemeral:       ephemeral,
		ClearStaleToken: settings.Session.ClearStaleToken,
		Logger:          logger,
	})
	if token := os.Getenv(auth.TokenEnv); token != "" {
		provider.SetBearerToken(token)
	}

	gc := &config.GlobalConfig{
		Settings:       settings,
		NonInteractive: nonInteractive,
		ClientProvider: provider,
	}
	cmd.SetContext(config.InjectConfig(cmd.Context(), gc))

	policy, ok := cmd.Annotations[guard.Annotation]
	if !ok {
		return nil
	}
	return enforce(cmd, gc, guard.ParsePolicy(policy))
}

// resolveConfigPath returns --config, or the default file when it exists.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(home, ".portal", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// enforce resolves the session and applies policy, turning a redirect into an
// error that points the user at the command to run instead.
func enforce(cmd *cobra.Command, gc *config.GlobalConfig, policy guard.Policy) error {
	mgr, err := gc.ResolveSession(cmd.Context())
	if err != nil {
		return err
	}

	snap := mgr.Snapshot()
	d := guard.Apply(policy, snap)
	if d.Verdict != guard.Redirect {
		return nil
	}
	switch d.Location {
	case guard.RouteLogin:
		return errors.New("not logged in, run `portalctl auth login`")
	case guard.RouteDashboard:
		id, _ := snap.Identity()
		return fmt.Errorf("already logged in as %s, see `portalctl dashboard`", id.Name())
	default:
		return fmt.Errorf("%s is not available, see %s", cmd.CommandPath(), d.Location)
	}
}
