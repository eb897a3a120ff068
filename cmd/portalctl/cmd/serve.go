package cmd

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/config"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/web"
)

var (
	serveAddr    string
	serveMetrics bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the portal pages locally",
	Long: `Starts a local web server with the login, sign up, password reset and
dashboard pages. The session is shared with the CLI through the token store
and is resolved in the background once the server is listening.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		provider := cfg.ClientProvider

		addr := cfg.Settings.Serve.Addr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}
		metrics := cfg.Settings.Serve.Metrics || serveMetrics

		mgr, err := provider.Session()
		if err != nil {
			return err
		}

		opts := web.RouterOptions{
			Session: mgr,
			Resets:  provider,
			Logger:  provider.Logger(),
		}
		if metrics {
			opts.MetricsHandler = provider.Metrics().Handler()
		}

		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", addr, err)
		}
		pterm.Info.Printf("Serving portal on http://%s\n", ln.Addr())

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := web.Serve(ctx, ln, opts); err != nil {
			return err
		}
		pterm.Info.Println("Server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:3000", "Listen address (serve.addr)")
	serveCmd.Flags().BoolVar(&serveMetrics, "metrics", false, "Expose Prometheus metrics at /metrics (serve.metrics)")
}
