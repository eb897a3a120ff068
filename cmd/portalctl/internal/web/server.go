package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/terraconstructs/portal/cmd/portalctl/internal/logging"
)

// Serve runs the web shell on ln until ctx is canceled. The session is
// resolved in the background once the listener accepts connections; until
// then guarded pages render the pending placeholder.
func Serve(ctx context.Context, ln net.Listener, opts RouterOptions) error {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	router, err := NewRouter(opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Serve(ln)
	}()

	go func() {
		if err := opts.Session.Initialize(ctx); err != nil {
			opts.Logger.Warn("session initialization skipped", opts.Logger.Args("error", err))
		}
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		srv.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
