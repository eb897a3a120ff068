package config

import (
	"context"

	"github.com/terraconstructs/portal/cmd/portalctl/internal/client"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/session"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/terminal"
)

type contextKey string

const configKey contextKey = "portalctl-config"

// GlobalConfig holds shared configuration for all portalctl commands.
// This is injected into the cobra command context by the root command's
// PersistentPreRunE hook and consumed by all subcommands.
type GlobalConfig struct {
	Settings       *Config
	NonInteractive bool
	ClientProvider *client.Provider
}

// InjectConfig adds config to the cobra command context.
// This should be called in the root command's PersistentPreRunE.
func InjectConfig(ctx context.Context, cfg *GlobalConfig) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from the cobra command context.
// Returns (nil, false) if config is not present.
func FromContext(ctx context.Context) (*GlobalConfig, bool) {
	cfg, ok := ctx.Value(configKey).(*GlobalConfig)
	return cfg, ok
}

// MustFromContext retrieves config from context or panics.
// This should only be used in command RunE functions where we know
// the config has been injected by the root command.
func MustFromContext(ctx context.Context) *GlobalConfig {
	cfg, ok := FromContext(ctx)
	if !ok {
		panic("portalctl: config not found in context - this is a bug in portalctl")
	}
	return cfg
}

// ResolveSession returns the process session after resolving the stored
// token, behind a spinner on interactive terminals.
func (gc *GlobalConfig) ResolveSession(ctx context.Context) (*session.Manager, error) {
	mgr, err := gc.ClientProvider.Session()
	if err != nil {
		return nil, err
	}
	terminal.Spin(terminal.Interactive(gc.NonInteractive), "Checking session...", func() {
		err = mgr.Initialize(ctx)
	})
	if err != nil {
		return nil, err
	}
	return mgr, nil
}
