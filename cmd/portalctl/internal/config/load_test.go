package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.True(t, cfg.Session.ClearStaleToken)
	assert.Equal(t, 10*time.Second, cfg.Identity.Timeout)
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
identity:
  url: https://file.example.com
  auth_key: from-file
  timeout: 3s
session:
  clear_stale_token: false
log:
  level: debug
`), 0600))

	t.Setenv("PORTAL_IDENTITY_AUTH_KEY", "from-env")
	t.Setenv("PORTAL_STORE_DIR", "/tmp/portal-env")

	cfg, err := Load(path, map[string]any{
		"store.dir": "/tmp/portal-flag",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://file.example.com", cfg.Identity.URL, "file beats default")
	assert.Equal(t, 3*time.Second, cfg.Identity.Timeout)
	assert.False(t, cfg.Session.ClearStaleToken)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "from-env", cfg.Identity.AuthKey, "env beats file")
	assert.Equal(t, "/tmp/portal-flag", cfg.Store.Dir, "flags beat env")

	// untouched keys keep their defaults
	assert.Equal(t, "/simple-jwt-login/v1", cfg.Identity.RESTRoute)
	assert.Equal(t, "colorful", cfg.Log.Format)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.ErrorContains(t, err, "load config file")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	_, err := Load("", map[string]any{"identity.url": "not a url"})
	assert.ErrorContains(t, err, "identity.url")

	_, err = Load("", map[string]any{"log.format": "xml"})
	assert.ErrorContains(t, err, "log.format")
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "identity.url", envKey("PORTAL_IDENTITY_URL"))
	assert.Equal(t, "session.clear_stale_token", envKey("PORTAL_SESSION_CLEAR_STALE_TOKEN"))
}

func TestContextInjection(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)
	assert.Panics(t, func() { MustFromContext(context.Background()) })

	gc := &GlobalConfig{Settings: Default(), NonInteractive: true}
	ctx := InjectConfig(context.Background(), gc)
	assert.Same(t, gc, MustFromContext(ctx))
}
