package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/session"
	"github.com/terraconstructs/portal/pkg/sdk"
)

func TestProviderFileStore(t *testing.T) {
	dir := t.TempDir()
	p := NewProvider(Settings{ServerURL: "http://identity.invalid", StoreDir: dir})

	store, err := p.TokenStore()
	require.NoError(t, err)
	require.NoError(t, store.Set("abc123"))

	_, err = os.Stat(filepath.Join(dir, "credentials.json"))
	assert.NoError(t, err)

	again, err := p.TokenStore()
	require.NoError(t, err)
	assert.Same(t, store, again)
}

func TestProviderBearerTokenIsEphemeral(t *testing.T) {
	dir := t.TempDir()
	p := NewProvider(Settings{ServerURL: "http://identity.invalid", StoreDir: dir})
	p.SetBearerToken("abc123")

	store, err := p.TokenStore()
	require.NoError(t, err)
	tok, err := store.Get()
	require.NoError(t, err)
	assert.Equal(t, "abc123", tok)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing is written to disk")
}

func TestProviderSessionIsShared(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"user":{"ID":"7","user_login":"jo","display_name":"Jo"},"roles":["editor"]}}`))
	}))
	defer srv.Close()

	p := NewProvider(Settings{ServerURL: srv.URL, Ephemeral: true, ClearStaleToken: true})
	p.SetBearerToken("abc123")

	m1, err := p.Session()
	require.NoError(t, err)
	m2, err := p.Session()
	require.NoError(t, err)
	assert.Same(t, m1, m2)

	require.NoError(t, m1.Initialize(context.Background()))
	snap := m2.Snapshot()
	assert.Equal(t, session.StatusAuthenticated, snap.Status())
	id, _ := snap.Identity()
	assert.Equal(t, "Jo", id.DisplayName)
	assert.Equal(t, "editor", id.Role)

	metrics := p.Metrics()
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.IdentityCalls.WithLabelValues("validate", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SessionStatus.WithLabelValues("authenticated")))
}

func TestProviderPasswordResetIsTracked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"data":{"message":"Wrong user.","errorCode":24}}`))
	}))
	defer srv.Close()

	p := NewProvider(Settings{ServerURL: srv.URL, Ephemeral: true})
	err := p.RequestPasswordReset(context.Background(), "nobody@x.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, sdk.ErrValidation)
	assert.Equal(t, "User not found", sdk.DisplayMessage(err))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.Metrics().IdentityCalls.WithLabelValues("reset_request", "validation")))
}
