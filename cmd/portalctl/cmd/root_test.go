package cmd

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	authstore "github.com/terraconstructs/portal/cmd/portalctl/internal/auth"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/config"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/session"
)

// identity stands in for the identity service. It accepts the token abc123 only.
type identity struct {
	*httptest.Server

	mu          sync.Mutex
	revokeFails bool
	calls       []string
}

func identityServer(t *testing.T) *identity {
	t.Helper()
	id := &identity{}
	id.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.Query().Get("rest_route")
		id.mu.Lock()
		id.calls = append(id.calls, r.Method+" "+route[strings.LastIndex(route, "v1/")+3:])
		revokeFails := id.revokeFails
		id.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(route, "/auth/validate") && r.URL.Query().Get("JWT") == "abc123":
			_, _ = w.Write([]byte(`{"success":true,"data":{"user":{"ID":"7","user_login":"jo","user_email":"jo@x.com","display_name":"Jo"},"roles":["editor"]}}`))
		case strings.HasSuffix(route, "/auth/revoke") && revokeFails:
			w.WriteHeader(http.StatusBadGateway)
		case strings.HasSuffix(route, "/auth/revoke"):
			_, _ = w.Write([]byte(`{"success":true,"data":{"message":"Token was revoked."}}`))
		case strings.HasSuffix(route, "/user/reset_password"):
			_, _ = w.Write([]byte(`{"success":true,"message":"ok"}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"success":false,"data":{"message":"Invalid JWT","errorCode":14}}`))
		}
	}))
	t.Cleanup(id.Close)
	return id
}

func (id *identity) Calls() []string {
	id.mu.Lock()
	defer id.mu.Unlock()
	return append([]string(nil), id.calls...)
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	_, err := execute(t, args...)
	return err
}

// execute runs the root command and returns the configuration injected for
// the command that ran.
func execute(t *testing.T, args ...string) (*config.GlobalConfig, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PORTAL_NON_INTERACTIVE", "1")
	rootCmd.SetArgs(args)
	c, err := rootCmd.ExecuteC()
	if c == nil {
		return nil, err
	}
	gc, _ := config.FromContext(c.Context())
	return gc, err
}

// seededStore returns a store directory holding token.
func seededStore(t *testing.T, token string) string {
	t.Helper()
	dir := t.TempDir()
	store, err := authstore.NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set(token))
	return dir
}

func storedToken(t *testing.T, gc *config.GlobalConfig) string {
	t.Helper()
	require.NotNil(t, gc)
	store, err := gc.ClientProvider.TokenStore()
	require.NoError(t, err)
	tok, err := store.Get()
	require.NoError(t, err)
	return tok
}

func TestProtectedCommandRequiresLogin(t *testing.T) {
	srv := identityServer(t)
	t.Setenv("PORTAL_TOKEN", "")

	err := run(t, "dashboard", "--url", srv.URL, "--ephemeral")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
}

func TestProtectedCommandWithValidToken(t *testing.T) {
	srv := identityServer(t)
	t.Setenv("PORTAL_TOKEN", "abc123")

	assert.NoError(t, run(t, "dashboard", "test", "--url", srv.URL))
}

func TestAuthOnlyCommandRejectsSignedInUser(t *testing.T) {
	srv := identityServer(t)
	t.Setenv("PORTAL_TOKEN", "abc123")

	err := run(t, "auth", "login", "--url", srv.URL, "--login", "jo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already logged in as Jo")
}

func TestStaleTokenIsTreatedAsAnonymous(t *testing.T) {
	srv := identityServer(t)
	t.Setenv("PORTAL_TOKEN", "expired")

	err := run(t, "dashboard", "--url", srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
}

func TestLogoutRevokesAndClearsStore(t *testing.T) {
	srv := identityServer(t)
	t.Setenv("PORTAL_TOKEN", "")
	dir := seededStore(t, "abc123")

	gc, err := execute(t, "auth", "logout", "--url", srv.URL, "--store-dir", dir, "--ephemeral=false")
	require.NoError(t, err)

	mgr, err := gc.ClientProvider.Session()
	require.NoError(t, err)
	assert.Equal(t, session.StatusAnonymous, mgr.Snapshot().Status())
	assert.Empty(t, storedToken(t, gc))
	assert.Equal(t, []string{"POST auth/validate", "POST auth/revoke"}, srv.Calls())
}

func TestLogoutRevokeFailureKeepsSession(t *testing.T) {
	srv := identityServer(t)
	srv.revokeFails = true
	t.Setenv("PORTAL_TOKEN", "")
	dir := seededStore(t, "abc123")

	gc, err := execute(t, "auth", "logout", "--url", srv.URL, "--store-dir", dir, "--ephemeral=false")
	require.NoError(t, err)

	mgr, err := gc.ClientProvider.Session()
	require.NoError(t, err)
	snap := mgr.Snapshot()
	assert.False(t, snap.Loading())
	assert.Equal(t, session.StatusAuthenticated, snap.Status())
	assert.Equal(t, "abc123", storedToken(t, gc))
}

func TestResetPasswordModes(t *testing.T) {
	t.Setenv("PORTAL_TOKEN", "")

	t.Run("email only requests a reset code", func(t *testing.T) {
		srv := identityServer(t)
		err := run(t, "reset-password", "--url", srv.URL, "--ephemeral", "--email", "jo@x.com", "--code=", "--password-stdin=false")
		require.NoError(t, err)
		assert.Equal(t, []string{"POST user/reset_password"}, srv.Calls())
	})

	t.Run("email and code set the new password", func(t *testing.T) {
		srv := identityServer(t)
		rootCmd.SetIn(strings.NewReader("s3cret\n"))
		t.Cleanup(func() { rootCmd.SetIn(nil) })

		err := run(t, "reset-password", "--url", srv.URL, "--ephemeral", "--email", "jo@x.com", "--code", "123456", "--password-stdin")
		require.NoError(t, err)
		assert.Equal(t, []string{"PUT user/reset_password"}, srv.Calls())
	})
}

func TestSignupRequiresAuthKey(t *testing.T) {
	srv := identityServer(t)
	t.Setenv("PORTAL_TOKEN", "")
	t.Setenv("PORTAL_IDENTITY_AUTH_KEY", "")
	rootCmd.SetIn(strings.NewReader("pw\n"))
	t.Cleanup(func() { rootCmd.SetIn(nil) })

	err := run(t, "auth", "signup", "--url", srv.URL, "--ephemeral",
		"--email", "jo@x.com", "--username", "jo", "--first-name", "Jo", "--last-name", "Doe", "--password-stdin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "identity.auth_key is not configured")
	assert.Empty(t, srv.Calls(), "no registration is attempted")
}
