package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/pterm/pterm"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/auth"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/logging"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/session"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/telemetry"
	"github.com/terraconstructs/portal/pkg/sdk"
)

// UserAgent is sent with every identity service request.
const UserAgent = "portalctl"

// Settings are the inputs a Provider builds its clients from.
type Settings struct {
	ServerURL       string
	AuthKey         string
	RESTRoute       string
	Timeout         time.Duration
	StoreDir        string
	Ephemeral       bool
	ClearStaleToken bool
	Logger          *pterm.Logger
}

// Provider lazily builds the token store, SDK client and session manager,
// each at most once per process.
type Provider struct {
	settings    Settings
	bearerToken string // ephemeral token that bypasses the file store

	storeOnce sync.Once
	store     sdk.TokenStore
	storeErr  error

	sdkOnce   sync.Once
	sdkClient *sdk.Client

	metrics *telemetry.Metrics

	sessionOnce sync.Once
	session     *session.Manager
	sessionErr  error
}

// NewProvider constructs a new Provider.
func NewProvider(settings Settings) *Provider {
	if settings.Logger == nil {
		settings.Logger = logging.Discard()
	}
	return &Provider{
		settings: settings,
		metrics:  telemetry.New(),
	}
}

// SetBearerToken seeds an in-memory store with token instead of using the
// file store. Nothing is persisted. Must be called before first use.
func (p *Provider) SetBearerToken(token string) {
	p.bearerToken = token
}

// ServerURL returns the identity service base URL.
func (p *Provider) ServerURL() string {
	return p.settings.ServerURL
}

// Logger returns the diagnostic logger.
func (p *Provider) Logger() *pterm.Logger {
	return p.settings.Logger
}

// Metrics returns the process metrics.
func (p *Provider) Metrics() *telemetry.Metrics {
	return p.metrics
}

// TokenStore returns the file store, or a memory store for ephemeral sessions.
func (p *Provider) TokenStore() (sdk.TokenStore, error) {
	p.storeOnce.Do(func() {
		if p.bearerToken != "" || p.settings.Ephemeral {
			p.store = sdk.NewMemoryTokenStore(p.bearerToken)
			return
		}
		store, err := auth.NewFileStore(p.settings.StoreDir)
		if err != nil {
			p.storeErr = fmt.Errorf("failed to create token store: %w", err)
			return
		}
		p.store = store
	})
	if p.storeErr != nil {
		return nil, p.storeErr
	}
	return p.store, nil
}

// SDKClient returns the identity service client.
func (p *Provider) SDKClient() *sdk.Client {
	p.sdkOnce.Do(func() {
		timeout := p.settings.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		p.sdkClient = sdk.NewClient(p.settings.ServerURL,
			sdk.WithHTTPClient(&http.Client{Timeout: timeout}),
			sdk.WithAuthKey(p.settings.AuthKey),
			sdk.WithRESTRoute(p.settings.RESTRoute),
			sdk.WithUserAgent(UserAgent),
		)
	})
	return p.sdkClient
}

// Session returns the process-wide session manager. It is not initialized;
// callers decide when to resolve the stored token.
func (p *Provider) Session() (*session.Manager, error) {
	p.sessionOnce.Do(func() {
		store, err := p.TokenStore()
		if err != nil {
			p.sessionErr = err
			return
		}
		p.session = session.NewManager(store, p.metrics.Instrument(p.SDKClient()),
			session.WithLogger(p.settings.Logger),
			session.WithClearStaleToken(p.settings.ClearStaleToken),
			session.WithListener(p.metrics.ObserveTransition),
		)
	})
	if p.sessionErr != nil {
		return nil, p.sessionErr
	}
	return p.session, nil
}

// RequestPasswordReset asks the service to mail a reset code to email.
func (p *Provider) RequestPasswordReset(ctx context.Context, email string) error {
	return p.metrics.Track("reset_request", func() error {
		return p.SDKClient().RequestPasswordReset(ctx, email)
	})
}

// ResetPassword sets a new password using the mailed code.
func (p *Provider) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	return p.metrics.Track("reset_password", func() error {
		return p.SDKClient().ResetPassword(ctx, email, code, newPassword)
	})
}
