// Package session owns the mapping from the stored token to the current
// identity and the explicit login, registration and logout transitions.
//
// A Manager is created once per process and handed to every consumer (CLI
// commands, the web shell's guards and handlers). It starts out resolving;
// Initialize moves it to authenticated or anonymous. After that it only
// changes through ApplyLogin, ApplyRegistration, Logout or a new Initialize.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/pterm/pterm"
	"github.com/terraconstructs/portal/pkg/sdk"
)

// ErrActionInFlight is returned when an action is started while another one
// has not completed yet. State and store are left untouched.
var ErrActionInFlight = errors.New("another session action is already in progress")

// IdentityService is the remote boundary the Manager drives. *sdk.Client implements it.
type IdentityService interface {
	Validate(ctx context.Context, token string) (sdk.Identity, error)
	Revoke(ctx context.Context, token string) error
	Login(ctx context.Context, identifier, password string) (*sdk.AuthResult, error)
	Register(ctx context.Context, reg sdk.Registration) (*sdk.AuthResult, error)
}

// Listener is called after every state change.
type Listener func(prev, next Snapshot)

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *pterm.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClearStaleToken controls whether a token the identity service rejects
// as unauthorized during Initialize is removed from the store. Network
// failures never clear the token.
func WithClearStaleToken(clear bool) Option {
	return func(m *Manager) {
		m.clearStale = clear
	}
}

// WithListener registers fn to be called after every state change.
func WithListener(fn Listener) Option {
	return func(m *Manager) {
		m.listeners = append(m.listeners, fn)
	}
}

// Manager is the session state machine.
type Manager struct {
	store      sdk.TokenStore
	identity   IdentityService
	logger     *pterm.Logger
	clearStale bool
	listeners  []Listener

	// busy admits one action at a time
	busy atomic.Bool

	mu    sync.RWMutex
	state Snapshot
}

// NewManager returns a Manager in the resolving state.
func NewManager(store sdk.TokenStore, identity IdentityService, opts ...Option) *Manager {
	m := &Manager{
		store:      store,
		identity:   identity,
		logger:     pterm.DefaultLogger.WithWriter(io.Discard),
		clearStale: true,
		state:      Resolving(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Snapshot returns the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Manager) begin() bool {
	return m.busy.CompareAndSwap(false, true)
}

func (m *Manager) end() {
	m.busy.Store(false)
}

func (m *Manager) transition(next Snapshot) {
	m.mu.Lock()
	prev := m.state
	m.state = next
	m.mu.Unlock()

	if prev == next {
		return
	}
	m.logger.Debug("session transition", m.logger.Args("from", prev.Status(), "to", next.Status()))
	for _, fn := range m.listeners {
		fn(prev, next)
	}
}

// Initialize resolves the stored token into an identity. Without a token
// the session becomes anonymous directly. With one, the session is resolving
// until Validate returns; a failure of any kind yields anonymous and is not
// reported to the caller. Loading is cleared exactly once, whatever happens
// during validation. The only error is ErrActionInFlight.
func (m *Manager) Initialize(ctx context.Context) error {
	if !m.begin() {
		return ErrActionInFlight
	}
	defer m.end()

	m.resolve(ctx)
	return nil
}

// resolve runs the resolution itself; the caller holds busy.
func (m *Manager) resolve(ctx context.Context) {
	token, err := m.store.Get()
	if err != nil {
		m.logger.Warn("failed to read token store, continuing anonymously", m.logger.Args("error", err))
		m.transition(Anonymous())
		return
	}
	if token == "" {
		m.transition(Anonymous())
		return
	}

	m.transition(Resolving())
	next := Anonymous()
	defer func() { m.transition(next) }()

	id, err := m.identity.Validate(ctx, token)
	if err != nil {
		m.logger.Info("stored token did not validate", m.logger.Args("token", sdk.Fingerprint(token), "error", err))
		if errors.Is(err, sdk.ErrUnauthorized) && m.clearStale {
			if clearErr := m.store.Clear(); clearErr != nil {
				m.logger.Warn("failed to clear rejected token", m.logger.Args("error", clearErr))
			} else {
				m.logger.Info("cleared rejected token", m.logger.Args("token", sdk.Fingerprint(token)))
			}
		}
		return
	}

	next = AuthenticatedAs(id)
}

// ApplyLogin logs in with identifier (a username or an email address) and
// password. On success the new token is stored and the session becomes
// authenticated with the identity from the login response; no second
// validation is made. On failure the session is unchanged and the typed
// error is returned for display.
func (m *Manager) ApplyLogin(ctx context.Context, identifier, password string) (sdk.Identity, error) {
	if !m.begin() {
		return sdk.Identity{}, ErrActionInFlight
	}
	defer m.end()

	res, err := m.identity.Login(ctx, identifier, password)
	if err != nil {
		return sdk.Identity{}, err
	}
	return m.establish(res)
}

// ApplyRegistration creates an account and signs it in, like ApplyLogin.
func (m *Manager) ApplyRegistration(ctx context.Context, reg sdk.Registration) (sdk.Identity, error) {
	if !m.begin() {
		return sdk.Identity{}, ErrActionInFlight
	}
	defer m.end()

	res, err := m.identity.Register(ctx, reg)
	if err != nil {
		return sdk.Identity{}, err
	}
	return m.establish(res)
}

func (m *Manager) establish(res *sdk.AuthResult) (sdk.Identity, error) {
	if err := m.store.Set(res.Token); err != nil {
		return sdk.Identity{}, fmt.Errorf("failed to store token: %w", err)
	}
	id := res.Identity()
	m.transition(AuthenticatedAs(id))
	return id, nil
}

// Logout revokes the stored token. Only when the service confirms is the
// store cleared and the session made anonymous. A failed revocation is
// logged and leaves both untouched; callers learn about it from Snapshot.
// With an empty store nothing is revoked or written. A session that was
// never resolved is resolved first, so Logout never leaves it resolving.
// The only error is ErrActionInFlight.
func (m *Manager) Logout(ctx context.Context) error {
	if !m.begin() {
		return ErrActionInFlight
	}
	defer m.end()

	if m.Snapshot().Loading() {
		m.resolve(ctx)
	}

	token, err := m.store.Get()
	if err != nil {
		m.logger.Warn("logout failed, could not read token store", m.logger.Args("error", err))
		return nil
	}
	if token == "" {
		m.transition(Anonymous())
		return nil
	}

	if err := m.identity.Revoke(ctx, token); err != nil {
		m.logger.Warn("logout failed, session left unchanged", m.logger.Args("token", sdk.Fingerprint(token), "error", err))
		return nil
	}

	if err := m.store.Clear(); err != nil {
		m.logger.Error("token revoked but could not be removed from the store", m.logger.Args("error", err))
	}
	m.transition(Anonymous())
	return nil
}
