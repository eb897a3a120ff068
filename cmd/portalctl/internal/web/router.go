// Package web serves the portal pages from the process-wide session. Every
// page is guarded by guard.Protected, guard.AuthOnly or nothing, and all
// login, registration and logout actions go through the session manager.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pterm/pterm"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/guard"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/logging"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/session"
)

// PasswordResetter runs the two-step password reset flow.
type PasswordResetter interface {
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

// RouterOptions controls the construction of the web shell router.
type RouterOptions struct {
	Session *session.Manager
	Resets  PasswordResetter
	Logger  *pterm.Logger

	// MetricsHandler is mounted at /metrics when set.
	MetricsHandler http.Handler

	// ResetRedirectDelay is how long the password-changed page waits before
	// sending the browser to the login page. Defaults to 3s.
	ResetRedirectDelay time.Duration
}

type handlers struct {
	session       *session.Manager
	resets        PasswordResetter
	logger        *pterm.Logger
	pages         *pages
	redirectDelay time.Duration
}

// NewRouter assembles the web shell router.
func NewRouter(opts RouterOptions) (chi.Router, error) {
	pages, err := loadPages()
	if err != nil {
		return nil, err
	}

	h := &handlers{
		session:       opts.Session,
		resets:        opts.Resets,
		logger:        opts.Logger,
		pages:         pages,
		redirectDelay: opts.ResetRedirectDelay,
	}
	if h.logger == nil {
		h.logger = logging.Discard()
	}
	if h.redirectDelay <= 0 {
		h.redirectDelay = 3 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if opts.MetricsHandler != nil {
		r.Handle("/metrics", opts.MetricsHandler)
	}

	r.Get(guard.RouteHome, h.home)

	r.Group(func(r chi.Router) {
		r.Use(h.guarded(guard.AuthOnly))
		r.Get(guard.RouteLogin, h.loginPage)
		r.Post(guard.RouteLogin, h.login)
		r.Get(guard.RouteSignup, h.signupPage)
		r.Post(guard.RouteSignup, h.signup)
		r.Get(guard.RouteResetPassword, h.resetPage)
		r.Post(guard.RouteResetPassword, h.reset)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.guarded(guard.Protected))
		r.Get(guard.RouteDashboard, h.dashboard)
		r.Get(guard.RouteDashboardTest, h.dashboard)
		r.Post("/logout", h.logout)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, guard.RouteHome, http.StatusSeeOther)
	})

	return r, nil
}

// guarded applies a guard decision before the wrapped handler runs.
func (h *handlers) guarded(decide func(session.Snapshot) guard.Decision) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := decide(h.session.Snapshot())
			switch d.Verdict {
			case guard.Pending:
				w.Header().Set("Refresh", "1")
				h.render(w, http.StatusOK, "pending", pageData{Title: "Loading"})
			case guard.Redirect:
				http.Redirect(w, r, d.Location, http.StatusSeeOther)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func requestLogger(logger *pterm.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request", logger.Args(
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			))
		})
	}
}
