// Package guard decides, from a session snapshot alone, whether a route may
// render. It performs no I/O; callers act on the returned Decision.
package guard

import (
	"net/url"
	"strings"

	"github.com/terraconstructs/portal/cmd/portalctl/internal/session"
)

// Route surface.
const (
	RouteHome          = "/"
	RouteLogin         = "/login"
	RouteSignup        = "/signup"
	RouteResetPassword = "/reset-password"
	RouteDashboard     = "/dashboard"
	RouteDashboardTest = "/dashboard/test"
)

// Annotation is the cobra command annotation naming the Policy of a command.
const Annotation = "portalctl/guard"

// Verdict is the outcome of a guard.
type Verdict int

const (
	// Pending means the session is still resolving; render a neutral placeholder.
	Pending Verdict = iota
	Allow
	Redirect
)

func (v Verdict) String() string {
	switch v {
	case Pending:
		return "pending"
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decision is a guard verdict. Location is set only for Redirect.
type Decision struct {
	Verdict  Verdict
	Location string
}

func pending() Decision           { return Decision{Verdict: Pending} }
func allow() Decision             { return Decision{Verdict: Allow} }
func redirect(to string) Decision { return Decision{Verdict: Redirect, Location: to} }

// Protected admits only authenticated sessions and sends anonymous ones to the login route.
func Protected(s session.Snapshot) Decision {
	switch {
	case s.Loading():
		return pending()
	case s.Authenticated():
		return allow()
	default:
		return redirect(RouteLogin)
	}
}

// AuthOnly admits only anonymous sessions and sends authenticated ones to the dashboard.
func AuthOnly(s session.Snapshot) Decision {
	switch {
	case s.Loading():
		return pending()
	case s.Authenticated():
		return redirect(RouteDashboard)
	default:
		return allow()
	}
}

// Policy names the guard a route is wrapped in.
type Policy int

const (
	PolicyPublic Policy = iota
	PolicyProtected
	PolicyAuthOnly
)

func (p Policy) String() string {
	switch p {
	case PolicyProtected:
		return "protected"
	case PolicyAuthOnly:
		return "auth-only"
	default:
		return "public"
	}
}

// ParsePolicy is the inverse of Policy.String. Unknown names are public.
func ParsePolicy(name string) Policy {
	switch name {
	case "protected":
		return PolicyProtected
	case "auth-only":
		return PolicyAuthOnly
	default:
		return PolicyPublic
	}
}

// PolicyFor returns the policy of path. The dashboard subtree is protected;
// login, signup and password reset are auth-only; everything else is public.
func PolicyFor(path string) Policy {
	path = normalize(path)
	switch {
	case path == RouteDashboard || strings.HasPrefix(path, RouteDashboard+"/"):
		return PolicyProtected
	case path == RouteLogin, path == RouteSignup, path == RouteResetPassword:
		return PolicyAuthOnly
	default:
		return PolicyPublic
	}
}

// Apply evaluates policy against s.
func Apply(p Policy, s session.Snapshot) Decision {
	switch p {
	case PolicyProtected:
		return Protected(s)
	case PolicyAuthOnly:
		return AuthOnly(s)
	default:
		return allow()
	}
}

// Evaluate combines PolicyFor and Apply.
func Evaluate(path string, s session.Snapshot) Decision {
	return Apply(PolicyFor(path), s)
}

func normalize(path string) string {
	if path == "" {
		return RouteHome
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

// ResetPasswordMode selects which form the password reset route shows.
type ResetPasswordMode int

const (
	ResetModeRequest ResetPasswordMode = iota
	ResetModeSetPassword
)

func (m ResetPasswordMode) String() string {
	if m == ResetModeSetPassword {
		return "set-password"
	}
	return "request"
}

// ResetMode is ResetModeSetPassword iff both code and email are present and non-empty.
func ResetMode(query url.Values) ResetPasswordMode {
	if query.Get("code") != "" && query.Get("email") != "" {
		return ResetModeSetPassword
	}
	return ResetModeRequest
}
