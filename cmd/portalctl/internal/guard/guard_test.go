package guard

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/session"
	"github.com/terraconstructs/portal/pkg/sdk"
)

var (
	resolving = session.Resolving()
	anonymous = session.Anonymous()
	signedIn  = session.AuthenticatedAs(sdk.Identity{Login: "jo", Role: "editor"})
)

func TestProtected(t *testing.T) {
	assert.Equal(t, Decision{Verdict: Pending}, Protected(resolving))
	assert.Equal(t, Decision{Verdict: Allow}, Protected(signedIn))
	assert.Equal(t, Decision{Verdict: Redirect, Location: RouteLogin}, Protected(anonymous))
}

func TestAuthOnly(t *testing.T) {
	assert.Equal(t, Decision{Verdict: Pending}, AuthOnly(resolving))
	assert.Equal(t, Decision{Verdict: Redirect, Location: RouteDashboard}, AuthOnly(signedIn))
	assert.Equal(t, Decision{Verdict: Allow}, AuthOnly(anonymous))
}

func TestPolicyFor(t *testing.T) {
	tests := []struct {
		path string
		want Policy
	}{
		{"", PolicyPublic},
		{"/", PolicyPublic},
		{"/about", PolicyPublic},
		{"/dashboard", PolicyProtected},
		{"/dashboard/", PolicyProtected},
		{"/dashboard/test", PolicyProtected},
		{"/dashboard/settings/profile", PolicyProtected},
		{"/dashboards", PolicyPublic},
		{"/login", PolicyAuthOnly},
		{"/signup", PolicyAuthOnly},
		{"/reset-password", PolicyAuthOnly},
		{"/reset-password/", PolicyAuthOnly},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, PolicyFor(tt.path))
		})
	}
}

func TestEvaluate(t *testing.T) {
	// public routes never redirect, even while resolving
	assert.Equal(t, Allow, Evaluate("/", resolving).Verdict)
	assert.Equal(t, Allow, Evaluate("/", anonymous).Verdict)

	assert.Equal(t, RouteLogin, Evaluate(RouteDashboardTest, anonymous).Location)
	assert.Equal(t, RouteDashboard, Evaluate(RouteSignup, signedIn).Location)
	assert.Equal(t, Pending, Evaluate(RouteResetPassword, resolving).Verdict)
}

func TestPolicyRoundTrip(t *testing.T) {
	for _, p := range []Policy{PolicyPublic, PolicyProtected, PolicyAuthOnly} {
		assert.Equal(t, p, ParsePolicy(p.String()))
	}
	assert.Equal(t, PolicyPublic, ParsePolicy("bogus"))
}

func TestResetMode(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  ResetPasswordMode
	}{
		{"no params", "", ResetModeRequest},
		{"code only", "code=123", ResetModeRequest},
		{"email only", "email=jo%40x.com", ResetModeRequest},
		{"empty code", "code=&email=jo%40x.com", ResetModeRequest},
		{"both", "code=123&email=jo%40x.com", ResetModeSetPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, ResetMode(q))
		})
	}
}
