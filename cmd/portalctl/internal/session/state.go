package session

import "github.com/terraconstructs/portal/pkg/sdk"

// Status is the tag of the session state.
type Status int

const (
	// StatusResolving is the initial state, held while a stored token is validated.
	StatusResolving Status = iota
	StatusAuthenticated
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusResolving:
		return "resolving"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of the session. Loading is true only while
// resolving and an identity is present only when authenticated. The zero
// value is resolving; the constructors below are the only way to build the
// other states.
type Snapshot struct {
	status   Status
	identity sdk.Identity
}

// Resolving returns the initial state.
func Resolving() Snapshot { return Snapshot{status: StatusResolving} }

// Anonymous returns the state of a session without a valid token.
func Anonymous() Snapshot { return Snapshot{status: StatusAnonymous} }

// AuthenticatedAs returns the state of a session resolved to id.
func AuthenticatedAs(id sdk.Identity) Snapshot {
	return Snapshot{status: StatusAuthenticated, identity: id}
}

func (s Snapshot) Status() Status { return s.status }

// Loading reports whether the startup token validation is still running.
func (s Snapshot) Loading() bool { return s.status == StatusResolving }

func (s Snapshot) Authenticated() bool { return s.status == StatusAuthenticated }

// Identity returns the current identity, if authenticated.
func (s Snapshot) Identity() (sdk.Identity, bool) {
	if s.status != StatusAuthenticated {
		return sdk.Identity{}, false
	}
	return s.identity, true
}
