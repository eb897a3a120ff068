package sdk

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Identity is the user a token resolves to, with the single role the
// application assigns: the first entry of the role list the service returns.
// It is a value type; a new login or validation produces a new Identity.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Login       string `json:"login"`
	Email       string `json:"email"`
	Role        string `json:"role"`
}

// Name returns the best available human readable name.
func (i Identity) Name() string {
	switch {
	case i.DisplayName != "":
		return i.DisplayName
	case i.Login != "":
		return i.Login
	case i.Email != "":
		return i.Email
	default:
		return "User"
	}
}

// IdentifierKind tells how a login identifier is sent to the service.
type IdentifierKind int

const (
	IdentifierUsername IdentifierKind = iota
	IdentifierEmail
)

func (k IdentifierKind) String() string {
	if k == IdentifierEmail {
		return "email"
	}
	return "username"
}

// ClassifyIdentifier treats any identifier containing "@" as an email address.
func ClassifyIdentifier(identifier string) IdentifierKind {
	if strings.Contains(identifier, "@") {
		return IdentifierEmail
	}
	return IdentifierUsername
}

// UserRecord is the subset of the WordPress user object the client reads.
type UserRecord struct {
	ID          flexString `json:"ID"`
	Login       string     `json:"user_login"`
	Email       string     `json:"user_email"`
	DisplayName string     `json:"display_name"`
	NiceName    string     `json:"user_nicename"`
}

// flexString accepts both JSON strings and numbers; WordPress is not
// consistent about the type of user IDs.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// NewIdentity derives an Identity from a user record and its role list.
func NewIdentity(user UserRecord, roles []string) Identity {
	id := Identity{
		ID:          string(user.ID),
		DisplayName: user.DisplayName,
		Login:       user.Login,
		Email:       user.Email,
	}
	if len(roles) > 0 {
		id.Role = roles[0]
	}
	return id
}

// AuthResult is returned by Login and Register: the newly issued token and
// the raw user payload that accompanied it.
type AuthResult struct {
	Token string
	User  *UserRecord
	Roles []string
	Raw   json.RawMessage
}

// Identity derives the session identity from the result. When the service
// did not include a user record, the token's own claims are used.
func (r *AuthResult) Identity() Identity {
	if r.User != nil {
		return NewIdentity(*r.User, r.Roles)
	}

	claims, err := InspectToken(r.Token)
	if err != nil {
		return NewIdentity(UserRecord{}, r.Roles)
	}
	return NewIdentity(UserRecord{
		ID:    flexString(claims.UserID),
		Login: claims.Username,
		Email: claims.Email,
	}, r.Roles)
}

// Registration carries the profile fields of a new account.
type Registration struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Username  string `json:"user_login"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func parseUser(raw json.RawMessage) (*UserRecord, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var u UserRecord
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func formatID(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}
