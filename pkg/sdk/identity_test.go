package sdk

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func TestClassifyIdentifier(t *testing.T) {
	assert.Equal(t, IdentifierEmail, ClassifyIdentifier("jo@x.com"))
	assert.Equal(t, IdentifierUsername, ClassifyIdentifier("jo"))
	assert.Equal(t, IdentifierEmail, ClassifyIdentifier("@"))
	assert.Equal(t, "email", IdentifierEmail.String())
	assert.Equal(t, "username", IdentifierUsername.String())
}

func TestNewIdentityUsesFirstRole(t *testing.T) {
	id := NewIdentity(UserRecord{DisplayName: "Jo"}, []string{"editor", "administrator"})
	assert.Equal(t, "editor", id.Role)

	id = NewIdentity(UserRecord{Login: "jo"}, nil)
	assert.Empty(t, id.Role)
	assert.Equal(t, "jo", id.Name())
}

func TestIdentityName(t *testing.T) {
	assert.Equal(t, "Jo", Identity{DisplayName: "Jo", Login: "jo"}.Name())
	assert.Equal(t, "jo", Identity{Login: "jo", Email: "jo@x.com"}.Name())
	assert.Equal(t, "jo@x.com", Identity{Email: "jo@x.com"}.Name())
	assert.Equal(t, "User", Identity{}.Name())
}

func TestAuthResultIdentityFallsBackToClaims(t *testing.T) {
	tok := signedToken(t, jwt.MapClaims{
		"id":       42,
		"email":    "jo@x.com",
		"username": "jo",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	res := &AuthResult{Token: tok, Roles: []string{"subscriber"}}
	assert.Equal(t, Identity{ID: "42", Login: "jo", Email: "jo@x.com", Role: "subscriber"}, res.Identity())

	res = &AuthResult{Token: "not-a-jwt", Roles: []string{"subscriber"}}
	assert.Equal(t, Identity{Role: "subscriber"}, res.Identity())
}

func TestInspectToken(t *testing.T) {
	exp := time.Now().Add(-time.Minute).Truncate(time.Second)
	tok := signedToken(t, jwt.MapClaims{"id": "5", "email": "a@b.c", "exp": exp.Unix(), "iat": exp.Add(-time.Hour).Unix()})

	claims, err := InspectToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "5", claims.UserID)
	assert.Equal(t, "a@b.c", claims.Email)
	assert.True(t, claims.ExpiresAt.Equal(exp))
	assert.True(t, claims.Expired(time.Now()))
	assert.False(t, TokenClaims{}.Expired(time.Now()))

	_, err = InspectToken("garbage")
	assert.Error(t, err)
}

func TestFingerprint(t *testing.T) {
	assert.Empty(t, Fingerprint(""))
	assert.Len(t, Fingerprint("abc123"), 8)
	assert.Equal(t, Fingerprint("abc123"), Fingerprint("abc123"))
	assert.NotEqual(t, Fingerprint("abc123"), Fingerprint("abc124"))
}

func TestErrorMatchesKind(t *testing.T) {
	err := fmt.Errorf("login failed: %w", &Error{Op: "login", Kind: ErrInvalidCredentials, Status: 400})
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
	assert.False(t, errors.Is(err, ErrNetwork))
	assert.Contains(t, err.Error(), "invalid credentials")
}

func TestDisplayMessage(t *testing.T) {
	assert.Empty(t, DisplayMessage(nil))
	assert.Equal(t, "boom", DisplayMessage(errors.New("boom")))
	assert.Equal(t, "User not found", DisplayMessage(&Error{Kind: ErrValidation, Message: "Wrong user."}))
	assert.Contains(t, DisplayMessage(&Error{Kind: ErrNetwork}), "could not be reached")
	assert.Contains(t, DisplayMessage(&Error{Kind: ErrConflict}), "already exists")
}

func TestMemoryTokenStore(t *testing.T) {
	store := NewMemoryTokenStore("")
	tok, err := store.Get()
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Set("abc"))
	tok, _ = store.Get()
	assert.Equal(t, "abc", tok)

	require.NoError(t, store.Set("def"))
	tok, _ = store.Get()
	assert.Equal(t, "def", tok)

	require.NoError(t, store.Clear())
	tok, _ = store.Get()
	assert.Empty(t, tok)
}
