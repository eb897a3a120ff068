package sdk

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the claims the client reads from a token for display.
// They are decoded without verifying the signature: the identity service is
// the only authority on whether a token is valid.
type TokenClaims struct {
	UserID    string
	Email     string
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry that has passed.
func (c TokenClaims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// InspectToken decodes the claims of token without verifying it.
func InspectToken(token string) (TokenClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenClaims{}, fmt.Errorf("failed to decode token: %w", err)
	}

	out := TokenClaims{
		UserID: formatID(claims["id"]),
	}
	if out.UserID == "" {
		out.UserID = formatID(claims["sub"])
	}
	out.Email, _ = claims["email"].(string)
	out.Username, _ = claims["username"].(string)

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}

	return out, nil
}

// Fingerprint returns a short, non-reversible tag for token, safe to log.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:4])
}
