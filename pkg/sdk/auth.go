package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// validatePayload is the data member of a successful validate response.
type validatePayload struct {
	User  json.RawMessage `json:"user"`
	Roles []string        `json:"roles"`
}

// loginPayload is the data member of a successful login response. The user
// record and roles are only present when the plugin is configured to return them.
type loginPayload struct {
	JWT   string          `json:"jwt"`
	User  json.RawMessage `json:"user"`
	Roles []string        `json:"roles"`
}

// Validate resolves token to the identity it was issued for.
// Fails with ErrUnauthorized for invalid or expired tokens and ErrNetwork for
// transport failures.
func (c *Client) Validate(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, &Error{Op: "validate", Kind: ErrUnauthorized, Message: "no token"}
	}

	env, err := c.call(ctx, c.bearerClient(ctx, token), "validate", http.MethodPost, "auth/validate",
		url.Values{"JWT": {token}}, nil, classifyToken)
	if err != nil {
		return Identity{}, err
	}

	var payload validatePayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return Identity{}, &Error{Op: "validate", Kind: ErrNetwork, Err: fmt.Errorf("failed to decode user payload: %w", err)}
	}
	user, err := parseUser(payload.User)
	if err != nil {
		return Identity{}, &Error{Op: "validate", Kind: ErrNetwork, Err: fmt.Errorf("failed to decode user record: %w", err)}
	}
	if user == nil {
		return Identity{}, &Error{Op: "validate", Kind: ErrUnauthorized, Message: "response carried no user"}
	}

	return NewIdentity(*user, payload.Roles), nil
}

// Revoke invalidates token on the server.
func (c *Client) Revoke(ctx context.Context, token string) error {
	_, err := c.call(ctx, c.bearerClient(ctx, token), "revoke", http.MethodPost, "auth/revoke",
		url.Values{"JWT": {token}}, nil, classifyToken)
	return err
}

// Login exchanges credentials for a new token. identifier is sent as an
// email when it contains "@" and as a username otherwise.
func (c *Client) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	body := map[string]string{"password": password}
	if ClassifyIdentifier(identifier) == IdentifierEmail {
		body["email"] = identifier
	} else {
		body["username"] = identifier
	}

	env, err := c.call(ctx, c.httpClient, "login", http.MethodPost, "auth", nil, body, classifyLogin)
	if err != nil {
		return nil, err
	}

	var payload loginPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return nil, &Error{Op: "login", Kind: ErrNetwork, Err: fmt.Errorf("failed to decode login payload: %w", err)}
	}
	if payload.JWT == "" {
		return nil, &Error{Op: "login", Kind: ErrNetwork, Err: fmt.Errorf("login response carried no token")}
	}
	user, err := parseUser(payload.User)
	if err != nil {
		return nil, &Error{Op: "login", Kind: ErrNetwork, Err: fmt.Errorf("failed to decode user record: %w", err)}
	}

	return &AuthResult{Token: payload.JWT, User: user, Roles: payload.Roles, Raw: payload.User}, nil
}

// Register creates an account and returns the token issued for it. The
// request carries the application's pre-shared AUTH_KEY.
func (c *Client) Register(ctx context.Context, reg Registration) (*AuthResult, error) {
	var params url.Values
	if c.authKey != "" {
		params = url.Values{"AUTH_KEY": {c.authKey}}
	}

	env, err := c.call(ctx, c.httpClient, "register", http.MethodPost, "users", params, reg, classifyRegister)
	if err != nil {
		return nil, err
	}

	if env.JWT == "" {
		return nil, &Error{Op: "register", Kind: ErrNetwork, Err: fmt.Errorf("registration response carried no token")}
	}
	user, err := parseUser(env.User)
	if err != nil {
		return nil, &Error{Op: "register", Kind: ErrNetwork, Err: fmt.Errorf("failed to decode user record: %w", err)}
	}

	return &AuthResult{Token: env.JWT, User: user, Roles: env.Roles, Raw: env.User}, nil
}

// RequestPasswordReset asks the service to email a reset code to email.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	_, err := c.call(ctx, c.httpClient, "reset_password_request", http.MethodPost, "user/reset_password",
		nil, map[string]string{"email": email}, classifyReset)
	return err
}

// ResetPassword sets a new password using the code from the reset email.
func (c *Client) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	_, err := c.call(ctx, c.httpClient, "reset_password", http.MethodPut, "user/reset_password",
		nil, map[string]string{"email": email, "code": code, "new_password": newPassword}, classifyReset)
	return err
}
