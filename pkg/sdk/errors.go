package sdk

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Failure kinds reported by the identity service client. Match them with errors.Is.
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
	ErrNetwork            = errors.New("network error")
)

// Error is the typed failure returned by every Client operation.
type Error struct {
	Op      string // validate, revoke, login, register, reset_password_request, reset_password
	Kind    error  // one of the Err* kinds above
	Status  int    // HTTP status, 0 for transport failures
	Code    int    // errorCode from the failure payload, if any
	Message string // message from the failure payload, if any
	Err     error  // underlying cause for transport and decoding failures
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %v", e.Op, e.Kind)
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the kind of this error.
func (e *Error) Is(target error) bool { return target == e.Kind }

// messages the service sends that read badly to end users
var messageRewrites = map[string]string{
	"Wrong user.": "User not found",
}

// DisplayMessage extracts a message suitable for showing to the user who
// triggered the failing action.
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}

	var sdkErr *Error
	if !errors.As(err, &sdkErr) {
		return err.Error()
	}

	if sdkErr.Message != "" {
		if rewritten, ok := messageRewrites[sdkErr.Message]; ok {
			return rewritten
		}
		return sdkErr.Message
	}

	switch {
	case errors.Is(err, ErrNetwork):
		return "The identity service could not be reached. Please try again."
	case errors.Is(err, ErrInvalidCredentials):
		return "Wrong username, email or password."
	case errors.Is(err, ErrUnauthorized):
		return "Your session is no longer valid. Please log in again."
	case errors.Is(err, ErrConflict):
		return "An account with these details already exists."
	default:
		return "The request was rejected."
	}
}

// transient reports statuses that say nothing about the request itself.
// They are treated like an unreachable service so a throttled validate never
// counts as a rejected token.
func transient(status int) bool {
	return status == http.StatusRequestTimeout || status == http.StatusTooManyRequests
}

func classifyToken(status int, _ string) error {
	if transient(status) {
		return ErrNetwork
	}
	return ErrUnauthorized
}

func classifyLogin(status int, _ string) error {
	if transient(status) {
		return ErrNetwork
	}
	return ErrInvalidCredentials
}

func classifyRegister(status int, msg string) error {
	if transient(status) {
		return ErrNetwork
	}
	lower := strings.ToLower(msg)
	if status == http.StatusConflict || strings.Contains(lower, "already exists") || strings.Contains(lower, "already in use") {
		return ErrConflict
	}
	return ErrValidation
}

func classifyReset(status int, _ string) error {
	if transient(status) {
		return ErrNetwork
	}
	return ErrValidation
}
