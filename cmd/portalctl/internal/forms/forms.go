// Package forms checks the shape of user input before it reaches the
// identity service. Rules are local format checks only; the service remains
// the authority on whether credentials or accounts are acceptable.
package forms

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/terraconstructs/portal/pkg/sdk"
)

// Login is the login form. Login is a username or an email address.
type Login struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (f Login) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Login, validation.Required.Error("Email or Username is required")),
		validation.Field(&f.Password, validation.Required.Error("Password must be at least 1 character long")),
	)
}

// Signup is the registration form.
type Signup struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (f Signup) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.FirstName, validation.Required.Error("First name is required")),
		validation.Field(&f.LastName, validation.Required.Error("Last name is required")),
		validation.Field(&f.Username, validation.Required.Error("Username is required")),
		validation.Field(&f.Email,
			validation.Required.Error("Email is required"),
			is.Email.Error("Invalid email"),
		),
		validation.Field(&f.Password, validation.Required.Error("Password is required")),
		validation.Field(&f.ConfirmPassword,
			validation.Required.Error("Password is required"),
			validation.By(stringEquals(f.Password, "Passwords do not match")),
		),
	)
}

// Registration converts the form into the service payload.
func (f Signup) Registration() sdk.Registration {
	return sdk.Registration{
		Email:     strings.TrimSpace(f.Email),
		Password:  f.Password,
		Username:  strings.TrimSpace(f.Username),
		FirstName: strings.TrimSpace(f.FirstName),
		LastName:  strings.TrimSpace(f.LastName),
	}
}

// ResetRequest asks for a password reset code to be mailed.
type ResetRequest struct {
	Email string `json:"email"`
}

func (f ResetRequest) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Email,
			validation.Required.Error("Email is required"),
			is.Email.Error("Invalid email"),
		),
	)
}

// SetPassword completes a reset with the code from the mailed link.
type SetPassword struct {
	Email           string `json:"email"`
	Code            string `json:"code"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (f SetPassword) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Email, validation.Required, is.Email),
		validation.Field(&f.Code, validation.Required),
		validation.Field(&f.Password, validation.Required.Error("Password is required")),
		validation.Field(&f.ConfirmPassword,
			validation.Required.Error("Confirm Password is required"),
			validation.By(stringEquals(f.Password, "Passwords do not match")),
		),
	)
}

func stringEquals(want, message string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s != want {
			return errors.New(message)
		}
		return nil
	}
}

// FieldErrors flattens a validation error into field name -> message. It
// returns nil for nil and for errors that are not field errors.
func FieldErrors(err error) map[string]string {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for field, ferr := range verrs {
		if ferr != nil {
			out[field] = ferr.Error()
		}
	}
	return out
}
