package web

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/terraconstructs/portal/cmd/portalctl/internal/forms"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/guard"
	"github.com/terraconstructs/portal/cmd/portalctl/internal/session"
	"github.com/terraconstructs/portal/pkg/sdk"
)

const inFlightMessage = "A request is already in progress"

func (h *handlers) identity() *sdk.Identity {
	if id, ok := h.session.Snapshot().Identity(); ok {
		return &id
	}
	return nil
}

func (h *handlers) home(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "home", pageData{Title: "Home", Identity: h.identity()})
}

func (h *handlers) loginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "login", pageData{Title: "Login"})
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	form := forms.Login{
		Login:    r.PostFormValue("login"),
		Password: r.PostFormValue("password"),
	}
	data := pageData{Title: "Login", Values: map[string]string{"login": form.Login}}

	if err := form.Validate(); err != nil {
		data.Fields = forms.FieldErrors(err)
		h.render(w, http.StatusUnprocessableEntity, "login", data)
		return
	}

	if _, err := h.session.ApplyLogin(r.Context(), form.Login, form.Password); err != nil {
		data.Error = actionMessage(err)
		h.render(w, failureStatus(err), "login", data)
		return
	}
	http.Redirect(w, r, guard.RouteDashboard, http.StatusSeeOther)
}

func (h *handlers) signupPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "signup", pageData{Title: "Sign Up"})
}

func (h *handlers) signup(w http.ResponseWriter, r *http.Request) {
	form := forms.Signup{
		FirstName:       r.PostFormValue("first_name"),
		LastName:        r.PostFormValue("last_name"),
		Username:        r.PostFormValue("username"),
		Email:           r.PostFormValue("email"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}
	data := pageData{Title: "Sign Up", Values: map[string]string{
		"first_name": form.FirstName,
		"last_name":  form.LastName,
		"username":   form.Username,
		"email":      form.Email,
	}}

	if err := form.Validate(); err != nil {
		data.Fields = forms.FieldErrors(err)
		h.render(w, http.StatusUnprocessableEntity, "signup", data)
		return
	}

	if _, err := h.session.ApplyRegistration(r.Context(), form.Registration()); err != nil {
		data.Error = actionMessage(err)
		h.render(w, failureStatus(err), "signup", data)
		return
	}
	http.Redirect(w, r, guard.RouteDashboard, http.StatusSeeOther)
}

func (h *handlers) resetPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if guard.ResetMode(q) == guard.ResetModeSetPassword {
		h.render(w, http.StatusOK, "reset_set", pageData{
			Title: "Change Password",
			Email: q.Get("email"),
			Code:  q.Get("code"),
		})
		return
	}
	h.render(w, http.StatusOK, "reset_request", pageData{Title: "Reset Password"})
}

func (h *handlers) reset(w http.ResponseWriter, r *http.Request) {
	if guard.ResetMode(r.URL.Query()) == guard.ResetModeSetPassword {
		h.setPassword(w, r, r.URL.Query())
		return
	}

	form := forms.ResetRequest{Email: r.PostFormValue("email")}
	data := pageData{Title: "Reset Password", Values: map[string]string{"email": form.Email}}

	if err := form.Validate(); err != nil {
		data.Fields = forms.FieldErrors(err)
		h.render(w, http.StatusUnprocessableEntity, "reset_request", data)
		return
	}
	if err := h.resets.RequestPasswordReset(r.Context(), form.Email); err != nil {
		data.Error = sdk.DisplayMessage(err)
		h.render(w, failureStatus(err), "reset_request", data)
		return
	}

	data.ResetRequestSent = true
	data.Notice = "Check your email for password reset link"
	h.render(w, http.StatusOK, "reset_request", data)
}

func (h *handlers) setPassword(w http.ResponseWriter, r *http.Request, q url.Values) {
	form := forms.SetPassword{
		Email:           q.Get("email"),
		Code:            q.Get("code"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}
	data := pageData{Title: "Change Password", Email: form.Email, Code: form.Code}

	if err := form.Validate(); err != nil {
		data.Fields = forms.FieldErrors(err)
		h.render(w, http.StatusUnprocessableEntity, "reset_set", data)
		return
	}
	if err := h.resets.ResetPassword(r.Context(), form.Email, form.Code, form.Password); err != nil {
		data.Error = sdk.DisplayMessage(err)
		h.render(w, failureStatus(err), "reset_set", data)
		return
	}

	seconds := int(h.redirectDelay.Seconds())
	data.PasswordChanged = true
	data.RedirectSeconds = seconds
	w.Header().Set("Refresh", strconv.Itoa(seconds)+"; url="+guard.RouteLogin)
	h.render(w, http.StatusOK, "reset_set", data)
}

func (h *handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	data := pageData{Title: "Dashboard", Identity: h.identity(), Section: "overview"}
	if r.URL.Path == guard.RouteDashboardTest {
		data.Section = "test"
	}
	if r.URL.Query().Get("logout") == "failed" {
		data.Warning = "Logout failed. You are still signed in."
	}
	h.render(w, http.StatusOK, "dashboard", data)
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Logout(r.Context()); err != nil {
		h.logger.Warn("logout rejected", h.logger.Args("error", err))
	}
	if h.session.Snapshot().Authenticated() {
		http.Redirect(w, r, guard.RouteDashboard+"?logout=failed", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, guard.RouteHome, http.StatusSeeOther)
}

func actionMessage(err error) string {
	if errors.Is(err, session.ErrActionInFlight) {
		return inFlightMessage
	}
	return sdk.DisplayMessage(err)
}

func failureStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrActionInFlight), errors.Is(err, sdk.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, sdk.ErrInvalidCredentials), errors.Is(err, sdk.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, sdk.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, sdk.ErrNetwork):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
