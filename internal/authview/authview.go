// Package authview implements the Login and Register views: client-side
// validation, the call to the API, and the session and navigation changes
// that follow.
package authview

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/patric-chuzhbe/shopconsole/internal/apiclient"
	"github.com/patric-chuzhbe/shopconsole/internal/forms"
	"github.com/patric-chuzhbe/shopconsole/internal/logger"
	"github.com/patric-chuzhbe/shopconsole/internal/models"
	"github.com/patric-chuzhbe/shopconsole/internal/routes"
	"github.com/patric-chuzhbe/shopconsole/internal/session"
)

const (
	MessageInvalidCredentials = "Invalid username or password."
	MessageServerError        = "Server error. Please try again later."
	MessageGenericError       = "An error occurred. Please try again."
	MessageNetworkError       = "Network error. Please check your connection."
	MessageRegisterSuccess    = "Registration successful! Redirecting to login..."
	MessageRegisterFailed     = "Failed to register. Please try again later."
)

// DefaultRegisterRedirectDelay is how long the registration success message
// stays up before moving on to Login.
const DefaultRegisterRedirectDelay = 2 * time.Second

type authAPI interface {
	Login(ctx context.Context, username, password string) (*models.LoginResponse, error)
	Register(ctx context.Context, fullname, username, password string) (*models.MessageResponse, error)
}

// LoginForm is what the login view renders. The password is never echoed.
type LoginForm struct {
	Username string
	Error    string
}

// RegisterForm is what the registration view renders.
type RegisterForm struct {
	Fullname string
	Username string
	Error    string
	Success  string
}

// Views serves both auth views for one navigation.
type Views struct {
	api           authAPI
	store         session.Store
	nav           routes.Navigator
	redirectDelay time.Duration
}

// New binds the auth views to an API, the session store and a navigator.
func New(api authAPI, store session.Store, nav routes.Navigator, redirectDelay time.Duration) *Views {
	return &Views{
		api:           api,
		store:         store,
		nav:           nav,
		redirectDelay: redirectDelay,
	}
}

// SubmitLogin validates the credentials, logs in and stores the token. On
// failure exactly one message is returned and nothing is retried.
func (v *Views) SubmitLogin(ctx context.Context, draft forms.LoginDraft) LoginForm {
	form := LoginForm{Username: draft.Username}

	if err := forms.ValidateLogin(draft); err != nil {
		form.Error = err.Error()
		return form
	}

	resp, err := v.api.Login(ctx, draft.Username, draft.Password)
	if err != nil {
		form.Error = loginFailureMessage(err)
		return form
	}

	if err := v.store.Save(resp.Token); err != nil {
		logger.Log.Errorln("Error calling the `store.Save()`: ", zap.Error(err))
		form.Error = MessageGenericError
		return form
	}

	v.nav.Navigate(routes.Landing)

	return form
}

// SubmitRegister validates the registration form entirely before any call
// is made. On success Login follows after the configured delay.
func (v *Views) SubmitRegister(ctx context.Context, draft forms.RegisterDraft) RegisterForm {
	form := RegisterForm{Fullname: draft.Fullname, Username: draft.Username}

	if err := forms.ValidateRegister(draft); err != nil {
		form.Error = err.Error()
		return form
	}

	if _, err := v.api.Register(ctx, draft.Fullname, draft.Username, draft.Password); err != nil {
		form.Error = registerFailureMessage(err)
		return form
	}

	form.Success = MessageRegisterSuccess
	v.nav.NavigateAfter(routes.Login, v.redirectDelay)

	return form
}

func loginFailureMessage(err error) string {
	var requestErr *apiclient.RequestError
	if !errors.As(err, &requestErr) {
		return MessageGenericError
	}

	switch {
	case !requestErr.HasStatus():
		return MessageNetworkError
	case requestErr.StatusCode == http.StatusBadRequest:
		return MessageInvalidCredentials
	case requestErr.StatusCode == http.StatusInternalServerError:
		return MessageServerError
	default:
		return MessageGenericError
	}
}

func registerFailureMessage(err error) string {
	var requestErr *apiclient.RequestError
	if errors.As(err, &requestErr) && requestErr.HasStatus() && requestErr.Message != "" {
		return requestErr.Message
	}

	return MessageRegisterFailed
}
