package authview

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/shopconsole/internal/apiclient"
	"github.com/patric-chuzhbe/shopconsole/internal/forms"
	"github.com/patric-chuzhbe/shopconsole/internal/mockapi"
	"github.com/patric-chuzhbe/shopconsole/internal/models"
	"github.com/patric-chuzhbe/shopconsole/internal/routes"
	"github.com/patric-chuzhbe/shopconsole/internal/session"
)

func setupViews() (*Views, *mockapi.APIMock, *session.MemoryStore, *routes.Recorder) {
	api := &mockapi.APIMock{}
	store := session.NewMemoryStore("")
	nav := &routes.Recorder{}

	return New(api, store, nav, DefaultRegisterRedirectDelay), api, store, nav
}

func TestSubmitLoginSuccess(t *testing.T) {
	views, api, store, nav := setupViews()
	api.On("Login", mock.Anything, "admin", "secret1").
		Return(&models.LoginResponse{Token: "aaa.bbb.ccc"}, nil).
		Once()

	form := views.SubmitLogin(context.Background(), forms.LoginDraft{Username: "admin", Password: "secret1"})

	assert.Empty(t, form.Error)
	assert.Equal(t, "aaa.bbb.ccc", store.Stored())
	assert.Equal(t, routes.Dashboard, nav.Target)
	assert.Zero(t, nav.Delay)
	api.AssertExpectations(t)
}

func TestSubmitLoginFailures(t *testing.T) {
	type tTestCase struct {
		name    string
		err     error
		message string
	}
	testCases := []tTestCase{
		{
			name:    "bad request",
			err:     &apiclient.RequestError{StatusCode: http.StatusBadRequest, Message: "Invalid credentials"},
			message: "Invalid username or password.",
		},
		{
			name:    "server error",
			err:     &apiclient.RequestError{StatusCode: http.StatusInternalServerError},
			message: MessageServerError,
		},
		{
			name:    "other status",
			err:     &apiclient.RequestError{StatusCode: http.StatusTeapot},
			message: MessageGenericError,
		},
		{
			name:    "no response",
			err:     &apiclient.RequestError{Message: "dial tcp: connection refused"},
			message: MessageNetworkError,
		},
		{
			name:    "unexpected error type",
			err:     errors.New("boom"),
			message: MessageGenericError,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			views, api, store, nav := setupViews()
			api.On("Login", mock.Anything, "admin", "wrong").Return(nil, testCase.err).Once()

			form := views.SubmitLogin(context.Background(), forms.LoginDraft{Username: "admin", Password: "wrong"})

			assert.Equal(t, testCase.message, form.Error)
			assert.Equal(t, "admin", form.Username)
			assert.False(t, nav.Navigated())
			_, hasToken := store.Read()
			assert.False(t, hasToken)
			api.AssertNumberOfCalls(t, "Login", 1)
		})
	}
}

func TestSubmitLoginValidation(t *testing.T) {
	views, api, _, nav := setupViews()

	form := views.SubmitLogin(context.Background(), forms.LoginDraft{Username: "admin"})

	assert.Equal(t, forms.MessageLoginRequired, form.Error)
	assert.False(t, nav.Navigated())
	api.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitRegisterValidationBlocksNetwork(t *testing.T) {
	type tTestCase struct {
		name    string
		draft   forms.RegisterDraft
		message string
	}
	testCases := []tTestCase{
		{
			name:    "short password",
			draft:   forms.RegisterDraft{Fullname: "Jane", Username: "jane", Password: "abc", ConfirmPassword: "abc"},
			message: "Password must be at least 6 characters long.",
		},
		{
			name:    "mismatch",
			draft:   forms.RegisterDraft{Fullname: "Jane", Username: "jane", Password: "secret1", ConfirmPassword: "secret2"},
			message: "Passwords do not match.",
		},
		{
			name:    "missing field",
			draft:   forms.RegisterDraft{Username: "jane", Password: "secret1", ConfirmPassword: "secret1"},
			message: "All fields are required.",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			views, api, _, nav := setupViews()

			form := views.SubmitRegister(context.Background(), testCase.draft)

			assert.Equal(t, testCase.message, form.Error)
			assert.Empty(t, form.Success)
			assert.False(t, nav.Navigated())
			api.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSubmitRegisterSuccess(t *testing.T) {
	views, api, _, nav := setupViews()
	api.On("Register", mock.Anything, "Jane Doe", "jane", "secret1").
		Return(&models.MessageResponse{Message: "User registered successfully"}, nil).
		Once()

	form := views.SubmitRegister(context.Background(), forms.RegisterDraft{
		Fullname:        "Jane Doe",
		Username:        "jane",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})

	assert.Empty(t, form.Error)
	assert.Equal(t, MessageRegisterSuccess, form.Success)
	assert.Equal(t, routes.Login, nav.Target)
	assert.Equal(t, 2*time.Second, nav.Delay)
	api.AssertExpectations(t)
}

func TestSubmitRegisterFailure(t *testing.T) {
	draft := forms.RegisterDraft{Fullname: "Jane Doe", Username: "jane", Password: "secret1", ConfirmPassword: "secret1"}

	views, api, _, nav := setupViews()
	api.On("Register", mock.Anything, "Jane Doe", "jane", "secret1").
		Return(nil, &apiclient.RequestError{StatusCode: http.StatusBadRequest, Message: "Username already exists"}).
		Once()

	form := views.SubmitRegister(context.Background(), draft)
	assert.Equal(t, "Username already exists", form.Error)
	assert.False(t, nav.Navigated())

	views, api, _, _ = setupViews()
	api.On("Register", mock.Anything, "Jane Doe", "jane", "secret1").
		Return(nil, &apiclient.RequestError{Message: "connection refused"}).
		Once()

	form = views.SubmitRegister(context.Background(), draft)
	assert.Equal(t, MessageRegisterFailed, form.Error)
}
