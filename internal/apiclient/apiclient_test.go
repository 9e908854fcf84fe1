package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/shopconsole/internal/fakeapi"
	"github.com/patric-chuzhbe/shopconsole/internal/session"
)

type recordedCall struct {
	operation  string
	statusCode int
}

type observerStub struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (o *observerStub) ObserveUpstreamCall(operation string, statusCode int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, recordedCall{operation: operation, statusCode: statusCode})
}

func setupFakeAPI(t *testing.T) (*fakeapi.Server, *httptest.Server) {
	t.Helper()

	api := fakeapi.New()
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return api, srv
}

func TestLogin(t *testing.T) {
	api, srv := setupFakeAPI(t)
	api.Seed("Admin", "admin", "secret1")

	client := New(srv.URL, 5*time.Second)

	t.Run("positive", func(t *testing.T) {
		resp, err := client.Login(context.Background(), "admin", "secret1")
		require.NoError(t, err)

		claims, err := session.Decode(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, "admin", claims.Username)
	})

	t.Run("bad credentials", func(t *testing.T) {
		resp, err := client.Login(context.Background(), "admin", "wrong")
		assert.Nil(t, resp)

		var requestErr *RequestError
		require.ErrorAs(t, err, &requestErr)
		assert.Equal(t, http.StatusBadRequest, requestErr.StatusCode)
		assert.Equal(t, "Invalid credentials", requestErr.Message)
		assert.True(t, requestErr.HasStatus())
	})
}

func TestLoginNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	_, err := New(baseURL, time.Second).Login(context.Background(), "admin", "secret1")

	var requestErr *RequestError
	require.ErrorAs(t, err, &requestErr)
	assert.False(t, requestErr.HasStatus())
	assert.Equal(t, 0, requestErr.StatusCode)
	assert.NotEmpty(t, requestErr.Message)
}

func TestRegister(t *testing.T) {
	api, srv := setupFakeAPI(t)
	client := New(srv.URL, 5*time.Second)

	resp, err := client.Register(context.Background(), "Jane Doe", "jane", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "User registered successfully", resp.Message)
	assert.True(t, api.PasswordMatches("jane", "secret1"))

	_, err = client.Register(context.Background(), "Jane Again", "jane", "secret2")
	var requestErr *RequestError
	require.ErrorAs(t, err, &requestErr)
	assert.Equal(t, "Username already exists", requestErr.Message)
}

func TestHeaders(t *testing.T) {
	type tTestCase struct {
		name          string
		stored        string
		call          func(c *Client) error
		wantAuthValue string
	}

	var (
		mu      sync.Mutex
		headers http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		headers = r.Header.Clone()
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/user":
			_, _ = io.WriteString(w, `[]`)
		default:
			_, _ = io.WriteString(w, `{"token":"t","message":"ok"}`)
		}
	}))
	defer srv.Close()

	testCases := []tTestCase{
		{
			name:   "authenticated call carries the raw token",
			stored: "aaa.bbb.ccc",
			call: func(c *Client) error {
				_, err := c.ListUsers(context.Background())
				return err
			},
			wantAuthValue: "aaa.bbb.ccc",
		},
		{
			name:   "wrapped stored token is unwrapped",
			stored: `{"data":{"token":"ddd.eee.fff"}}`,
			call: func(c *Client) error {
				_, err := c.ListUsers(context.Background())
				return err
			},
			wantAuthValue: "ddd.eee.fff",
		},
		{
			name:   "no token, no header",
			stored: "",
			call: func(c *Client) error {
				_, err := c.ListUsers(context.Background())
				return err
			},
			wantAuthValue: "",
		},
		{
			name:   "login is never authenticated",
			stored: "aaa.bbb.ccc",
			call: func(c *Client) error {
				_, err := c.Login(context.Background(), "u", "p")
				return err
			},
			wantAuthValue: "",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			client := New(srv.URL, time.Second).WithSession(session.NewMemoryStore(testCase.stored))
			require.NoError(t, testCase.call(client))

			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, "application/json", headers.Get("Accept"))
			assert.Equal(t, testCase.wantAuthValue, headers.Get("Authorization"))
		})
	}
}

func TestUserResource(t *testing.T) {
	api, srv := setupFakeAPI(t)
	api.Seed("Admin", "admin", "secret1")
	observer := &observerStub{}

	store := session.NewMemoryStore(api.IssueToken("admin", time.Hour))
	client := New(srv.URL, 5*time.Second, WithObserver(observer)).WithSession(store)
	ctx := context.Background()

	created, err := client.CreateUser(ctx, "A", "b", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "User created successfully", created.Message)
	assert.Equal(t, int64(2), created.NewUser.ID)
	assert.Equal(t, "b", created.NewUser.Username)

	users, err := client.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	updated, err := client.UpdateUser(ctx, created.NewUser.ID, "A B", "bb", "")
	require.NoError(t, err)
	assert.Equal(t, "A B", updated.UpdatedUser.Fullname)
	assert.Equal(t, "bb", updated.UpdatedUser.Username)
	assert.True(t, api.PasswordMatches("bb", "secret1"), "blank password must keep the stored one")

	_, err = client.UpdateUser(ctx, created.NewUser.ID, "A B", "bb", "newsecret")
	require.NoError(t, err)
	assert.True(t, api.PasswordMatches("bb", "newsecret"))

	deleted, err := client.DeleteUser(ctx, created.NewUser.ID)
	require.NoError(t, err)
	assert.Equal(t, "User deleted successfully", deleted.Message)

	_, err = client.DeleteUser(ctx, created.NewUser.ID)
	var requestErr *RequestError
	require.ErrorAs(t, err, &requestErr)
	assert.Equal(t, http.StatusNotFound, requestErr.StatusCode)

	observer.mu.Lock()
	defer observer.mu.Unlock()
	require.Len(t, observer.calls, 6)
	assert.Equal(t, recordedCall{operation: OperationCreateUser, statusCode: http.StatusCreated}, observer.calls[0])
	assert.Equal(t, recordedCall{operation: OperationDeleteUser, statusCode: http.StatusNotFound}, observer.calls[5])
}

func TestUpdateUserOmitsBlankPassword(t *testing.T) {
	bodies := make(chan map[string]interface{}, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		bodies <- body
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"updatedUser":{"user_id":7,"username":"u","fullname":"f"}}`)
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second)

	_, err := client.UpdateUser(context.Background(), 7, "f", "u", "")
	require.NoError(t, err)
	assert.NotContains(t, <-bodies, "password")

	_, err = client.UpdateUser(context.Background(), 7, "f", "u", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "secret1", (<-bodies)["password"])
}

func TestUnauthenticatedResourceCall(t *testing.T) {
	_, srv := setupFakeAPI(t)

	_, err := New(srv.URL, time.Second).ListUsers(context.Background())

	var requestErr *RequestError
	require.ErrorAs(t, err, &requestErr)
	assert.Equal(t, http.StatusUnauthorized, requestErr.StatusCode)
	assert.Equal(t, "No token provided", requestErr.Message)
}

func TestCanceledCall(t *testing.T) {
	_, srv := setupFakeAPI(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(srv.URL, time.Second).Login(ctx, "admin", "secret1")

	var requestErr *RequestError
	require.ErrorAs(t, err, &requestErr)
	assert.False(t, requestErr.HasStatus())
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestFailureWithoutMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).Login(context.Background(), "admin", "secret1")

	var requestErr *RequestError
	require.ErrorAs(t, err, &requestErr)
	assert.Equal(t, http.StatusBadGateway, requestErr.StatusCode)
	assert.Empty(t, requestErr.Message, "callers pick their own fallback when the API sends no message")
	assert.Contains(t, requestErr.Error(), http.StatusText(http.StatusBadGateway))
}
