// Package apiclient is the console's gateway to the Computer Shop REST API.
// It covers the two unauthenticated auth operations and the four user
// resource operations, attaching the session's bearer token where needed.
//
// Every call is a single attempt: there is no automatic retry, callers decide
// whether to try again.
package apiclient

import (
	"context"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/patric-chuzhbe/shopconsole/internal/logger"
	"github.com/patric-chuzhbe/shopconsole/internal/models"
	"github.com/patric-chuzhbe/shopconsole/internal/session"
)

const (
	OperationLogin      = "login"
	OperationRegister   = "register"
	OperationListUsers  = "list_users"
	OperationCreateUser = "create_user"
	OperationUpdateUser = "update_user"
	OperationDeleteUser = "delete_user"
)

type callObserver interface {
	ObserveUpstreamCall(operation string, statusCode int, duration time.Duration)
}

// Client talks to the API at a fixed base URL. A Client returned by
// WithSession shares the underlying HTTP client with its parent.
type Client struct {
	rc       *resty.Client
	tokens   session.Reader
	observer callObserver
}

// Option configures a Client.
type Option func(*Client)

// WithObserver reports every call's outcome and latency to observer.
func WithObserver(observer callObserver) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

// New returns a client for the API at baseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		rc: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetRetryCount(0).
			SetLogger(logger.Log),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.rc.SetHeader("Accept", "application/json")

	return c
}

// WithSession returns a client that authenticates resource calls with the
// token currently held by tokens.
func (c *Client) WithSession(tokens session.Reader) *Client {
	bound := *c
	bound.tokens = tokens

	return &bound
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	result := &models.LoginResponse{}
	err := c.do(ctx, OperationLogin, false, func(req *resty.Request) (*resty.Response, error) {
		return req.
			SetBody(models.LoginRequest{Username: username, Password: password}).
			SetResult(result).
			Post("/auth/login")
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Register creates an account through the public registration endpoint.
func (c *Client) Register(ctx context.Context, fullname, username, password string) (*models.MessageResponse, error) {
	result := &models.MessageResponse{}
	err := c.do(ctx, OperationRegister, false, func(req *resty.Request) (*resty.Response, error) {
		return req.
			SetBody(models.RegisterRequest{Fullname: fullname, Username: username, Password: password}).
			SetResult(result).
			Post("/auth/register")
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ListUsers fetches every user account.
func (c *Client) ListUsers(ctx context.Context) (models.Users, error) {
	var result models.Users
	err := c.do(ctx, OperationListUsers, true, func(req *resty.Request) (*resty.Response, error) {
		return req.
			SetResult(&result).
			Get("/user")
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = models.Users{}
	}

	return result, nil
}

// CreateUser creates an account; the server assigns its user_id.
func (c *Client) CreateUser(ctx context.Context, fullname, username, password string) (*models.CreateUserResponse, error) {
	result := &models.CreateUserResponse{}
	err := c.do(ctx, OperationCreateUser, true, func(req *resty.Request) (*resty.Response, error) {
		return req.
			SetBody(models.CreateUserRequest{Fullname: fullname, Username: username, Password: password}).
			SetResult(result).
			Post("/user")
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// UpdateUser changes fullname and username of user id. A blank password is
// left out of the request so the stored one is kept.
func (c *Client) UpdateUser(
	ctx context.Context,
	id int64,
	fullname,
	username,
	password string,
) (*models.UpdateUserResponse, error) {
	result := &models.UpdateUserResponse{}
	err := c.do(ctx, OperationUpdateUser, true, func(req *resty.Request) (*resty.Response, error) {
		return req.
			SetPathParam("id", strconv.FormatInt(id, 10)).
			SetBody(models.UpdateUserRequest{Fullname: fullname, Username: username, Password: password}).
			SetResult(result).
			Put("/user/{id}")
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// DeleteUser removes user id.
func (c *Client) DeleteUser(ctx context.Context, id int64) (*models.MessageResponse, error) {
	result := &models.MessageResponse{}
	err := c.do(ctx, OperationDeleteUser, true, func(req *resty.Request) (*resty.Response, error) {
		return req.
			SetPathParam("id", strconv.FormatInt(id, 10)).
			SetResult(result).
			Delete("/user/{id}")
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (c *Client) do(
	ctx context.Context,
	operation string,
	authenticated bool,
	send func(req *resty.Request) (*resty.Response, error),
) error {
	errorBody := &models.ErrorResponse{}
	req := c.rc.R().
		SetContext(ctx).
		ExpectContentType("application/json").
		SetError(errorBody)

	if authenticated && c.tokens != nil {
		if token, ok := c.tokens.Read(); ok {
			req.SetHeader("Authorization", token)
		}
	}

	start := time.Now()
	resp, err := send(req)
	statusCode := 0
	if resp != nil && resp.RawResponse != nil {
		statusCode = resp.StatusCode()
	}
	if c.observer != nil {
		c.observer.ObserveUpstreamCall(operation, statusCode, time.Since(start))
	}

	if err != nil {
		logger.Log.Debugln("Error calling the API operation", operation, "status", statusCode, "error", err)
		return &RequestError{StatusCode: statusCode, Message: err.Error(), Err: err}
	}

	if resp.IsError() {
		return &RequestError{StatusCode: statusCode, Message: errorBody.Message}
	}

	return nil
}
