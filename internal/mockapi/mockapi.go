// Package mockapi provides a testify-based mock of the API gateway, used to
// unit-test the views without a server.
package mockapi

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/shopconsole/internal/models"
)

// APIMock implements every API operation the views depend on.
//
// Return values are taken from the expectations set with On(...). Nil
// pointers and slices may be given as untyped nil.
type APIMock struct {
	mock.Mock
}

// Login mocks the credential exchange.
func (m *APIMock) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	args := m.Called(ctx, username, password)
	resp, _ := args.Get(0).(*models.LoginResponse)
	return resp, args.Error(1)
}

// Register mocks the public registration call.
func (m *APIMock) Register(ctx context.Context, fullname, username, password string) (*models.MessageResponse, error) {
	args := m.Called(ctx, fullname, username, password)
	resp, _ := args.Get(0).(*models.MessageResponse)
	return resp, args.Error(1)
}

// ListUsers mocks fetching the user table.
func (m *APIMock) ListUsers(ctx context.Context) (models.Users, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).(models.Users)
	return users, args.Error(1)
}

// CreateUser mocks user creation.
func (m *APIMock) CreateUser(ctx context.Context, fullname, username, password string) (*models.CreateUserResponse, error) {
	args := m.Called(ctx, fullname, username, password)
	resp, _ := args.Get(0).(*models.CreateUserResponse)
	return resp, args.Error(1)
}

// UpdateUser mocks a user update.
func (m *APIMock) UpdateUser(
	ctx context.Context,
	id int64,
	fullname,
	username,
	password string,
) (*models.UpdateUserResponse, error) {
	args := m.Called(ctx, id, fullname, username, password)
	resp, _ := args.Get(0).(*models.UpdateUserResponse)
	return resp, args.Error(1)
}

// DeleteUser mocks user deletion.
func (m *APIMock) DeleteUser(ctx context.Context, id int64) (*models.MessageResponse, error) {
	args := m.Called(ctx, id)
	resp, _ := args.Get(0).(*models.MessageResponse)
	return resp, args.Error(1)
}
