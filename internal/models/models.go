// Package models holds the wire-level shapes exchanged with the Computer Shop
// REST API and the user record the console keeps in its table.
package models

// User is a user account as returned by the API. The password is write-only
// and never part of this shape.
type User struct {
	ID       int64  `json:"user_id"`
	Username string `json:"username"`
	Fullname string `json:"fullname"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type RegisterRequest struct {
	Fullname string `json:"fullname" validate:"required"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type CreateUserRequest struct {
	Fullname string `json:"fullname" validate:"required"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserRequest leaves Password out of the body when it is blank, which
// the API reads as "keep the current password".
type UpdateUserRequest struct {
	Fullname string `json:"fullname" validate:"required"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type CreateUserResponse struct {
	Message string `json:"message"`
	NewUser User   `json:"newUser"`
}

type UpdateUserResponse struct {
	Message     string `json:"message"`
	UpdatedUser User   `json:"updatedUser"`
}

// ErrorResponse is the body the API sends along with a non-2xx status.
type ErrorResponse struct {
	Message string `json:"message"`
}

// Users is the ordered list the dashboard table renders.
type Users []User
