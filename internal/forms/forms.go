// Package forms validates the drafts typed into the console's forms before
// anything is sent to the API. A failed check never reaches the network.
package forms

import (
	"errors"

	validator "github.com/go-playground/validator/v10"
)

// MinPasswordLength is the shortest password registration accepts.
const MinPasswordLength = 6

// ValidationError is a client-side field check failure with the message the
// form shows to the user.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// LoginDraft is the content of the login form.
type LoginDraft struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

// RegisterDraft is the content of the registration form.
type RegisterDraft struct {
	Fullname        string `validate:"required"`
	Username        string `validate:"required"`
	Password        string `validate:"required,min=6"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

// UserDraft is the shared shape of the create and update user modals.
type UserDraft struct {
	Fullname string
	Username string
	Password string
}

type createUserRules struct {
	Fullname string `validate:"required"`
	Username string `validate:"required"`
	Password string `validate:"required"`
}

type updateUserRules struct {
	Fullname string `validate:"required"`
	Username string `validate:"required"`
}

const (
	MessageLoginRequired    = "Username and password are required"
	MessageAllFieldsMissing = "All fields are required."
	MessagePasswordTooShort = "Password must be at least 6 characters long."
	MessagePasswordMismatch = "Passwords do not match."
	MessageUpdateRequired   = "Full name and username are required."
)

var validate = validator.New()

// ValidateLogin requires both fields.
func ValidateLogin(draft LoginDraft) error {
	if tagFailed(validate.Struct(draft), "required") {
		return &ValidationError{Message: MessageLoginRequired}
	}

	return nil
}

// ValidateRegister checks, in order: every field present, password length,
// password confirmation.
func ValidateRegister(draft RegisterDraft) error {
	err := validate.Struct(draft)
	switch {
	case tagFailed(err, "required"):
		return &ValidationError{Message: MessageAllFieldsMissing}
	case tagFailed(err, "min"):
		return &ValidationError{Message: MessagePasswordTooShort}
	case tagFailed(err, "eqfield"):
		return &ValidationError{Message: MessagePasswordMismatch}
	}

	return nil
}

// ValidateCreateUser requires all three fields.
func ValidateCreateUser(draft UserDraft) error {
	rules := createUserRules{
		Fullname: draft.Fullname,
		Username: draft.Username,
		Password: draft.Password,
	}
	if tagFailed(validate.Struct(rules), "required") {
		return &ValidationError{Message: MessageAllFieldsMissing}
	}

	return nil
}

// ValidateUpdateUser requires fullname and username. A blank password means
// "keep the current one".
func ValidateUpdateUser(draft UserDraft) error {
	rules := updateUserRules{
		Fullname: draft.Fullname,
		Username: draft.Username,
	}
	if tagFailed(validate.Struct(rules), "required") {
		return &ValidationError{Message: MessageUpdateRequired}
	}

	return nil
}

func tagFailed(err error, tag string) bool {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return false
	}

	for _, fieldErr := range validationErrors {
		if fieldErr.Tag() == tag {
			return true
		}
	}

	return false
}
