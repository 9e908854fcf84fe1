package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ErrNoToken means there is no token to decode at all.
var ErrNoToken = errors.New("no session token")

// Claims is the subset of the token payload the console relies on.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// DecodeError reports a token that is missing or cannot be parsed. Callers
// treat it as "session invalid".
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode session token: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode extracts the claims of token without checking its signature.
func Decode(token string) (*Claims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, &DecodeError{Err: ErrNoToken}
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, &DecodeError{Err: err}
	}

	return claims, nil
}

// IsExpired reports whether exp*1000 <= now in milliseconds. A token that
// carries no exp claim is considered expired.
func IsExpired(claims *Claims, now time.Time) bool {
	if claims == nil || claims.ExpiresAt == nil {
		return true
	}

	return claims.ExpiresAt.Time.UnixMilli() <= now.UnixMilli()
}

// Current reads the token from store and decodes it, failing with
// *DecodeError when it is absent, malformed or expired.
func Current(store Reader, now time.Time) (*Claims, error) {
	token, ok := store.Read()
	if !ok {
		return nil, &DecodeError{Err: ErrNoToken}
	}

	claims, err := Decode(token)
	if err != nil {
		return nil, err
	}

	if IsExpired(claims, now) {
		return nil, &DecodeError{Err: jwt.ErrTokenExpired}
	}

	return claims, nil
}
