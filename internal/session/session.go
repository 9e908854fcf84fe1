// Package session owns the console's persisted credential: a single bearer
// token stored under one well-known key. It reads, writes and clears that
// token and decodes the claims embedded in it.
//
// Signatures are never verified here. The API checks them on every request;
// the console only needs the subject and the expiry to decide where to route.
package session

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

// StorageKey is the well-known name the token is persisted under.
const StorageKey = "token"

// ErrEmptyToken is returned by Save when asked to persist an empty token.
// Absence of a token is expressed with Clear.
var ErrEmptyToken = errors.New("refusing to save an empty token")

// Store is the persisted session state. Read never fails: anything that
// cannot be interpreted comes back as-is and is left for Decode to reject.
type Store interface {
	Read() (string, bool)
	Save(token string) error
	Clear() error
}

// Reader is the read side of Store, for consumers that never write.
type Reader interface {
	Read() (string, bool)
}

// Normalize turns a stored value into the bearer token. Values written by
// older console builds may be JSON wrapped as {"token": ...} or
// {"data": {"token": ...}}; those are unwrapped, data.token first. Anything
// else, including invalid JSON, is returned unchanged.
func Normalize(stored string) (string, bool) {
	if strings.TrimSpace(stored) == "" {
		return "", false
	}

	if !gjson.Valid(stored) {
		return stored, true
	}

	parsed := gjson.Parse(stored)
	if !parsed.IsObject() {
		return stored, true
	}

	for _, path := range []string{"data.token", "token"} {
		if value := parsed.Get(path); value.Type == gjson.String && value.Str != "" {
			return value.Str, true
		}
	}

	return stored, true
}
