package session

import (
	"net/http"
	"net/url"
	"time"
)

// CookieOptions describes the cookie the token is persisted in.
type CookieOptions struct {
	Name   string
	Secure bool
}

// CookieStore is the browser-persisted session for one request. It is seeded
// from the request cookie; Save and Clear update both the in-request value
// and the response, so later reads in the same request see the change.
//
// Values are query-escaped, which leaves JWTs untouched and lets JSON
// wrapped values survive cookie encoding.
type CookieStore struct {
	memory   *MemoryStore
	response http.ResponseWriter
	options  CookieOptions
}

// NewCookieStore binds a store to the given request/response pair.
func NewCookieStore(w http.ResponseWriter, r *http.Request, options CookieOptions) *CookieStore {
	if options.Name == "" {
		options.Name = StorageKey
	}

	stored := ""
	if cookie, err := r.Cookie(options.Name); err == nil {
		stored = cookie.Value
		if unescaped, err := url.QueryUnescape(cookie.Value); err == nil {
			stored = unescaped
		}
	}

	return &CookieStore{
		memory:   NewMemoryStore(stored),
		response: w,
		options:  options,
	}
}

func (s *CookieStore) Read() (string, bool) {
	return s.memory.Read()
}

// Save persists token verbatim. When the token carries an exp claim the
// cookie expires with it; otherwise it lives for the browser session.
func (s *CookieStore) Save(token string) error {
	if err := s.memory.Save(token); err != nil {
		return err
	}

	cookie := s.cookie(url.QueryEscape(token))
	if normalized, ok := Normalize(token); ok {
		if claims, err := Decode(normalized); err == nil && claims.ExpiresAt != nil {
			cookie.Expires = claims.ExpiresAt.Time
		}
	}
	http.SetCookie(s.response, cookie)

	return nil
}

func (s *CookieStore) Clear() error {
	if err := s.memory.Clear(); err != nil {
		return err
	}

	cookie := s.cookie("")
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	http.SetCookie(s.response, cookie)

	return nil
}

func (s *CookieStore) cookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     s.options.Name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.options.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
