package apiclient

import (
	"fmt"
	"net/http"
)

// RequestError is a failed call to the API. StatusCode is zero when no HTTP
// response was received at all (connection refused, timeout, cancellation).
// Message carries the server's "message" field for HTTP failures, which may
// be empty, and the transport error text otherwise.
type RequestError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	if !e.HasStatus() {
		return fmt.Sprintf("request failed: %s", e.Message)
	}

	message := e.Message
	if message == "" {
		message = http.StatusText(e.StatusCode)
	}

	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, message)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// HasStatus reports whether the API answered with an HTTP status.
func (e *RequestError) HasStatus() bool {
	return e.StatusCode != 0
}
