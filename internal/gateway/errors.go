package gateway

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// statusError is a non-2xx response from the backend.
type statusError struct {
	code int
	body string
	// retryAfter is the server's Retry-After hint, zero when absent.
	retryAfter time.Duration
}

func (e *statusError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.code, e.body)
}

// NetworkError is a transport failure or non-2xx response on a read path.
// Callers degrade gracefully: stale data plus a message.
type NetworkError struct {
	Op     string // "fetch dashboard", "list sessions", ...
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", e.Op, e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ActionError is the failure of an explicit user-initiated write. It must be
// surfaced to the user.
type ActionError struct {
	Op     string
	Method string
	Path   string
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s failed: %s %s: %v", e.Op, e.Method, e.Path, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status carried by err, or 0 if the failure
// happened before a response was received.
func StatusCode(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.code
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	return StatusCode(err) == 404
}

// parseRetryAfter reads a Retry-After header given in seconds. HTTP dates
// are not used by the backend and are ignored.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
