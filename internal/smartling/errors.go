package smartling

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ValidationError reports a bad argument. It is always returned before any request is sent.
type ValidationError struct {
	Op      string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("smartling %s: invalid %s: %s", e.Op, e.Field, e.Message)
}

// TransportError wraps a network-level failure: no HTTP response was obtained.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("smartling %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError is built from a Response that did not succeed, for callers that treat it as fatal.
type APIError struct {
	StatusCode int
	Code       string
	Messages   []string
	Body       string
}

func (e *APIError) Error() string {
	msg := strings.Join(e.Messages, "; ")
	if msg == "" {
		msg = strings.TrimSpace(e.Body)
	}
	if e.Code != "" {
		return fmt.Sprintf("smartling api status %d (%s): %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("smartling api status %d: %s", e.StatusCode, msg)
}

// Unauthorized reports an authentication or authorization rejection.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden || e.Code == "AUTHENTICATION_ERROR"
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsTransport(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

func IsUnauthorized(err error) bool {
	var target *APIError
	return errors.As(err, &target) && target.Unauthorized()
}
