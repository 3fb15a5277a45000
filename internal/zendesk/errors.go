package zendesk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx answer from the Help Center API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("zendesk %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, msg)
}

func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) &&
		(apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden)
}

func newAPIError(method, path string, statusCode int, body []byte) *APIError {
	return &APIError{
		Method:     method,
		Path:       path,
		StatusCode: statusCode,
		Message:    errorMessage(body),
		Body:       string(body),
	}
}

// errorMessage pulls a readable message out of either error shape Zendesk uses:
// {"error":"RecordNotFound","description":"Not found"} or {"error":{"title":..,"message":..}}.
func errorMessage(body []byte) string {
	var payload struct {
		Error       json.RawMessage `json:"error"`
		Description string          `json:"description"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	var parts []string
	var code string
	var detail struct {
		Title   string `json:"title"`
		Message string `json:"message"`
	}
	switch {
	case json.Unmarshal(payload.Error, &code) == nil && code != "":
		parts = append(parts, code)
	case json.Unmarshal(payload.Error, &detail) == nil:
		for _, part := range []string{detail.Title, detail.Message} {
			if strings.TrimSpace(part) != "" {
				parts = append(parts, part)
			}
		}
	}
	if strings.TrimSpace(payload.Description) != "" {
		parts = append(parts, payload.Description)
	}
	return strings.Join(parts, ": ")
}
