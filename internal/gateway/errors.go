package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is matched by API errors carrying a 404 status.
	ErrNotFound = errors.New("gateway: not found")
	// ErrTransport is returned when the backend could not be reached.
	ErrTransport = errors.New("gateway: transport failure")
	// ErrUnauthorized is matched by API errors carrying a 401 or 403 status.
	ErrUnauthorized = errors.New("gateway: unauthorized")
)

// APIError describes a non-2xx backend response.
type APIError struct {
	Op      string
	Method  string
	Path    string
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("gateway: %s %s %s: %d %s", e.Op, e.Method, e.Path, e.Status, msg)
}

// Is maps status codes onto the package sentinels.
func (e *APIError) Is(target error) bool {
	if e == nil {
		return false
	}
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	}
	return false
}

// Reason returns the backend supplied error text, if any. It is what the
// station shows to operators after a failed commit.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, ErrTransport) {
		return "backend unreachable"
	}
	return ""
}
