package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface enables extensible error handling in handlers.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
)

// GatewayError is a non-success response from the model gateway. The upstream
// status and body are preserved so the caller can mirror them verbatim.
type GatewayError struct {
	Status int
	Body   string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway returned status %d: %s", e.Status, e.Body)
}

// StatusCode implements the HTTPError interface. The upstream status is
// passed through unchanged.
func (e *GatewayError) StatusCode() int {
	return e.Status
}

// AuthenticationError indicates a missing or rejected credential. Distinct
// from GatewayError so callers can prompt for a new credential instead of
// treating the failure as transient.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string { return e.Message }

func (e *AuthenticationError) StatusCode() int { return http.StatusUnauthorized }

// Is allows errors.Is() to match against ErrUnauthorized
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrUnauthorized
}

// AttachmentError reports a single attachment that failed to normalize.
// Other attachments in the same turn are unaffected.
type AttachmentError struct {
	Name   string
	Reason string
}

func (e *AttachmentError) Error() string {
	return fmt.Sprintf("attachment %q: %s", e.Name, e.Reason)
}
