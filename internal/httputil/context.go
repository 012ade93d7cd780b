package httputil

import (
	"context"
	"net/http"
)

type contextKey string

const apiKeyContextKey contextKey = "api_key"

// WithAPIKey stores the caller's credential in the context. The credential is
// an opaque bearer token passed straight through to the gateway, never
// persisted.
func WithAPIKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, apiKeyContextKey, key)
}

// GetAPIKey extracts the caller's credential from the request context.
// Returns an empty string when none was supplied.
func GetAPIKey(r *http.Request) string {
	key, _ := r.Context().Value(apiKeyContextKey).(string)
	return key
}
