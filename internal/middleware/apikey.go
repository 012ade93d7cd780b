package middleware

import (
	"net/http"

	"pollichat/internal/httputil"
)

// apiKeyHeader is the inbound credential header. Outbound it becomes an
// Authorization bearer token.
const apiKeyHeader = "x-api-key"

// APIKey extracts the caller's credential into the request context. Whether
// a credential is required is each handler's decision, so listing and
// deleting conversations work without one.
func APIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key := r.Header.Get(apiKeyHeader); key != "" {
			r = r.WithContext(httputil.WithAPIKey(r.Context(), key))
		}
		next.ServeHTTP(w, r)
	})
}
