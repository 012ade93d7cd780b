package handler

import (
	"context"
	"errors"
	"net/http"

	"pollichat/internal/domain"
	"pollichat/internal/httputil"
)

// handleError converts domain errors to HTTP responses. Gateway failures
// mirror the upstream status and body verbatim; they are never swallowed.
func handleError(w http.ResponseWriter, err error) {
	var gatewayErr *domain.GatewayError
	var authErr *domain.AuthenticationError

	switch {
	case errors.Is(err, context.Canceled):
		// Cooperative abort: the client is gone, there is nobody to answer.
		return
	case errors.As(err, &authErr):
		httputil.RespondError(w, http.StatusUnauthorized, authErr.Message)
	case errors.As(err, &gatewayErr):
		httputil.RespondError(w, gatewayErr.Status, gatewayErr.Body)
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
