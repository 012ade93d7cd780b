package handler

import (
	"log/slog"
	"net/http"

	"pollichat/internal/gateway"
	"pollichat/internal/httputil"
)

// BalanceHandler proxies the account balance endpoint. Pure read-through:
// the upstream status passes straight through on failure.
type BalanceHandler struct {
	gateway *gateway.Client
	logger  *slog.Logger
}

// NewBalanceHandler creates a new balance handler
func NewBalanceHandler(gatewayClient *gateway.Client, logger *slog.Logger) *BalanceHandler {
	return &BalanceHandler{gateway: gatewayClient, logger: logger}
}

// GetBalance returns the credential's remaining balance
// GET /balance
func (h *BalanceHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	credential := httputil.GetAPIKey(r)
	if credential == "" {
		httputil.RespondError(w, http.StatusUnauthorized, "Missing API Key")
		return
	}

	balance, err := h.gateway.Balance(r.Context(), credential)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]float64{"balance": balance})
}
