package handler

import (
	"log/slog"
	"net/http"

	"pollichat/internal/capabilities"
	"pollichat/internal/httputil"
)

// ModelsHandler exposes the model capability table so clients can build
// their model picker from the same source of truth the assembler routes on.
type ModelsHandler struct {
	registry *capabilities.Registry
	logger   *slog.Logger
}

// NewModelsHandler creates a new models handler
func NewModelsHandler(registry *capabilities.Registry, logger *slog.Logger) *ModelsHandler {
	return &ModelsHandler{registry: registry, logger: logger}
}

// ListModels returns all models with their capabilities, in table order
// GET /models
func (h *ModelsHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.registry.ListModels())
}

// HealthCheck reports liveness
// GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
