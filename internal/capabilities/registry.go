package capabilities

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed config/models.yaml
var configFiles embed.FS

// Registry is the explicit capability table keyed by model identifier. It
// replaces per-call string comparisons against specific model IDs, so adding
// a model is a YAML edit rather than a code change. Immutable after load.
type Registry struct {
	models []ModelCapabilities
	byID   map[string]*ModelCapabilities
}

// NewRegistry creates a capability registry from the embedded YAML table
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/models.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read capability table: %w", err)
	}

	var table modelTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to unmarshal capability table: %w", err)
	}

	r := &Registry{
		models: table.Models,
		byID:   make(map[string]*ModelCapabilities, len(table.Models)),
	}
	for i := range r.models {
		r.byID[r.models[i].ID] = &r.models[i]
	}

	return r, nil
}

// GetModelCapabilities returns capabilities for a specific model
func (r *Registry) GetModelCapabilities(model string) (*ModelCapabilities, error) {
	caps, ok := r.byID[model]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", model)
	}
	return caps, nil
}

// AcceptsNativeDocuments reports whether the model consumes raw document
// payloads. Unknown models are treated as text-only, the safe routing.
func (r *Registry) AcceptsNativeDocuments(model string) bool {
	caps, ok := r.byID[model]
	return ok && caps.AcceptsNativeDocuments
}

// ListModels returns all models in table order
func (r *Registry) ListModels() []ModelCapabilities {
	return r.models
}
