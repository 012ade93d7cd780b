package capabilities

import "gopkg.in/yaml.v3"

// ModelCapabilities represents all metadata for a specific model
type ModelCapabilities struct {
	// Model identifier (set during YAML unmarshaling)
	ID string `yaml:"-" json:"id"`

	// Display information
	DisplayName string `yaml:"display_name" json:"display_name"`
	Description string `yaml:"description" json:"description"`

	// AcceptsNativeDocuments means the model can consume raw PDF payloads as
	// file parts. Models without it get documents as extracted Markdown text.
	AcceptsNativeDocuments bool `yaml:"accepts_native_documents" json:"accepts_native_documents"`

	// Core capabilities
	SupportsVision    bool `yaml:"supports_vision" json:"supports_vision"`
	SupportsReasoning bool `yaml:"supports_reasoning" json:"supports_reasoning"`

	// Limits
	ContextWindow int `yaml:"context_window" json:"context_window"`
	MaxOutput     int `yaml:"max_output" json:"max_output"`
}

// modelTable represents the full capability file
type modelTable struct {
	Models []ModelCapabilities `yaml:"-"`
}

// UnmarshalYAML implements custom YAML unmarshaling to preserve model order
// from the YAML file (the order models are shown to clients).
func (t *modelTable) UnmarshalYAML(node *yaml.Node) error {
	type modelsOnly struct {
		Models map[string]ModelCapabilities `yaml:"models"`
	}
	var m modelsOnly
	if err := node.Decode(&m); err != nil {
		return err
	}

	// Walk the mapping node to recover key order; node.Content alternates
	// key, value, key, value...
	for i := 0; i < len(node.Content); i += 2 {
		if node.Content[i].Value != "models" {
			continue
		}
		modelsNode := node.Content[i+1]
		for j := 0; j < len(modelsNode.Content); j += 2 {
			modelID := modelsNode.Content[j].Value
			if model, ok := m.Models[modelID]; ok {
				model.ID = modelID
				t.Models = append(t.Models, model)
			}
		}
		break
	}

	return nil
}
