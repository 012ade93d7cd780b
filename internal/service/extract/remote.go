package extract

import (
	"context"

	"pollichat/internal/domain/models"
	"pollichat/internal/gateway"
)

// extractionInstruction is the fixed prompt sent to the multimodal model.
const extractionInstruction = "Extract the full text of this PDF as structured Markdown. Return only the content."

// GatewaySender is the slice of the gateway client needed for remote
// extraction.
type GatewaySender interface {
	Send(ctx context.Context, model string, messages []gateway.Message, credential string) (*gateway.Completion, error)
}

// RemoteStrategy asks a capable multimodal model to transcribe the PDF.
// The result is authoritative and worth caching.
type RemoteStrategy struct {
	sender GatewaySender
	model  string
}

// NewRemoteStrategy creates a remote extraction strategy using the given
// model (one that accepts native documents).
func NewRemoteStrategy(sender GatewaySender, model string) *RemoteStrategy {
	return &RemoteStrategy{sender: sender, model: model}
}

func (s *RemoteStrategy) Name() string { return "remote" }

func (s *RemoteStrategy) Cacheable() bool { return true }

func (s *RemoteStrategy) Extract(ctx context.Context, data, filename, credential string) (string, error) {
	messages := []gateway.Message{
		{
			Role: models.RoleUser,
			Content: models.PartsContent([]models.Part{
				models.TextPart(extractionInstruction),
				models.FilePart(data, filename, "application/pdf"),
			}),
		},
	}

	completion, err := s.sender.Send(ctx, s.model, messages, credential)
	if err != nil {
		return "", err
	}
	return completion.Content, nil
}
