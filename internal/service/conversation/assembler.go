package conversation

import (
	"context"
	"fmt"
	"log/slog"

	"pollichat/internal/capabilities"
	"pollichat/internal/domain/models"
	"pollichat/internal/gateway"
	"pollichat/internal/service/extract"
	"pollichat/internal/service/skills"
)

const (
	// pruneThreshold is the turn count above which history is compressed.
	pruneThreshold = 20
	// keepHead anchors the opening of the conversation (e.g. an initial
	// instruction); keepTail biases toward recency for continuity.
	keepHead = 2
	keepTail = 15

	// prunedHistoryNote replaces the dropped middle. Lossy by design: the
	// point is bounding request size, not summarization.
	prunedHistoryNote = "...[Older history omitted to save tokens]..."

	// personalityDirective keeps greetings terse and non-presumptuous.
	personalityDirective = "PERSONALITY RULE: Respond to greetings naturally, briefly and humanly. " +
		"Do not introduce yourself as a specialist or mention your skills until the user " +
		"uploads a document or asks a technical question."

	documentBlockFormat = "\n\n[DOCUMENT: %s]\n%s\n[END]\n"
)

// DocumentExtractor produces Markdown text for a PDF that the target model
// cannot consume natively. Never fails; degraded extraction yields a sentinel.
type DocumentExtractor interface {
	Extract(ctx context.Context, data, filename, credential string, key *extract.CacheKey) string
}

// Assembler merges system prompt, skills, pruned history and the current
// turn's attachments into the exact message list the gateway expects. It only
// ever reads history snapshots; writing the response back is the caller's job.
type Assembler struct {
	skills       *skills.Loader
	extractor    DocumentExtractor
	capabilities *capabilities.Registry
	logger       *slog.Logger
}

// NewAssembler creates a conversation assembler.
func NewAssembler(
	skillLoader *skills.Loader,
	extractor DocumentExtractor,
	capabilityRegistry *capabilities.Registry,
	logger *slog.Logger,
) *Assembler {
	return &Assembler{
		skills:       skillLoader,
		extractor:    extractor,
		capabilities: capabilityRegistry,
		logger:       logger,
	}
}

// Assemble builds the ordered gateway message list: system message, pruned
// history, current turn with folded attachments. Empty history is valid (the
// first turn of a new conversation); so is a current turn whose only content
// is its attachments.
func (a *Assembler) Assemble(
	ctx context.Context,
	history []models.Turn,
	modelID string,
	attachments []models.Attachment,
	conversationID string,
	credential string,
) ([]gateway.Message, error) {
	messages := make([]gateway.Message, 0, len(history)+2)

	// Guard against duplicate system prompts: pruned or migrated histories
	// can already carry one.
	if !hasSystemTurn(history) {
		messages = append(messages, gateway.Message{
			Role:    models.RoleSystem,
			Content: models.TextContent(a.systemInstruction()),
		})
	}

	pruned := PruneHistory(history)

	for i, turn := range pruned {
		switch turn.Role {
		case models.RoleUser, models.RoleAssistant, models.RoleSystem:
		default:
			return nil, fmt.Errorf("unsupported turn role: %s", turn.Role)
		}

		content := turn.Content
		if i == len(pruned)-1 && len(attachments) > 0 {
			content = a.foldAttachments(ctx, turn.Content, modelID, attachments, conversationID, credential)
		}

		messages = append(messages, gateway.Message{Role: turn.Role, Content: content})
	}

	// A first send can carry attachments with no prior turns at all; the
	// attachment is the content then.
	if len(pruned) == 0 && len(attachments) > 0 {
		content := a.foldAttachments(ctx, models.TextContent(""), modelID, attachments, conversationID, credential)
		messages = append(messages, gateway.Message{Role: models.RoleUser, Content: content})
	}

	return messages, nil
}

// systemInstruction combines the fixed personality directive with the skill
// block loaded from disk.
func (a *Assembler) systemInstruction() string {
	instruction := personalityDirective
	if skillBlock := a.skills.Load(); skillBlock != "" {
		instruction += "\n\n" + skillBlock
	}
	return instruction
}

// foldAttachments turns the current turn into multimodal parts: its text
// first, then one part per attachment. Documents route on an explicit
// capability flag, never a model-name heuristic: native file reference when
// the model accepts raw documents, extracted Markdown in a delimited text
// block otherwise.
func (a *Assembler) foldAttachments(
	ctx context.Context,
	content models.Content,
	modelID string,
	attachments []models.Attachment,
	conversationID string,
	credential string,
) models.Content {
	parts := make([]models.Part, 0, len(attachments)+1)
	// Text stays present even when empty: the attachment is the content.
	parts = append(parts, models.TextPart(content.PlainText()))

	acceptsNative := a.capabilities.AcceptsNativeDocuments(modelID)

	for _, att := range attachments {
		switch att.Kind {
		case models.AttachmentImage:
			parts = append(parts, models.ImagePart(att.URL))

		case models.AttachmentDocument:
			if acceptsNative {
				parts = append(parts, models.FilePart(att.Data, att.Name, "application/pdf"))
				continue
			}

			var key *extract.CacheKey
			if conversationID != "" {
				key = &extract.CacheKey{ConversationID: conversationID, Filename: att.Name}
			}
			text := a.extractor.Extract(ctx, att.Data, att.Name, credential, key)
			parts = append(parts, models.TextPart(fmt.Sprintf(documentBlockFormat, att.Name, text)))

		default:
			a.logger.Warn("skipping attachment of unknown kind", "name", att.Name, "kind", att.Kind)
		}
	}

	return models.PartsContent(parts)
}

// PruneHistory bounds request size: above the threshold only the first two
// turns, a synthetic system note, and the most recent fifteen turns survive.
// Deterministic and lossy; no semantic compression is attempted.
func PruneHistory(turns []models.Turn) []models.Turn {
	if len(turns) <= pruneThreshold {
		return turns
	}

	pruned := make([]models.Turn, 0, keepHead+1+keepTail)
	pruned = append(pruned, turns[:keepHead]...)
	pruned = append(pruned, models.Turn{
		Role:    models.RoleSystem,
		Content: models.TextContent(prunedHistoryNote),
	})
	pruned = append(pruned, turns[len(turns)-keepTail:]...)
	return pruned
}

func hasSystemTurn(turns []models.Turn) bool {
	for _, t := range turns {
		if t.Role == models.RoleSystem {
			return true
		}
	}
	return false
}
