package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"pollichat/internal/config"
	"pollichat/internal/domain"
	"pollichat/internal/domain/models"
	"pollichat/internal/domain/repositories"
	"pollichat/internal/gateway"
	"pollichat/internal/service/attach"
	"pollichat/internal/service/conversation"
)

// GatewayClient is the slice of the gateway client the chat service needs.
type GatewayClient interface {
	Send(ctx context.Context, model string, messages []gateway.Message, credential string) (*gateway.Completion, error)
}

// SendRequest carries one chat turn from the presentation layer. Turns is the
// client's working history including the turn being sent; it is used for
// assembly, while the store only ever receives appends.
type SendRequest struct {
	ConversationID    string
	ConversationTitle string
	ModelID           string
	Turns             []models.Turn
	Attachments       []attach.Incoming
	Credential        string
}

// SendResponse is the assistant's whole reply.
type SendResponse struct {
	Content   string  `json:"content"`
	Reasoning *string `json:"reasoning,omitempty"`
}

// Service orchestrates a send: validate, normalize attachments, persist the
// user turn, assemble, call the gateway, persist the assistant turn.
type Service struct {
	repo       repositories.ConversationRepository
	assembler  *conversation.Assembler
	gateway    GatewayClient
	normalizer *attach.Normalizer
	logger     *slog.Logger
}

// NewService creates the chat service.
func NewService(
	repo repositories.ConversationRepository,
	assembler *conversation.Assembler,
	gatewayClient GatewayClient,
	normalizer *attach.Normalizer,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:       repo,
		assembler:  assembler,
		gateway:    gatewayClient,
		normalizer: normalizer,
		logger:     logger,
	}
}

// SendMessage runs the full pipeline for one turn. The user turn is appended
// before the gateway call, so a failed or cancelled send leaves the
// conversation with exactly the user turn and nothing partial.
func (s *Service) SendMessage(ctx context.Context, req *SendRequest) (*SendResponse, error) {
	if req.Credential == "" {
		return nil, &domain.AuthenticationError{Message: "API key missing"}
	}
	if err := s.validateSendRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	attachments, dropped := s.normalizer.Normalize(req.Attachments)

	history := req.Turns
	if len(dropped) > 0 {
		history = appendDropNotes(history, dropped)
	}

	// Persistence is best-effort relative to answering: a broken store must
	// not stop the model from replying.
	conversationID := req.ConversationID
	if conversationID != "" {
		if err := s.persistUserTurn(ctx, req, attachments, dropped); err != nil {
			s.logger.Warn("disabling persistence for this send",
				"conversation_id", conversationID,
				"error", err,
			)
			conversationID = ""
		}
	}

	messages, err := s.assembler.Assemble(ctx, history, req.ModelID, attachments, conversationID, req.Credential)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	completion, err := s.gateway.Send(ctx, req.ModelID, messages, req.Credential)
	if err != nil {
		// Cancellation and gateway failures alike: no assistant turn is
		// appended, the stored user turn stays.
		return nil, err
	}

	if conversationID != "" {
		model := req.ModelID
		assistantTurn := models.Turn{
			ID:        uuid.NewString(),
			Role:      models.RoleAssistant,
			Content:   models.TextContent(completion.Content),
			Reasoning: completion.Reasoning,
			Model:     &model,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.repo.AppendTurn(ctx, conversationID, assistantTurn); err != nil {
			// The reply still reaches the user; only durability suffered.
			s.logger.Error("failed to persist assistant turn",
				"conversation_id", conversationID,
				"error", err,
			)
		}
	}

	return &SendResponse{Content: completion.Content, Reasoning: completion.Reasoning}, nil
}

// ListConversations returns summaries sorted by recency.
func (s *Service) ListConversations(ctx context.Context) ([]models.ConversationSummary, error) {
	return s.repo.List(ctx)
}

// DeleteConversation removes a conversation; absent records are a success.
func (s *Service) DeleteConversation(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: conversationId is required", domain.ErrValidation)
	}
	return s.repo.Delete(ctx, id)
}

// persistUserTurn ensures the conversation record exists and appends the
// incoming user turn with its attachment descriptors.
func (s *Service) persistUserTurn(
	ctx context.Context,
	req *SendRequest,
	attachments []models.Attachment,
	dropped []*domain.AttachmentError,
) error {
	title := strings.TrimSpace(req.ConversationTitle)
	if title == "" {
		title = deriveTitle(req.Turns)
	}

	if _, err := s.repo.CreateOrFind(ctx, req.ConversationID, title, req.ModelID); err != nil {
		return err
	}

	current, ok := currentUserTurn(req.Turns)
	if !ok {
		return nil
	}

	refs := make([]models.AttachmentRef, 0, len(attachments))
	for _, att := range attachments {
		refs = append(refs, models.AttachmentRef{Name: att.Name, Kind: string(att.Kind)})
	}

	// Keep the client's turn identifier when it supplied one; uniqueness
	// within the conversation is the only requirement.
	id := current.ID
	if id == "" {
		id = uuid.NewString()
	}

	turn := models.Turn{
		ID:          id,
		Role:        models.RoleUser,
		Content:     current.Content,
		Attachments: refs,
		CreatedAt:   time.Now().UTC(),
	}

	return s.repo.AppendTurn(ctx, req.ConversationID, turn)
}

// currentUserTurn returns the turn being sent: the last turn, when it is a
// user turn.
func currentUserTurn(turns []models.Turn) (models.Turn, bool) {
	if len(turns) == 0 {
		return models.Turn{}, false
	}
	last := turns[len(turns)-1]
	if last.Role != models.RoleUser {
		return models.Turn{}, false
	}
	return last, true
}

// appendDropNotes surfaces per-file attachment failures inside the current
// turn so a dropped file never disappears silently.
func appendDropNotes(turns []models.Turn, dropped []*domain.AttachmentError) []models.Turn {
	var notes strings.Builder
	for _, d := range dropped {
		fmt.Fprintf(&notes, "\n\n[Attachment dropped - %s: %s]", d.Name, d.Reason)
	}

	if len(turns) == 0 {
		return []models.Turn{{
			Role:    models.RoleUser,
			Content: models.TextContent(strings.TrimSpace(notes.String())),
		}}
	}

	out := make([]models.Turn, len(turns))
	copy(out, turns)
	last := &out[len(out)-1]
	last.Content = models.TextContent(last.Content.PlainText() + notes.String())
	return out
}

// deriveTitle takes the first user turn's opening text as the title.
func deriveTitle(turns []models.Turn) string {
	for _, t := range turns {
		if t.Role != models.RoleUser {
			continue
		}
		text := strings.TrimSpace(t.Content.PlainText())
		if text == "" {
			continue
		}
		runes := []rune(text)
		if len(runes) > config.DerivedTitleRunes {
			runes = runes[:config.DerivedTitleRunes]
		}
		return string(runes)
	}
	return "New Chat"
}

func (s *Service) validateSendRequest(req *SendRequest) error {
	if len(req.Turns) == 0 && len(req.Attachments) == 0 {
		return fmt.Errorf("at least one turn or attachment is required")
	}

	return validation.ValidateStruct(req,
		validation.Field(&req.ModelID, validation.Required),
		validation.Field(&req.ConversationTitle,
			validation.Length(0, config.MaxConversationTitleLength),
		),
		validation.Field(&req.Turns, validation.By(validateTurnRoles)),
	)
}

func validateTurnRoles(value interface{}) error {
	turns, _ := value.([]models.Turn)
	for i, t := range turns {
		switch t.Role {
		case models.RoleUser, models.RoleAssistant, models.RoleSystem:
		default:
			return fmt.Errorf("turn %d has unsupported role %q", i, t.Role)
		}
	}
	return nil
}
