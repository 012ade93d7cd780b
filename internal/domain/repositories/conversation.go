package repositories

import (
	"context"

	"pollichat/internal/domain/models"
)

// ConversationRepository owns the durable representation of conversations.
// Single logical writer per conversation; AppendTurn is atomic with respect
// to one conversation.
type ConversationRepository interface {
	// List returns summaries of all readable conversations ordered by
	// most-recent-update descending. Unreadable records are skipped, not
	// surfaced as errors.
	List(ctx context.Context) ([]models.ConversationSummary, error)

	// Get retrieves a full conversation. Returns domain.ErrNotFound when no
	// record matches the identifier.
	Get(ctx context.Context, id string) (*models.Conversation, error)

	// CreateOrFind returns the conversation for id, creating an empty record
	// with the given title and model when none exists yet.
	CreateOrFind(ctx context.Context, id, title, model string) (*models.Conversation, error)

	// AppendTurn appends exactly one turn to the stored conversation and
	// bumps its update timestamp.
	AppendTurn(ctx context.Context, id string, turn models.Turn) error

	// Delete removes the whole record. Deleting an absent conversation is
	// not an error.
	Delete(ctx context.Context, id string) error
}

// TranscriptionCache memoizes PDF extraction results keyed by conversation
// and original filename. Purely a performance optimization: a miss (or an
// absent cache) must not change prompt behavior beyond latency. Writes are
// idempotent per key, so a benign check-then-write race is acceptable.
type TranscriptionCache interface {
	GetTranscription(ctx context.Context, conversationID, filename string) (string, bool)
	PutTranscription(ctx context.Context, conversationID, filename, text string) error
}
