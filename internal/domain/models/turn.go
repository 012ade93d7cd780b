package models

import (
	"time"
)

// Turn roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// AttachmentRef is the persisted descriptor of a file attached to a turn.
// The payload itself is folded into the turn content at assembly time and is
// not kept as a first-class record.
type AttachmentRef struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// Turn represents a single message in a conversation (user or assistant).
// Once persisted, a turn's content is immutable.
type Turn struct {
	ID        string  `json:"id"`
	Role      string  `json:"role"`
	Content   Content `json:"content"`
	Reasoning *string `json:"reasoning,omitempty"`
	// Model records which model actually produced an assistant turn; the
	// conversation's current model can change between turns.
	Model       *string         `json:"model,omitempty"`
	Attachments []AttachmentRef `json:"files,omitempty"`
	CreatedAt   time.Time       `json:"created_at,omitzero"`
}
