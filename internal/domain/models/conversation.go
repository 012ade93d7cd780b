package models

import (
	"time"
)

// Conversation is the durable chat record. Turns are append-only in stored
// form; the record is only ever removed whole.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Model     string    `json:"model"`
	Turns     []Turn    `json:"turns"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"last_updated"`
}

// ConversationSummary is the read model for listing, sorted by recency.
type ConversationSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Model     string    `json:"model"`
	TurnCount int       `json:"turn_count"`
	UpdatedAt time.Time `json:"last_updated"`
}
