package config

const (
	// MaxConversationTitleLength is the maximum length for conversation titles.
	// Keeps on-disk directory names (which embed a slug of the title) reasonable.
	MaxConversationTitleLength = 255

	// DerivedTitleRunes is how much of the first user turn is kept when a
	// conversation title is derived rather than supplied.
	DerivedTitleRunes = 40
)
