package models

// AttachmentKind distinguishes images from documents during assembly.
type AttachmentKind string

const (
	AttachmentImage    AttachmentKind = "image"
	AttachmentDocument AttachmentKind = "document"
)

// Attachment is the canonical in-memory form of a user-selected file for the
// current turn. Transient: it is folded into turn content at assembly time.
// Images carry a data URI in URL; documents carry base64 payload in Data.
type Attachment struct {
	Kind AttachmentKind
	Name string
	URL  string
	Data string
}
