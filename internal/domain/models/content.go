package models

import (
	"encoding/json"
	"fmt"
)

// PartType identifies the variant of a content part.
type PartType string

const (
	PartTypeText  PartType = "text"
	PartTypeImage PartType = "image_url"
	PartTypeFile  PartType = "file"
)

// FileData is the payload of a native file part, in the gateway's wire shape.
type FileData struct {
	Data     string `json:"file_data"`
	Name     string `json:"file_name"`
	MIMEType string `json:"mime_type"`
}

// Part is one element of a multimodal turn: text, an inline image reference,
// or a native file reference. Consumers switch on Type rather than probing
// shape at runtime.
type Part struct {
	Type     PartType
	Text     string
	ImageURL string
	File     *FileData
}

// TextPart creates a text part. An empty string is a valid text part; when an
// attachment is the whole content the text stays empty rather than omitted.
func TextPart(text string) Part {
	return Part{Type: PartTypeText, Text: text}
}

// ImagePart creates an inline image reference part from a URL (usually a data URI).
func ImagePart(url string) Part {
	return Part{Type: PartTypeImage, ImageURL: url}
}

// FilePart creates a native file reference part from base64 document data.
func FilePart(data, name, mimeType string) Part {
	return Part{Type: PartTypeFile, File: &FileData{Data: data, Name: name, MIMEType: mimeType}}
}

type imageURLJSON struct {
	URL string `json:"url"`
}

type partJSON struct {
	Type     PartType      `json:"type"`
	Text     *string       `json:"text,omitempty"`
	ImageURL *imageURLJSON `json:"image_url,omitempty"`
	File     *FileData     `json:"file,omitempty"`
}

// MarshalJSON writes the gateway wire shape for each part variant.
func (p Part) MarshalJSON() ([]byte, error) {
	out := partJSON{Type: p.Type}
	switch p.Type {
	case PartTypeText:
		text := p.Text
		out.Text = &text
	case PartTypeImage:
		out.ImageURL = &imageURLJSON{URL: p.ImageURL}
	case PartTypeFile:
		out.File = p.File
	default:
		return nil, fmt.Errorf("unknown part type: %s", p.Type)
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads a part in the gateway wire shape.
func (p *Part) UnmarshalJSON(data []byte) error {
	var in partJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	p.Type = in.Type
	switch in.Type {
	case PartTypeText:
		if in.Text != nil {
			p.Text = *in.Text
		}
	case PartTypeImage:
		if in.ImageURL != nil {
			p.ImageURL = in.ImageURL.URL
		}
	case PartTypeFile:
		p.File = in.File
	default:
		return fmt.Errorf("unknown part type: %s", in.Type)
	}
	return nil
}

// Content is a tagged variant: either plain text or an ordered sequence of
// typed parts. On the wire it serializes as a bare string or an array.
type Content struct {
	text    string
	parts   []Part
	isParts bool
}

// TextContent creates plain-text content.
func TextContent(text string) Content {
	return Content{text: text}
}

// PartsContent creates multimodal content from typed parts.
func PartsContent(parts []Part) Content {
	return Content{parts: parts, isParts: true}
}

// IsParts reports whether the content is the multimodal variant.
func (c Content) IsParts() bool { return c.isParts }

// Parts returns the part sequence; nil for the text variant.
func (c Content) Parts() []Part {
	if !c.isParts {
		return nil
	}
	return c.parts
}

// PlainText returns the text variant's string, or the first text part's text
// for the multimodal variant. Used for title derivation and display.
func (c Content) PlainText() string {
	if !c.isParts {
		return c.text
	}
	for _, p := range c.parts {
		if p.Type == PartTypeText {
			return p.Text
		}
	}
	return ""
}

// MarshalJSON writes a bare string for text content, an array for parts.
func (c Content) MarshalJSON() ([]byte, error) {
	if c.isParts {
		return json.Marshal(c.parts)
	}
	return json.Marshal(c.text)
}

// UnmarshalJSON accepts either a bare string or an array of parts.
func (c *Content) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*c = TextContent(text)
		return nil
	}

	var parts []Part
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("content must be a string or an array of parts: %w", err)
	}
	*c = PartsContent(parts)
	return nil
}
