package attach

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"

	"pollichat/internal/domain"
	"pollichat/internal/domain/models"
)

// Incoming is a raw user-selected file as it arrives from the client: either
// already encoded (base64 data or a data URL) or raw bytes.
type Incoming struct {
	Kind string
	Name string
	Data string // base64 payload, or a full data URL
	URL  string // data URI, images only
	Raw  []byte // raw bytes, encoded here when set
}

// Normalizer converts raw files into the canonical attachment representation:
// data URIs for images, base64 payloads for documents.
type Normalizer struct {
	maxBytes int64 // 0 = unlimited
	logger   *slog.Logger
}

// NewNormalizer creates a normalizer. maxBytes of 0 means no size limit.
func NewNormalizer(maxBytes int64, logger *slog.Logger) *Normalizer {
	return &Normalizer{maxBytes: maxBytes, logger: logger}
}

// Normalize converts each file independently: one unreadable or oversized
// file is dropped with a per-file error while the rest proceed.
func (n *Normalizer) Normalize(files []Incoming) ([]models.Attachment, []*domain.AttachmentError) {
	attachments := make([]models.Attachment, 0, len(files))
	var dropped []*domain.AttachmentError

	for _, f := range files {
		att, err := n.normalizeOne(f)
		if err != nil {
			n.logger.Warn("dropping attachment", "name", f.Name, "error", err)
			dropped = append(dropped, err)
			continue
		}
		attachments = append(attachments, att)
	}

	return attachments, dropped
}

func (n *Normalizer) normalizeOne(f Incoming) (models.Attachment, *domain.AttachmentError) {
	if f.Name == "" {
		return models.Attachment{}, &domain.AttachmentError{Name: "(unnamed)", Reason: "missing file name"}
	}

	data := f.Data
	if len(f.Raw) > 0 {
		data = base64.StdEncoding.EncodeToString(f.Raw)
	}

	switch models.AttachmentKind(f.Kind) {
	case models.AttachmentImage:
		url := f.URL
		if url == "" {
			if data == "" {
				return models.Attachment{}, &domain.AttachmentError{Name: f.Name, Reason: "image has no payload"}
			}
			url = fmt.Sprintf("data:%s;base64,%s", mimeTypeFor(f.Name, "image/png"), data)
		}
		if err := n.checkSize(f.Name, payloadSize(url)); err != nil {
			return models.Attachment{}, err
		}
		return models.Attachment{Kind: models.AttachmentImage, Name: f.Name, URL: url}, nil

	case models.AttachmentDocument:
		// Clients sometimes send the whole data URL; keep only the payload.
		if idx := strings.Index(data, ";base64,"); idx >= 0 {
			data = data[idx+len(";base64,"):]
		}
		if data == "" {
			return models.Attachment{}, &domain.AttachmentError{Name: f.Name, Reason: "document has no payload"}
		}
		if err := n.checkSize(f.Name, decodedSize(data)); err != nil {
			return models.Attachment{}, err
		}
		return models.Attachment{Kind: models.AttachmentDocument, Name: f.Name, Data: data}, nil

	default:
		return models.Attachment{}, &domain.AttachmentError{Name: f.Name, Reason: fmt.Sprintf("unknown attachment kind %q", f.Kind)}
	}
}

func (n *Normalizer) checkSize(name string, size int64) *domain.AttachmentError {
	if n.maxBytes > 0 && size > n.maxBytes {
		return &domain.AttachmentError{
			Name:   name,
			Reason: fmt.Sprintf("file is %d bytes, limit is %d", size, n.maxBytes),
		}
	}
	return nil
}

// decodedSize estimates the decoded byte count of a base64 payload.
func decodedSize(b64 string) int64 {
	return int64(base64.StdEncoding.DecodedLen(len(b64)))
}

// payloadSize estimates the decoded size of a data URI's payload.
func payloadSize(dataURL string) int64 {
	if idx := strings.Index(dataURL, ";base64,"); idx >= 0 {
		return decodedSize(dataURL[idx+len(";base64,"):])
	}
	return int64(len(dataURL))
}

// mimeTypeFor maps a filename to a MIME type, with a fallback.
func mimeTypeFor(name, fallback string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return fallback
}
