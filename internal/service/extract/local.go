package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// LocalStrategy parses the PDF offline. Output quality is rougher than the
// remote transcription but it works without network access. Cheap to redo,
// so never cached.
type LocalStrategy struct{}

// NewLocalStrategy creates the offline PDF parsing strategy.
func NewLocalStrategy() *LocalStrategy {
	return &LocalStrategy{}
}

func (s *LocalStrategy) Name() string { return "local" }

func (s *LocalStrategy) Cacheable() bool { return false }

func (s *LocalStrategy) Extract(ctx context.Context, data, filename, credential string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", fmt.Errorf("decode document payload: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	text, err := io.ReadAll(textReader)
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	return string(text), nil
}
