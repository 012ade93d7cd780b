package extract

import (
	"context"
	"log/slog"
	"strings"

	"pollichat/internal/domain/repositories"
)

// ExtractionUnavailable is returned when every extraction path failed. It is
// valid Markdown and gets embedded in the prompt as-is, so the pipeline never
// fails past this stage.
const ExtractionUnavailable = "[SYSTEM]: PDF text extraction unavailable."

// CacheKey identifies a transcription within a conversation. A nil key
// disables caching for the call.
type CacheKey struct {
	ConversationID string
	Filename       string
}

// Strategy is one way of turning a PDF into text. Strategies are tried in
// order; the first non-empty result wins. Cacheable strategies are expensive
// enough that their output is memoized when a cache key is supplied.
type Strategy interface {
	Name() string
	Cacheable() bool
	// Extract receives the document as base64 and returns extracted text.
	Extract(ctx context.Context, data, filename, credential string) (string, error)
}

// Extractor runs an ordered strategy chain with a transcription cache in
// front. Extraction is best-effort enrichment: Extract never fails, falling
// through to a sentinel when every strategy comes up empty.
type Extractor struct {
	strategies []Strategy
	cache      repositories.TranscriptionCache
	logger     *slog.Logger
}

// NewExtractor creates an extractor over the given strategy chain. cache may
// be nil, which only costs latency on repeated sends of the same attachment.
func NewExtractor(strategies []Strategy, cache repositories.TranscriptionCache, logger *slog.Logger) *Extractor {
	return &Extractor{
		strategies: strategies,
		cache:      cache,
		logger:     logger,
	}
}

// Extract returns Markdown text for the document, from cache when possible,
// otherwise from the first strategy that produces usable text.
func (e *Extractor) Extract(ctx context.Context, data, filename, credential string, key *CacheKey) string {
	if key != nil && e.cache != nil {
		if text, ok := e.cache.GetTranscription(ctx, key.ConversationID, key.Filename); ok {
			return text
		}
	}

	for _, strategy := range e.strategies {
		text, err := strategy.Extract(ctx, data, filename, credential)
		if err != nil {
			e.logger.Warn("extraction strategy failed",
				"strategy", strategy.Name(),
				"file", filename,
				"error", err,
			)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		if strategy.Cacheable() && key != nil && e.cache != nil {
			if err := e.cache.PutTranscription(ctx, key.ConversationID, key.Filename, text); err != nil {
				e.logger.Warn("failed to cache transcription", "file", filename, "error", err)
			}
		}
		return text
	}

	e.logger.Warn("all extraction strategies failed", "file", filename)
	return ExtractionUnavailable
}
