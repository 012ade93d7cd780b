package fsstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"pollichat/internal/domain"
	"pollichat/internal/domain/models"
	"pollichat/internal/domain/repositories"
)

const (
	chatFileName    = "chat.json"
	dirTimestampFmt = "2006-01-02_15-04"
)

// Store persists each conversation as one directory under the root:
// <timestamp>_<slugified-title>_<id>, containing chat.json and optional
// <attachment>.transcription.md cache files.
type Store struct {
	root   string
	logger *slog.Logger

	// Guards load-modify-write cycles. The system is single-writer per
	// conversation; this only serializes mutations within the process.
	mu sync.Mutex
}

// New creates a filesystem store rooted at dir, creating it if needed.
func New(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chats directory: %w", err)
	}
	return &Store{root: dir, logger: logger}, nil
}

var _ repositories.ConversationRepository = (*Store)(nil)
var _ repositories.TranscriptionCache = (*Store)(nil)

// List returns summaries ordered by most-recent-update descending. A corrupt
// or unreadable record only drops that one conversation from the listing.
func (s *Store) List(ctx context.Context) ([]models.ConversationSummary, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	summaries := make([]models.ConversationSummary, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		conv, err := s.readConversation(entry.Name())
		if err != nil {
			s.logger.Warn("skipping unreadable conversation record",
				"dir", entry.Name(),
				"error", err,
			)
			continue
		}
		summaries = append(summaries, models.ConversationSummary{
			ID:        conv.ID,
			Title:     conv.Title,
			Model:     conv.Model,
			TurnCount: len(conv.Turns),
			UpdatedAt: conv.UpdatedAt,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})

	return summaries, nil
}

// Get retrieves a full conversation by identifier.
func (s *Store) Get(ctx context.Context, id string) (*models.Conversation, error) {
	dir, ok, err := s.findDir(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	return s.readConversation(dir)
}

// CreateOrFind returns the stored conversation for id, creating an empty
// record when none exists yet.
func (s *Store) CreateOrFind(ctx context.Context, id, title, model string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir, ok, err := s.findDir(id)
	if err != nil {
		return nil, err
	}
	if ok {
		return s.readConversation(dir)
	}

	now := time.Now().UTC()
	if title == "" {
		title = "New Chat"
	}
	conv := &models.Conversation{
		ID:        id,
		Title:     title,
		Model:     model,
		Turns:     []models.Turn{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	dir = fmt.Sprintf("%s_%s_%s", now.Format(dirTimestampFmt), slugify(title), id)
	if err := os.MkdirAll(filepath.Join(s.root, dir), 0o755); err != nil {
		return nil, fmt.Errorf("create conversation directory: %w", err)
	}
	if err := s.writeConversation(dir, conv); err != nil {
		return nil, err
	}

	s.logger.Info("conversation created", "id", id, "title", title, "model", model)
	return conv, nil
}

// AppendTurn appends one turn and bumps the update timestamp.
func (s *Store) AppendTurn(ctx context.Context, id string, turn models.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir, ok, err := s.findDir(id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}

	conv, err := s.readConversation(dir)
	if err != nil {
		return err
	}

	conv.Turns = append(conv.Turns, turn)
	conv.UpdatedAt = time.Now().UTC()

	return s.writeConversation(dir, conv)
}

// Delete removes the whole record. Absent records are a success (idempotent).
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir, ok, err := s.findDir(id)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if err := os.RemoveAll(filepath.Join(s.root, dir)); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}

	s.logger.Info("conversation deleted", "id", id)
	return nil
}

// GetTranscription reads a cached PDF transcription for the attachment.
func (s *Store) GetTranscription(ctx context.Context, conversationID, filename string) (string, bool) {
	dir, ok, err := s.findDir(conversationID)
	if err != nil || !ok {
		return "", false
	}

	data, err := os.ReadFile(filepath.Join(s.root, dir, transcriptionFileName(filename)))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// PutTranscription stores a PDF transcription next to chat.json. Two racing
// writes of the same content are harmless.
func (s *Store) PutTranscription(ctx context.Context, conversationID, filename, text string) error {
	dir, ok, err := s.findDir(conversationID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("conversation %s: %w", conversationID, domain.ErrNotFound)
	}

	path := filepath.Join(s.root, dir, transcriptionFileName(filename))
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write transcription cache: %w", err)
	}
	return nil
}

// findDir locates the conversation directory by substring match on the
// folder name, which embeds the identifier alongside a human-readable slug.
func (s *Store) findDir(id string) (string, bool, error) {
	if id == "" {
		return "", false, nil
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return "", false, fmt.Errorf("scan chats directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() && strings.Contains(entry.Name(), id) {
			return entry.Name(), true, nil
		}
	}
	return "", false, nil
}

func (s *Store) readConversation(dir string) (*models.Conversation, error) {
	data, err := os.ReadFile(filepath.Join(s.root, dir, chatFileName))
	if err != nil {
		return nil, fmt.Errorf("read conversation record: %w", err)
	}

	var conv models.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("parse conversation record: %w", err)
	}
	return &conv, nil
}

// writeConversation writes chat.json atomically via temp file + rename, so a
// crash mid-write never leaves a truncated record behind.
func (s *Store) writeConversation(dir string, conv *models.Conversation) error {
	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return fmt.Errorf("encode conversation record: %w", err)
	}

	target := filepath.Join(s.root, dir, chatFileName)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write conversation record: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("commit conversation record: %w", err)
	}
	return nil
}

func transcriptionFileName(attachment string) string {
	// filepath.Base strips any path components a hostile filename could carry
	return filepath.Base(attachment) + ".transcription.md"
}

// slugify reduces a title to a filesystem-safe slug, matching the on-disk
// naming convention <timestamp>_<slug>_<id>.
func slugify(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
