package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pollichat/internal/capabilities"
	"pollichat/internal/domain/models"
	"pollichat/internal/service/extract"
	"pollichat/internal/service/skills"
)

// stubExtractor returns canned text and records calls
type stubExtractor struct {
	text  string
	calls int
}

func (s *stubExtractor) Extract(ctx context.Context, data, filename, credential string, key *extract.CacheKey) string {
	s.calls++
	return s.text
}

func newTestAssembler(t *testing.T, extractor DocumentExtractor) *Assembler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	capabilityRegistry, err := capabilities.NewRegistry()
	if err != nil {
		t.Fatalf("Failed to create capability registry: %v", err)
	}
	// Point at a directory with no skill files
	skillLoader := skills.NewLoader(filepath.Join(t.TempDir(), "skills"), logger)
	return NewAssembler(skillLoader, extractor, capabilityRegistry, logger)
}

func makeTurns(n int) []models.Turn {
	turns := make([]models.Turn, n)
	for i := range turns {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		turns[i] = models.Turn{
			ID:      fmt.Sprintf("turn-%d", i),
			Role:    role,
			Content: models.TextContent(fmt.Sprintf("message %d", i)),
		}
	}
	return turns
}

func TestPruneHistory_UnderThreshold(t *testing.T) {
	turns := makeTurns(20)
	pruned := PruneHistory(turns)
	if len(pruned) != 20 {
		t.Fatalf("expected 20 turns untouched, got %d", len(pruned))
	}
	for i := range pruned {
		if pruned[i].ID != turns[i].ID {
			t.Errorf("turn %d changed identity: %s", i, pruned[i].ID)
		}
	}
}

func TestPruneHistory_CompressesMiddle(t *testing.T) {
	turns := makeTurns(30)
	pruned := PruneHistory(turns)

	// 2 head + 1 note + 15 tail
	if len(pruned) != 18 {
		t.Fatalf("expected 18 entries after pruning, got %d", len(pruned))
	}

	if pruned[0].ID != "turn-0" || pruned[1].ID != "turn-1" {
		t.Errorf("head turns not preserved: %s, %s", pruned[0].ID, pruned[1].ID)
	}

	note := pruned[2]
	if note.Role != models.RoleSystem {
		t.Errorf("expected pruning note to have system role, got %q", note.Role)
	}
	if note.Content.PlainText() != prunedHistoryNote {
		t.Errorf("unexpected note content: %q", note.Content.PlainText())
	}

	if pruned[3].ID != "turn-15" {
		t.Errorf("expected tail to start at turn-15, got %s", pruned[3].ID)
	}
	if pruned[17].ID != "turn-29" {
		t.Errorf("expected tail to end at turn-29, got %s", pruned[17].ID)
	}
}

func TestAssemble_AddsSystemMessageOnce(t *testing.T) {
	assembler := newTestAssembler(t, &stubExtractor{})
	history := makeTurns(4)

	messages, err := assembler.Assemble(context.Background(), history, "claude-large", nil, "", "key")
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	if len(messages) != 5 {
		t.Fatalf("expected 5 messages (system + 4 turns), got %d", len(messages))
	}
	if messages[0].Role != models.RoleSystem {
		t.Errorf("expected leading system message, got role %q", messages[0].Role)
	}
	for i, m := range messages[1:] {
		if m.Role == models.RoleSystem {
			t.Errorf("unexpected second system message at index %d", i+1)
		}
	}
}

func TestAssemble_SkipsSystemMessageWhenHistoryHasOne(t *testing.T) {
	assembler := newTestAssembler(t, &stubExtractor{})
	history := []models.Turn{
		{Role: models.RoleSystem, Content: models.TextContent("You are terse.")},
		{Role: models.RoleUser, Content: models.TextContent("hi")},
	}

	messages, err := assembler.Assemble(context.Background(), history, "claude-large", nil, "", "key")
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	systemCount := 0
	for _, m := range messages {
		if m.Role == models.RoleSystem {
			systemCount++
		}
	}
	if systemCount != 1 {
		t.Fatalf("expected exactly one system message, got %d", systemCount)
	}
	if messages[0].Content.PlainText() != "You are terse." {
		t.Errorf("history's own system message was replaced: %q", messages[0].Content.PlainText())
	}
}

func TestAssemble_NativeDocumentRouting(t *testing.T) {
	extractor := &stubExtractor{text: "should not be used"}
	assembler := newTestAssembler(t, extractor)

	history := []models.Turn{{Role: models.RoleUser, Content: models.TextContent("summarize this")}}
	attachments := []models.Attachment{
		{Kind: models.AttachmentDocument, Name: "a.pdf", Data: "cGRmYnl0ZXM="},
	}

	messages, err := assembler.Assemble(context.Background(), history, "claude-large", attachments, "conv-1", "key")
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	last := messages[len(messages)-1]
	if !last.Content.IsParts() {
		t.Fatalf("expected multimodal content on the current turn")
	}

	var filePart *models.FileData
	for _, p := range last.Content.Parts() {
		if p.Type == models.PartTypeFile {
			filePart = p.File
		}
	}
	if filePart == nil {
		t.Fatalf("expected a native file part for a document-capable model")
	}
	if filePart.Name != "a.pdf" || filePart.MIMEType != "application/pdf" {
		t.Errorf("unexpected file part: %+v", filePart)
	}
	if extractor.calls != 0 {
		t.Errorf("extractor should not run for a document-capable model, ran %d times", extractor.calls)
	}
}

func TestAssemble_ExtractedDocumentRouting(t *testing.T) {
	extractor := &stubExtractor{text: "Page 1 text"}
	assembler := newTestAssembler(t, extractor)

	history := []models.Turn{{Role: models.RoleUser, Content: models.TextContent("summarize this")}}
	attachments := []models.Attachment{
		{Kind: models.AttachmentDocument, Name: "a.pdf", Data: "cGRmYnl0ZXM="},
	}

	messages, err := assembler.Assemble(context.Background(), history, "deepseek", attachments, "conv-1", "key")
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	last := messages[len(messages)-1]
	var combined strings.Builder
	for _, p := range last.Content.Parts() {
		if p.Type == models.PartTypeText {
			combined.WriteString(p.Text)
		}
		if p.Type == models.PartTypeFile {
			t.Errorf("text-only model must not receive a native file part")
		}
	}
	if !strings.Contains(combined.String(), "[DOCUMENT: a.pdf]\nPage 1 text\n[END]") {
		t.Errorf("expected delimited document block, got: %q", combined.String())
	}
	if extractor.calls != 1 {
		t.Errorf("expected exactly one extraction call, got %d", extractor.calls)
	}
}

func TestAssemble_ImageAttachment(t *testing.T) {
	assembler := newTestAssembler(t, &stubExtractor{})

	history := []models.Turn{{Role: models.RoleUser, Content: models.TextContent("what is this")}}
	attachments := []models.Attachment{
		{Kind: models.AttachmentImage, Name: "pic.png", URL: "data:image/png;base64,aW1n"},
	}

	messages, err := assembler.Assemble(context.Background(), history, "claude-large", attachments, "", "key")
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	last := messages[len(messages)-1]
	found := false
	for _, p := range last.Content.Parts() {
		if p.Type == models.PartTypeImage && p.ImageURL == "data:image/png;base64,aW1n" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an image part carrying the data URI")
	}
}

func TestAssemble_EmptyHistoryWithAttachment(t *testing.T) {
	assembler := newTestAssembler(t, &stubExtractor{text: "content"})

	attachments := []models.Attachment{
		{Kind: models.AttachmentDocument, Name: "a.pdf", Data: "cGRmYnl0ZXM="},
	}
	messages, err := assembler.Assemble(context.Background(), nil, "claude-large", attachments, "", "key")
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	// System message plus a synthesized user message
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[1].Role != models.RoleUser {
		t.Errorf("expected synthesized user message, got role %q", messages[1].Role)
	}
	if !messages[1].Content.IsParts() {
		t.Errorf("synthesized message should carry the attachment parts")
	}
}

func TestAssemble_RejectsUnknownRole(t *testing.T) {
	assembler := newTestAssembler(t, &stubExtractor{})
	history := []models.Turn{{Role: "tool", Content: models.TextContent("x")}}

	if _, err := assembler.Assemble(context.Background(), history, "claude-large", nil, "", "key"); err == nil {
		t.Fatalf("expected an error for an unsupported role")
	}
}

func TestAssemble_EmptyHistoryNoAttachments(t *testing.T) {
	assembler := newTestAssembler(t, &stubExtractor{})

	messages, err := assembler.Assemble(context.Background(), nil, "claude-large", nil, "", "key")
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if len(messages) != 1 || messages[0].Role != models.RoleSystem {
		t.Fatalf("expected only the system message, got %d messages", len(messages))
	}
}
