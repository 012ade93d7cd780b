package skills

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func TestLoad_MissingDirectory(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "does-not-exist"), testLogger())

	if got := loader.Load(); got != "" {
		t.Fatalf("missing directory should yield an empty block, got %q", got)
	}
}

func TestLoad_ConcatenatesMarkdownFiles(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"accounting.md": "You know double-entry bookkeeping.",
		"tax.md":        "You know Spanish tax law.",
		"notes.txt":     "not a skill",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	block := NewLoader(dir, testLogger()).Load()

	if !strings.Contains(block, "--- SKILL: accounting.md ---\nYou know double-entry bookkeeping.") {
		t.Errorf("accounting skill missing or malformed:\n%s", block)
	}
	if !strings.Contains(block, "--- SKILL: tax.md ---\nYou know Spanish tax law.") {
		t.Errorf("tax skill missing or malformed:\n%s", block)
	}
	if strings.Contains(block, "not a skill") {
		t.Errorf("non-Markdown file leaked into the skill block")
	}
}

func TestLoad_IgnoresSubdirectories(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "archive.md"), 0o755); err != nil {
		t.Fatalf("Failed to create subdirectory: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "real.md"), []byte("skill"), 0o644); err != nil {
		t.Fatalf("Failed to write skill: %v", err)
	}

	block := NewLoader(dir, testLogger()).Load()
	if strings.Contains(block, "archive.md") {
		t.Errorf("directory entry treated as a skill file")
	}
	if !strings.Contains(block, "real.md") {
		t.Errorf("real skill file not loaded")
	}
}
