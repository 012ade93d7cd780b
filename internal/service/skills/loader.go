package skills

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Loader reads skill documents (Markdown instruction files) from a directory
// and concatenates them into a single instruction block. Skills are
// independent instructions, not a sequence; directory-listing order is fine.
type Loader struct {
	dir    string
	logger *slog.Logger
}

// NewLoader creates a skill loader for the given directory.
func NewLoader(dir string, logger *slog.Logger) *Loader {
	return &Loader{dir: dir, logger: logger}
}

// Load concatenates every Markdown skill file with a header identifying its
// source. A missing or unreadable directory yields an empty string: the
// system stays usable with zero skills configured.
func (l *Loader) Load() string {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return ""
	}

	var b strings.Builder
	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		content, err := os.ReadFile(filepath.Join(l.dir, entry.Name()))
		if err != nil {
			l.logger.Warn("failed to read skill file", "file", entry.Name(), "error", err)
			continue
		}
		fmt.Fprintf(&b, "--- SKILL: %s ---\n%s\n\n", entry.Name(), content)
		loaded++
	}

	if loaded > 0 {
		l.logger.Debug("skills loaded", "count", loaded, "dir", l.dir)
	}
	return b.String()
}
