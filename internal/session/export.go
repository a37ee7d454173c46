package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Export renders the review as a plain text document: starred questions
// first, then the rest, numbered continuously.
func Export(s Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Challenge: %s\n\n", s.Scenario)

	starred := s.Starred()
	b.WriteString("--- TOP 3 QUESTIONS ---\n")
	for i, q := range starred {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q.Text)
	}

	b.WriteString("\n--- OTHER QUESTIONS ---\n")
	for i, q := range s.Unstarred() {
		fmt.Fprintf(&b, "%d. %s\n", i+1+len(starred), q.Text)
	}
	return b.String()
}

// ExportFileName returns the timestamped name of an export written at now.
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("question-storm-%s.txt", now.Format("2006-01-02-150405"))
}

// WriteExport writes Export(s) into dir and returns the file path.
func WriteExport(dir string, s Session, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("session: export dir: %w", err)
	}
	path := filepath.Join(dir, ExportFileName(now))
	if err := os.WriteFile(path, []byte(Export(s)), 0o644); err != nil {
		return "", fmt.Errorf("session: write export: %w", err)
	}
	return path, nil
}
