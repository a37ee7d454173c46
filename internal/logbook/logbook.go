// Package logbook keeps the journey log: one line per transition, store
// result or recovered error, so a storm can be reconstructed after the TUI
// has closed.
package logbook

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// tailCache is how many recent lines Tail keeps in memory by default.
const tailCache = 64

// Level represents the severity of a log entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logbook appends entries to a text file. It is safe to use from the
// detached store commands as well as the event loop.
type Logbook struct {
	path  string
	clock func() time.Time
	mu    sync.Mutex

	tail   []string
	total  int
	keep   int
	cached bool
}

// New creates a logbook that writes to the provided path.
func New(path string) (*Logbook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logbook: ensure dir: %w", err)
	}
	return &Logbook{path: path, clock: time.Now}, nil
}

// Path returns the file backing this logbook.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Append writes a single entry. Multi-line messages are folded onto one line.
func (l *Logbook) Append(level Level, scope, message string) {
	if l == nil {
		return
	}
	message = strings.Join(strings.Fields(message), " ")
	if scope != "" {
		message = fmt.Sprintf("[%s] %s", scope, message)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	line := fmt.Sprintf("%s %-5s %s\n", l.clock().UTC().Format(time.RFC3339), string(level), message)
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer file.Close()
	if _, err := file.WriteString(line); err != nil {
		return
	}
	if l.cached {
		l.total++
		l.push(strings.TrimSuffix(line, "\n"))
	}
}

// Tail returns up to maxLines of the most recent entries and the total
// number of entries in the file. The file is read once; later entries come
// from the in-memory tail that Append keeps current.
func (l *Logbook) Tail(maxLines int) ([]string, int) {
	if l == nil || maxLines <= 0 {
		return nil, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.cached || maxLines > l.keep {
		if err := l.load(max(maxLines, tailCache)); err != nil {
			return nil, 0
		}
	}
	if len(l.tail) == 0 {
		return nil, l.total
	}
	start := max(0, len(l.tail)-maxLines)
	return append([]string(nil), l.tail[start:]...), l.total
}

// load scans the file once, keeping the last keep lines. Callers hold mu.
func (l *Logbook) load(keep int) error {
	l.tail = make([]string, 0, keep)
	l.total = 0
	l.keep = keep
	file, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		l.cached = true
		return nil
	}
	if err != nil {
		l.cached = false
		return err
	}
	defer file.Close()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		l.total++
		l.push(scanner.Text())
	}
	l.cached = true
	return nil
}

func (l *Logbook) push(line string) {
	if len(l.tail) == l.keep {
		l.tail = append(l.tail[1:], line)
		return
	}
	l.tail = append(l.tail, line)
}

// Info appends an informational entry.
func (l *Logbook) Info(format string, args ...any) {
	l.Append(LevelInfo, "", fmt.Sprintf(format, args...))
}

// Warn appends a warning entry.
func (l *Logbook) Warn(format string, args ...any) {
	l.Append(LevelWarn, "", fmt.Sprintf(format, args...))
}

// Error appends an error entry.
func (l *Logbook) Error(format string, args ...any) {
	l.Append(LevelError, "", fmt.Sprintf(format, args...))
}

// Scope returns a writer that tags every entry with name.
func (l *Logbook) Scope(name string) Scoped {
	return Scoped{book: l, name: name}
}

// Scoped is a logbook view that prefixes entries with a component name.
type Scoped struct {
	book *Logbook
	name string
}

// Info appends an informational entry.
func (s Scoped) Info(format string, args ...any) {
	s.book.Append(LevelInfo, s.name, fmt.Sprintf(format, args...))
}

// Warn appends a warning entry.
func (s Scoped) Warn(format string, args ...any) {
	s.book.Append(LevelWarn, s.name, fmt.Sprintf(format, args...))
}

// Error appends an error entry.
func (s Scoped) Error(format string, args ...any) {
	s.book.Append(LevelError, s.name, fmt.Sprintf(format, args...))
}
