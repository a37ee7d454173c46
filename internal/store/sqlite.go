package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/kingrea/qstorm/internal/question"
)

const schema = `
CREATE TABLE IF NOT EXISTS storm_sessions (
	id TEXT PRIMARY KEY,
	scenario TEXT NOT NULL,
	is_paradox BOOLEAN NOT NULL DEFAULT 0,
	questions TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_storm_sessions_created_at ON storm_sessions(created_at DESC);
`

// SQLiteStore implements Gateway on a local SQLite database.
type SQLiteStore struct {
	db    *sql.DB
	newID func() string
}

// OpenSQLite opens (creating if needed) the database at path. Use ":memory:"
// for a throwaway store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: create db directory: %w", err)
		}
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	// the insert runs off the event loop; one connection keeps :memory: shared
	// and serializes writers.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}
	return &SQLiteStore{db: db, newID: uuid.NewString}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// InsertSession appends rec. A missing id or timestamp is filled in.
func (s *SQLiteStore) InsertSession(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = s.newID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	questions := rec.Questions
	if questions == nil {
		questions = []question.Question{}
	}
	encoded, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("store: encode questions: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO storm_sessions (id, scenario, is_paradox, questions, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, rec.ID, rec.Scenario, rec.IsParadox, string(encoded), rec.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("store: insert session: %w", err)
	}
	return nil
}

// ListSessions returns up to limit records, newest first.
func (s *SQLiteStore) ListSessions(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scenario, is_paradox, questions, created_at
		FROM storm_sessions
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list sessions: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec     Record
			encoded string
		)
		if err := rows.Scan(&rec.ID, &rec.Scenario, &rec.IsParadox, &encoded, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan session: %w", err)
		}
		if strings.TrimSpace(encoded) != "" {
			if err := json.Unmarshal([]byte(encoded), &rec.Questions); err != nil {
				return nil, fmt.Errorf("store: decode questions of %s: %w", rec.ID, err)
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list sessions: %w", err)
	}
	return records, nil
}

// DeleteSession removes the record with id.
func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM storm_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
