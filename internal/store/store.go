// internal/store/store.go
//
// The persistence gateway: an append-only collection of finished sessions
// with list and delete. The UI talks to the Gateway interface only.

package store

import (
	"context"
	"errors"
	"time"

	"github.com/kingrea/qstorm/internal/question"
	"github.com/kingrea/qstorm/internal/session"
)

// DefaultListLimit caps how many records the history view asks for.
const DefaultListLimit = 50

// ErrNotFound is returned when deleting an id that does not exist.
var ErrNotFound = errors.New("store: record not found")

// Record is the stored snapshot of one finished session.
type Record struct {
	ID        string
	Scenario  string
	IsParadox bool
	Questions []question.Question
	CreatedAt time.Time
}

// Gateway is the remote store of finished sessions.
type Gateway interface {
	InsertSession(ctx context.Context, rec Record) error
	ListSessions(ctx context.Context, limit int) ([]Record, error)
	DeleteSession(ctx context.Context, id string) error
}

// RecordFromSession cuts a record out of a finished session. The id is left
// for the gateway to assign.
func RecordFromSession(s session.Session, now time.Time) Record {
	s = s.Clone()
	return Record{
		Scenario:  s.Scenario,
		IsParadox: s.IsParadoxMode,
		Questions: s.Questions,
		CreatedAt: now.UTC(),
	}
}

// StarredCount returns how many of the record's questions were starred.
func (r Record) StarredCount() int {
	n := 0
	for _, q := range r.Questions {
		if q.Starred {
			n++
		}
	}
	return n
}
