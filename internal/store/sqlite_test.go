package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/qstorm/internal/question"
	"github.com/kingrea/qstorm/internal/session"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertAndListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		err := s.InsertSession(ctx, Record{
			Scenario:  fmt.Sprintf("challenge %d", i),
			IsParadox: i == 1,
			Questions: []question.Question{{ID: "q", Text: "why?", Starred: i == 2}},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	records, err := s.ListSessions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "challenge 2", records[0].Scenario)
	assert.Equal(t, "challenge 1", records[1].Scenario)
	assert.Equal(t, "challenge 0", records[2].Scenario)
	assert.True(t, records[1].IsParadox)
	assert.NotEmpty(t, records[0].ID)
	assert.Equal(t, 1, records[0].StarredCount())
	assert.True(t, records[0].CreatedAt.Equal(base.Add(2*time.Minute)))
	require.Len(t, records[2].Questions, 1)
	assert.Equal(t, "why?", records[2].Questions[0].Text)
}

func TestListRespectsLimit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.InsertSession(ctx, Record{Scenario: "x", CreatedAt: time.Now().Add(time.Duration(i) * time.Second)}))
	}
	records, err := s.ListSessions(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestDeleteSession(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.InsertSession(ctx, Record{ID: "keep", Scenario: "a"}))
	require.NoError(t, s.InsertSession(ctx, Record{ID: "drop", Scenario: "b"}))

	require.NoError(t, s.DeleteSession(ctx, "drop"))
	assert.ErrorIs(t, s.DeleteSession(ctx, "drop"), ErrNotFound)

	records, err := s.ListSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "keep", records[0].ID)
}

func TestInsertDuplicateIDFails(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.InsertSession(ctx, Record{ID: "same", Scenario: "a"}))
	assert.Error(t, s.InsertSession(ctx, Record{ID: "same", Scenario: "b"}))
}

func TestOpenSQLiteOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "sessions.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.InsertSession(context.Background(), Record{Scenario: "persisted"}))
	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()
	records, err := reopened.ListSessions(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "persisted", records[0].Scenario)
}

func TestRecordFromSession(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))
	sess := session.Session{
		Phase:         session.PhaseReview,
		Scenario:      "s",
		IsParadoxMode: true,
		Questions:     []question.Question{{ID: "1", Text: "why?"}},
	}
	rec := RecordFromSession(sess, now)
	assert.Empty(t, rec.ID)
	assert.Equal(t, "s", rec.Scenario)
	assert.True(t, rec.IsParadox)
	assert.Equal(t, time.UTC, rec.CreatedAt.Location())
	sess.Questions[0].Text = "mutated"
	assert.Equal(t, "why?", rec.Questions[0].Text)
}
