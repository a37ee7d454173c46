package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kingrea/qstorm/internal/question"
	"github.com/kingrea/qstorm/internal/timer"
)

// SchemaVersion is written into every encoded session.
//
//	1: phase, scenario, questions, isParadoxMode and (sometimes) duration
//	2: adds version, remaining, constraintIndex and stormId
const SchemaVersion = 2

var (
	// ErrCorrupt wraps anything that prevents a stored session from loading.
	ErrCorrupt = errors.New("session: stored state is corrupt")
	// ErrUnsupportedVersion is returned for state written by a newer build.
	ErrUnsupportedVersion = errors.New("session: unsupported schema version")
)

type storedSession struct {
	Version int `json:"version"`
	Session
}

// Encode serializes s with the current schema version.
func Encode(s Session) ([]byte, error) {
	return json.Marshal(storedSession{Version: SchemaVersion, Session: s})
}

// Decode parses an encoded session of any known schema version and migrates
// it to the current one.
func Decode(data []byte) (Session, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if fields == nil {
		return Session{}, fmt.Errorf("%w: null document", ErrCorrupt)
	}
	var stored storedSession
	if err := json.Unmarshal(data, &stored); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if stored.Version == 0 {
		stored.Version = 1
	}
	if stored.Version > SchemaVersion {
		return Session{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, stored.Version)
	}
	s := migrate(stored.Version, present(fields), stored.Session)
	if !s.Phase.Valid() {
		return Session{}, fmt.Errorf("%w: unknown phase %q", ErrCorrupt, s.Phase)
	}
	return s, nil
}

func present(fields map[string]json.RawMessage) func(string) bool {
	return func(name string) bool {
		raw, ok := fields[name]
		return ok && string(raw) != "null"
	}
}

// migrate upgrades a decoded session from version to SchemaVersion.
func migrate(version int, has func(string) bool, s Session) Session {
	if !has("duration") || s.Duration <= 0 {
		s.Duration = timer.DefaultDuration
	}
	if version < 2 && !has("remaining") {
		s.Remaining = s.Duration
	}
	if s.Questions == nil {
		s.Questions = []question.Question{}
	}
	if s.Phase == PhaseStorming && s.Remaining > s.Duration {
		s.Remaining = s.Duration
	}
	return s
}
