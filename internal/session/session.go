// internal/session/session.go
//
// Session is the whole of the application's state. It is what the state slot
// persists after every transition and what a stored record is cut from when a
// storm ends.

package session

import (
	"errors"

	"github.com/kingrea/qstorm/internal/question"
	"github.com/kingrea/qstorm/internal/timer"
)

// Phase names one stage of a session's lifecycle.
type Phase string

const (
	PhaseSetup    Phase = "SETUP"
	PhaseStorming Phase = "STORMING"
	PhaseReview   Phase = "REVIEW"
	PhaseAnalysis Phase = "ANALYSIS"
	PhaseHistory  Phase = "HISTORY"
)

// MaxStars is how many questions may be starred at once.
const MaxStars = 3

var (
	ErrWrongPhase         = errors.New("session: operation not allowed in this phase")
	ErrEmptyScenario      = errors.New("session: scenario is required")
	ErrDurationOutOfRange = errors.New("session: duration out of range")
	ErrStarLimit          = errors.New("session: star limit reached")
	ErrQuestionNotFound   = errors.New("session: question not found")
)

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	switch p {
	case PhaseSetup, PhaseStorming, PhaseReview, PhaseAnalysis, PhaseHistory:
		return true
	}
	return false
}

// FriendlyName is the label shown in the header.
func (p Phase) FriendlyName() string {
	switch p {
	case PhaseSetup:
		return "Setup"
	case PhaseStorming:
		return "Storming"
	case PhaseReview:
		return "Review"
	case PhaseAnalysis:
		return "Analysis"
	case PhaseHistory:
		return "History"
	}
	return "Unknown"
}

// Session is the serializable state of one brainstorm.
type Session struct {
	Phase         Phase               `json:"phase"`
	Scenario      string              `json:"scenario"`
	Questions     []question.Question `json:"questions"`
	IsParadoxMode bool                `json:"isParadoxMode"`
	Duration      int                 `json:"duration"`

	// Remaining, ConstraintIndex and StormID only matter while storming.
	Remaining       int    `json:"remaining,omitempty"`
	ConstraintIndex int    `json:"constraintIndex,omitempty"`
	StormID         string `json:"stormId,omitempty"`
}

// Default returns a fresh setup session.
func Default(duration int) Session {
	if duration <= 0 {
		duration = timer.DefaultDuration
	}
	return Session{
		Phase:     PhaseSetup,
		Questions: []question.Question{},
		Duration:  duration,
	}
}

// Clone returns a deep copy.
func (s Session) Clone() Session {
	out := s
	out.Questions = make([]question.Question, len(s.Questions))
	copy(out.Questions, s.Questions)
	return out
}

// StarredCount returns how many questions are starred.
func (s Session) StarredCount() int {
	n := 0
	for _, q := range s.Questions {
		if q.Starred {
			n++
		}
	}
	return n
}

// Starred returns the starred questions in list order.
func (s Session) Starred() []question.Question {
	var out []question.Question
	for _, q := range s.Questions {
		if q.Starred {
			out = append(out, q)
		}
	}
	return out
}

// Unstarred returns the remaining questions in list order.
func (s Session) Unstarred() []question.Question {
	var out []question.Question
	for _, q := range s.Questions {
		if !q.Starred {
			out = append(out, q)
		}
	}
	return out
}
