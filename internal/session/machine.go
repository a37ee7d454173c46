package session

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kingrea/qstorm/internal/paradox"
	"github.com/kingrea/qstorm/internal/question"
	"github.com/kingrea/qstorm/internal/timer"
)

// Options configures a Machine. Zero values fall back to package defaults.
type Options struct {
	Validator       *question.Validator
	Constraints     []string
	DefaultDuration int
	NewID           func() string
}

// Machine owns phase transitions and the question list. It is not safe for
// concurrent use; the event loop is its only caller.
type Machine struct {
	session         Session
	validator       *question.Validator
	constraints     []string
	defaultDuration int
	newID           func() string

	countdown *timer.Countdown
	rotator   *paradox.Rotator
}

// NewMachine returns a machine holding a default setup session.
func NewMachine(opts Options) *Machine {
	m := &Machine{
		validator:       opts.Validator,
		constraints:     opts.Constraints,
		defaultDuration: opts.DefaultDuration,
		newID:           opts.NewID,
	}
	if m.validator == nil {
		m.validator = question.NewValidator(nil, nil)
	}
	if len(m.constraints) == 0 {
		m.constraints = paradox.DefaultConstraints
	}
	if !timer.ValidDuration(m.defaultDuration) {
		m.defaultDuration = timer.DefaultDuration
	}
	if m.newID == nil {
		m.newID = func() string { return uuid.NewString() }
	}
	m.session = Default(m.defaultDuration)
	return m
}

// Session returns a copy of the current state.
func (m *Machine) Session() Session {
	return m.session.Clone()
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	return m.session.Phase
}

// DefaultDuration is the storm length a reset restores.
func (m *Machine) DefaultDuration() int {
	return m.defaultDuration
}

// Remaining returns the seconds left in the active storm.
func (m *Machine) Remaining() int {
	return m.countdown.Remaining()
}

// Clock renders the time left in the active storm as m:ss.
func (m *Machine) Clock() string {
	return m.countdown.String()
}

// Urgent reports whether the active storm is under threshold seconds.
func (m *Machine) Urgent(threshold int) bool {
	return m.countdown != nil && m.countdown.Urgent(threshold)
}

// ActiveConstraint returns the paradox constraint new questions receive.
func (m *Machine) ActiveConstraint() (string, bool) {
	return m.rotator.Current()
}

// Active reports whether stormID names the storm currently running.
func (m *Machine) Active(stormID string) bool {
	return m.session.Phase == PhaseStorming &&
		stormID != "" &&
		stormID == m.session.StormID &&
		m.countdown != nil
}

// Start moves from setup into a fresh storm.
func (m *Machine) Start(scenario string, paradoxMode bool, duration int) error {
	if m.session.Phase != PhaseSetup {
		return fmt.Errorf("start from %s: %w", m.session.Phase, ErrWrongPhase)
	}
	scenario = strings.TrimSpace(scenario)
	if scenario == "" {
		return ErrEmptyScenario
	}
	if !timer.ValidDuration(duration) {
		return fmt.Errorf("%w: %ds (allowed %d-%d)", ErrDurationOutOfRange, duration, timer.MinDuration, timer.MaxDuration)
	}
	m.session = Session{
		Phase:         PhaseStorming,
		Scenario:      scenario,
		Questions:     []question.Question{},
		IsParadoxMode: paradoxMode,
		Duration:      duration,
		Remaining:     duration,
		StormID:       m.newID(),
	}
	m.countdown = timer.New(duration)
	m.rotator = paradox.NewRotator(m.constraints, paradoxMode)
	return nil
}

// Submit validates text and appends it as a question.
func (m *Machine) Submit(text string) (question.Question, error) {
	if m.session.Phase != PhaseStorming {
		return question.Question{}, fmt.Errorf("submit in %s: %w", m.session.Phase, ErrWrongPhase)
	}
	if err := m.validator.Check(text, m.session.IsParadoxMode); err != nil {
		return question.Question{}, err
	}
	q := question.Question{
		ID:   m.newID(),
		Text: strings.TrimSpace(text),
	}
	if constraint, ok := m.rotator.Current(); ok {
		q.ParadoxConstraint = constraint
	}
	m.session.Questions = append(m.session.Questions, q)
	return q, nil
}

// Tick consumes one second of the storm identified by stormID. When that
// second ends the storm it moves to review and returns the frozen session;
// the second return value is true exactly once per storm. Ticks for any other
// storm, or arriving after the storm ended, change nothing.
func (m *Machine) Tick(stormID string) (Session, bool) {
	if !m.Active(stormID) {
		return Session{}, false
	}
	expired := m.countdown.Tick()
	m.session.Remaining = m.countdown.Remaining()
	if !expired {
		return Session{}, false
	}
	m.endStorm()
	m.session.Phase = PhaseReview
	return m.session.Clone(), true
}

// Rotate advances the paradox constraint of the storm identified by stormID.
// It returns false when there is nothing to rotate, which also tells the
// caller to stop scheduling rotations.
func (m *Machine) Rotate(stormID string) bool {
	if !m.Active(stormID) || !m.rotator.Enabled() {
		return false
	}
	m.rotator.Advance()
	m.session.ConstraintIndex = m.rotator.Index()
	return true
}

// ToggleStar flips the starred flag of one question. A fourth star is
// refused with ErrStarLimit; unstarring always succeeds.
func (m *Machine) ToggleStar(id string) error {
	if m.session.Phase != PhaseReview {
		return fmt.Errorf("star in %s: %w", m.session.Phase, ErrWrongPhase)
	}
	for i := range m.session.Questions {
		q := &m.session.Questions[i]
		if q.ID != id {
			continue
		}
		if !q.Starred && m.session.StarredCount() >= MaxStars {
			return ErrStarLimit
		}
		q.Starred = !q.Starred
		return nil
	}
	return fmt.Errorf("%w: %s", ErrQuestionNotFound, id)
}

// Proceed moves from review to analysis, keeping the star state.
func (m *Machine) Proceed() error {
	if m.session.Phase != PhaseReview {
		return fmt.Errorf("proceed from %s: %w", m.session.Phase, ErrWrongPhase)
	}
	m.session.Phase = PhaseAnalysis
	return nil
}

// Back returns from analysis to review.
func (m *Machine) Back() error {
	if m.session.Phase != PhaseAnalysis {
		return fmt.Errorf("back from %s: %w", m.session.Phase, ErrWrongPhase)
	}
	m.session.Phase = PhaseReview
	return nil
}

// OpenHistory switches from setup to the history view.
func (m *Machine) OpenHistory() error {
	if m.session.Phase != PhaseSetup {
		return fmt.Errorf("history from %s: %w", m.session.Phase, ErrWrongPhase)
	}
	m.session.Phase = PhaseHistory
	return nil
}

// Reset discards everything and returns to a default setup session. Any
// storm in flight is cancelled.
func (m *Machine) Reset() {
	m.endStorm()
	m.session = Default(m.defaultDuration)
}

// Restore adopts a session loaded from the state slot. An interrupted storm
// resumes with the time it had left.
func (m *Machine) Restore(s Session) {
	m.endStorm()
	s = s.Clone()
	if !s.Phase.Valid() {
		s = Default(m.defaultDuration)
	}
	if s.Phase == PhaseStorming {
		if s.StormID == "" {
			s.StormID = m.newID()
		}
		m.countdown = timer.New(s.Remaining)
		m.rotator = paradox.NewRotator(m.constraints, s.IsParadoxMode)
		m.rotator.Seek(s.ConstraintIndex)
		s.ConstraintIndex = m.rotator.Index()
	}
	m.session = s
}

func (m *Machine) endStorm() {
	m.countdown = nil
	m.rotator = nil
	m.session.Remaining = 0
	m.session.ConstraintIndex = 0
	m.session.StormID = ""
}
