package session

import (
	"errors"
	"fmt"
	"testing"

	"github.com/kingrea/qstorm/internal/question"
)

func newTestMachine(t *testing.T, constraints ...string) *Machine {
	t.Helper()
	n := 0
	return NewMachine(Options{
		Constraints: constraints,
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
	})
}

func startStorm(t *testing.T, m *Machine, paradox bool, duration int) string {
	t.Helper()
	if err := m.Start("Why is onboarding slow?", paradox, duration); err != nil {
		t.Fatalf("start: %v", err)
	}
	return m.Session().StormID
}

func runToReview(t *testing.T, m *Machine, stormID string) Session {
	t.Helper()
	for i := 0; i < m.Session().Duration; i++ {
		if snap, done := m.Tick(stormID); done {
			return snap
		}
	}
	t.Fatalf("storm did not end")
	return Session{}
}

func TestNewMachineStartsInSetup(t *testing.T) {
	m := newTestMachine(t)
	s := m.Session()
	if s.Phase != PhaseSetup || s.Duration != 730 || len(s.Questions) != 0 {
		t.Fatalf("unexpected default session: %+v", s)
	}
}

func TestStartValidatesInput(t *testing.T) {
	m := newTestMachine(t)
	if err := m.Start("   ", false, 60); !errors.Is(err, ErrEmptyScenario) {
		t.Fatalf("blank scenario: got %v", err)
	}
	if err := m.Start("x", false, 9); !errors.Is(err, ErrDurationOutOfRange) {
		t.Fatalf("short duration: got %v", err)
	}
	if err := m.Start("x", false, 3601); !errors.Is(err, ErrDurationOutOfRange) {
		t.Fatalf("long duration: got %v", err)
	}
	if m.Phase() != PhaseSetup {
		t.Fatalf("failed start must not leave setup, got %s", m.Phase())
	}
	if err := m.Start("  a challenge  ", true, 10); err != nil {
		t.Fatalf("start: %v", err)
	}
	s := m.Session()
	if s.Phase != PhaseStorming || s.Scenario != "a challenge" || !s.IsParadoxMode || s.Duration != 10 || s.Remaining != 10 {
		t.Fatalf("unexpected storming session: %+v", s)
	}
	if s.StormID == "" {
		t.Fatalf("expected storm id")
	}
	if err := m.Start("again", false, 10); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("start while storming: got %v", err)
	}
}

func TestSubmitAppendsOnlyValidQuestions(t *testing.T) {
	m := newTestMachine(t)
	startStorm(t, m, false, 10)

	q, err := m.Submit("  What blocks new hires?  ")
	if err != nil {
		t.Fatalf("submit valid: %v", err)
	}
	if q.Text != "What blocks new hires?" || q.ParadoxConstraint != "" || q.Starred {
		t.Fatalf("unexpected question: %+v", q)
	}
	if _, err := m.Submit("fix it"); !errors.Is(err, question.ErrNotAQuestion) {
		t.Fatalf("submit invalid: got %v", err)
	}
	if _, err := m.Submit(""); !errors.Is(err, question.ErrEmpty) {
		t.Fatalf("submit empty: got %v", err)
	}
	if got := len(m.Session().Questions); got != 1 {
		t.Fatalf("questions = %d, want 1", got)
	}
}

func TestSubmitOutsideStormingIsRejected(t *testing.T) {
	m := newTestMachine(t)
	if _, err := m.Submit("why?"); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("got %v, want ErrWrongPhase", err)
	}
}

func TestTickEndsStormExactlyOnce(t *testing.T) {
	m := newTestMachine(t)
	id := startStorm(t, m, false, 10)
	if _, err := m.Submit("What blocks new hires?"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	fired := 0
	for i := 1; i <= 15; i++ {
		snap, done := m.Tick(id)
		if !done {
			continue
		}
		fired++
		if i != 10 {
			t.Fatalf("storm ended on tick %d, want 10", i)
		}
		if snap.Phase != PhaseReview || len(snap.Questions) != 1 {
			t.Fatalf("unexpected snapshot: %+v", snap)
		}
	}
	if fired != 1 {
		t.Fatalf("storm end fired %d times", fired)
	}
	if m.Phase() != PhaseReview {
		t.Fatalf("phase = %s, want review", m.Phase())
	}
	if _, err := m.Submit("Why?"); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("question list must be frozen after the storm, got %v", err)
	}
}

func TestStaleTicksAreIgnored(t *testing.T) {
	m := newTestMachine(t)
	first := startStorm(t, m, true, 10)
	m.Reset()
	second := startStorm(t, m, true, 10)
	if first == second {
		t.Fatalf("storm ids must differ")
	}
	for i := 0; i < 20; i++ {
		if _, done := m.Tick(first); done {
			t.Fatalf("stale tick ended the new storm")
		}
		if m.Rotate(first) {
			t.Fatalf("stale rotation applied")
		}
	}
	if m.Remaining() != 10 {
		t.Fatalf("stale ticks changed remaining to %d", m.Remaining())
	}
}

func TestResetCancelsStorm(t *testing.T) {
	m := newTestMachine(t)
	id := startStorm(t, m, true, 30)
	m.Tick(id)
	m.Submit("why?")
	m.Reset()
	s := m.Session()
	if s.Phase != PhaseSetup || s.Scenario != "" || len(s.Questions) != 0 || s.IsParadoxMode || s.Duration != 730 {
		t.Fatalf("reset left state behind: %+v", s)
	}
	if m.Active(id) {
		t.Fatalf("storm still active after reset")
	}
	if _, done := m.Tick(id); done {
		t.Fatalf("tick after reset must not end anything")
	}
}

func TestParadoxConstraintIsCapturedAtCreation(t *testing.T) {
	m := newTestMachine(t, "c0", "c1", "c2")
	id := startStorm(t, m, true, 100)
	if c, ok := m.ActiveConstraint(); !ok || c != "c0" {
		t.Fatalf("initial constraint = %q/%v", c, ok)
	}
	first, _ := m.Submit("why one?")
	if !m.Rotate(id) {
		t.Fatalf("rotate should apply in paradox mode")
	}
	second, _ := m.Submit("why two?")
	m.Rotate(id)
	m.Rotate(id)
	third, _ := m.Submit("if gravity stopped")

	if first.ParadoxConstraint != "c0" || second.ParadoxConstraint != "c1" || third.ParadoxConstraint != "c0" {
		t.Fatalf("constraints = %q %q %q", first.ParadoxConstraint, second.ParadoxConstraint, third.ParadoxConstraint)
	}
	stored := m.Session().Questions
	if stored[0].ParadoxConstraint != "c0" {
		t.Fatalf("earlier question changed retroactively: %q", stored[0].ParadoxConstraint)
	}
}

func TestRotationIndexAfterKIntervals(t *testing.T) {
	constraints := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for k := 0; k <= 20; k++ {
		m := newTestMachine(t, constraints...)
		id := startStorm(t, m, true, 3600)
		for i := 0; i < k; i++ {
			m.Rotate(id)
		}
		if got := m.Session().ConstraintIndex; got != k%len(constraints) {
			t.Fatalf("k=%d: index = %d, want %d", k, got, k%len(constraints))
		}
	}
}

func TestRotateIsInertWithoutParadoxMode(t *testing.T) {
	m := newTestMachine(t)
	id := startStorm(t, m, false, 100)
	if m.Rotate(id) {
		t.Fatalf("rotate applied outside paradox mode")
	}
	if _, ok := m.ActiveConstraint(); ok {
		t.Fatalf("no constraint expected outside paradox mode")
	}
	q, _ := m.Submit("why?")
	if q.ParadoxConstraint != "" {
		t.Fatalf("unexpected constraint %q", q.ParadoxConstraint)
	}
}

func TestToggleStarLimit(t *testing.T) {
	m := newTestMachine(t)
	id := startStorm(t, m, false, 10)
	for i := 0; i < 5; i++ {
		if _, err := m.Submit(fmt.Sprintf("why %d?", i)); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	snap := runToReview(t, m, id)
	ids := make([]string, len(snap.Questions))
	for i, q := range snap.Questions {
		ids[i] = q.ID
	}
	for _, qid := range ids[:3] {
		if err := m.ToggleStar(qid); err != nil {
			t.Fatalf("star %s: %v", qid, err)
		}
	}
	before := starredIDs(m.Session())
	if err := m.ToggleStar(ids[3]); !errors.Is(err, ErrStarLimit) {
		t.Fatalf("fourth star: got %v, want ErrStarLimit", err)
	}
	if after := starredIDs(m.Session()); fmt.Sprint(after) != fmt.Sprint(before) {
		t.Fatalf("starred set changed: %v -> %v", before, after)
	}
	if err := m.ToggleStar(ids[1]); err != nil {
		t.Fatalf("unstar: %v", err)
	}
	if err := m.ToggleStar(ids[3]); err != nil {
		t.Fatalf("star after unstar: %v", err)
	}
	if got := starredIDs(m.Session()); fmt.Sprint(got) != fmt.Sprint([]string{ids[0], ids[2], ids[3]}) {
		t.Fatalf("starred = %v", got)
	}
	if err := m.ToggleStar("missing"); !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("missing id: got %v", err)
	}
}

func TestToggleStarOnlyInReview(t *testing.T) {
	m := newTestMachine(t)
	startStorm(t, m, false, 10)
	q, _ := m.Submit("why?")
	if err := m.ToggleStar(q.ID); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("star while storming: got %v", err)
	}
}

func TestProceedBackAndHistory(t *testing.T) {
	m := newTestMachine(t)
	if err := m.Proceed(); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("proceed from setup: %v", err)
	}
	if err := m.OpenHistory(); err != nil {
		t.Fatalf("open history: %v", err)
	}
	if m.Phase() != PhaseHistory {
		t.Fatalf("phase = %s", m.Phase())
	}
	if err := m.OpenHistory(); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("history from history: %v", err)
	}
	m.Reset()

	id := startStorm(t, m, false, 10)
	if err := m.OpenHistory(); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("history while storming: %v", err)
	}
	q, _ := m.Submit("why?")
	runToReview(t, m, id)
	if err := m.ToggleStar(q.ID); err != nil {
		t.Fatalf("star: %v", err)
	}
	if err := m.Proceed(); err != nil {
		t.Fatalf("proceed: %v", err)
	}
	s := m.Session()
	if s.Phase != PhaseAnalysis || !s.Questions[0].Starred {
		t.Fatalf("analysis must carry stars forward: %+v", s)
	}
	if err := m.Back(); err != nil {
		t.Fatalf("back: %v", err)
	}
	if m.Phase() != PhaseReview {
		t.Fatalf("phase = %s, want review", m.Phase())
	}
}

func TestRestoreResumesInterruptedStorm(t *testing.T) {
	m := newTestMachine(t, "a", "b", "c")
	id := startStorm(t, m, true, 20)
	for i := 0; i < 5; i++ {
		m.Tick(id)
	}
	m.Rotate(id)
	m.Submit("why?")
	saved := m.Session()

	restored := newTestMachine(t, "a", "b", "c")
	restored.Restore(saved)
	if !restored.Active(saved.StormID) {
		t.Fatalf("restored storm should be active")
	}
	if restored.Remaining() != 15 {
		t.Fatalf("remaining = %d, want 15", restored.Remaining())
	}
	if c, _ := restored.ActiveConstraint(); c != "b" {
		t.Fatalf("constraint = %q, want b", c)
	}
	ticks := 0
	for {
		ticks++
		if _, done := restored.Tick(saved.StormID); done {
			break
		}
		if ticks > 100 {
			t.Fatalf("restored storm never ended")
		}
	}
	if ticks != 15 {
		t.Fatalf("restored storm ended after %d ticks, want 15", ticks)
	}
}

func TestRestoreRejectsUnknownPhase(t *testing.T) {
	m := newTestMachine(t)
	m.Restore(Session{Phase: "BOGUS", Scenario: "x"})
	if s := m.Session(); s.Phase != PhaseSetup || s.Scenario != "" {
		t.Fatalf("unknown phase should restore defaults: %+v", s)
	}
}

func TestSessionReturnsCopy(t *testing.T) {
	m := newTestMachine(t)
	startStorm(t, m, false, 10)
	m.Submit("why?")
	s := m.Session()
	s.Questions[0].Text = "mutated"
	if m.Session().Questions[0].Text != "why?" {
		t.Fatalf("Session leaked internal slice")
	}
}

func starredIDs(s Session) []string {
	var ids []string
	for _, q := range s.Starred() {
		ids = append(ids, q.ID)
	}
	return ids
}

func TestClockAndUrgency(t *testing.T) {
	m := newTestMachine(t)
	if m.Urgent(30) {
		t.Fatalf("setup is never urgent")
	}
	id := startStorm(t, m, false, 31)
	if got := m.Clock(); got != "0:31" {
		t.Fatalf("clock = %q", got)
	}
	if m.Urgent(30) {
		t.Fatalf("31s left is not urgent")
	}
	m.Tick(id)
	m.Tick(id)
	if !m.Urgent(30) {
		t.Fatalf("29s left should be urgent")
	}
	if got := m.Clock(); got != "0:29" {
		t.Fatalf("clock = %q", got)
	}
}
