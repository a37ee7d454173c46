package session

import (
	"testing"

	"github.com/kingrea/qstorm/internal/question"
)

func TestAnalyze(t *testing.T) {
	s := Session{
		Duration: 120,
		Questions: []question.Question{
			{Text: "why now?", Starred: true, ParadoxConstraint: "a"},
			{Text: "why not", ParadoxConstraint: "b"},
			{Text: "how", ParadoxConstraint: "a"},
			{Text: "the budget?"},
		},
	}
	a := Analyze(s, nil)
	if a.Total != 4 || a.Starred != 1 {
		t.Fatalf("totals = %d/%d", a.Total, a.Starred)
	}
	if a.PerMinute != 2 {
		t.Fatalf("per minute = %v, want 2", a.PerMinute)
	}
	wantAvg := float64(8+7+3+11) / 4
	if a.AverageLength != wantAvg {
		t.Fatalf("average length = %v, want %v", a.AverageLength, wantAvg)
	}
	if len(a.LeadWords) != 3 || a.LeadWords[0] != (Count{Label: "why", N: 2}) {
		t.Fatalf("lead words = %+v", a.LeadWords)
	}
	if a.LeadWords[1] != (Count{Label: "?", N: 1}) || a.LeadWords[2] != (Count{Label: "how", N: 1}) {
		t.Fatalf("lead word order = %+v", a.LeadWords)
	}
	if len(a.Constraints) != 2 || a.Constraints[0] != (Count{Label: "a", N: 2}) {
		t.Fatalf("constraints = %+v", a.Constraints)
	}
}

func TestAnalyzeEmptySession(t *testing.T) {
	a := Analyze(Default(730), nil)
	if a.Total != 0 || a.LeadWords != nil || a.PerMinute != 0 {
		t.Fatalf("unexpected analysis %+v", a)
	}
}
