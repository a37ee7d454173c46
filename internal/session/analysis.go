package session

import (
	"sort"
	"unicode/utf8"

	"github.com/kingrea/qstorm/internal/question"
)

// Count pairs a label with how often it occurred.
type Count struct {
	Label string
	N     int
}

// Analysis summarizes a finished storm.
type Analysis struct {
	Total         int
	Starred       int
	AverageLength float64
	PerMinute     float64
	LeadWords     []Count
	Constraints   []Count
}

// Analyze computes the analysis view of s. Questions that start with no
// whitelisted word are counted under "?".
func Analyze(s Session, v *question.Validator) Analysis {
	if v == nil {
		v = question.NewValidator(nil, nil)
	}
	a := Analysis{Total: len(s.Questions), Starred: s.StarredCount()}
	if a.Total == 0 {
		return a
	}
	leads := map[string]int{}
	constraints := map[string]int{}
	chars := 0
	for _, q := range s.Questions {
		chars += utf8.RuneCountInString(q.Text)
		word := v.LeadWord(q.Text)
		if word == "" {
			word = "?"
		}
		leads[word]++
		if q.ParadoxConstraint != "" {
			constraints[q.ParadoxConstraint]++
		}
	}
	a.AverageLength = float64(chars) / float64(a.Total)
	if s.Duration > 0 {
		a.PerMinute = float64(a.Total) / (float64(s.Duration) / 60)
	}
	a.LeadWords = sortedCounts(leads)
	a.Constraints = sortedCounts(constraints)
	return a
}

func sortedCounts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for label, n := range m {
		out = append(out, Count{Label: label, N: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].N != out[j].N {
			return out[i].N > out[j].N
		}
		return out[i].Label < out[j].Label
	})
	return out
}
