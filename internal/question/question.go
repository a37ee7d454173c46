// internal/question/question.go
//
// A question is the unit of work during a storm. The validator below is the
// only gate between raw input and a session's question list.

package question

import (
	"errors"
	"strings"
)

// RejectionMessage is shown inline when a submission is not a question.
const RejectionMessage = `Must end with "?" or start with a question word (Who, What, Where, etc.)`

var (
	// ErrEmpty is returned for blank submissions. The UI ignores these.
	ErrEmpty = errors.New("question: empty")
	// ErrNotAQuestion is returned when the validator rejects a submission.
	ErrNotAQuestion = errors.New(RejectionMessage)
)

// DefaultLeadWords are accepted in every mode.
var DefaultLeadWords = []string{"who", "what", "where", "when", "why", "how"}

// DefaultParadoxLeadWords are accepted on top of DefaultLeadWords in paradox mode.
var DefaultParadoxLeadWords = []string{"if", "could", "would", "should"}

// Question is a single accepted submission.
type Question struct {
	ID                string `json:"id"`
	Text              string `json:"text"`
	Starred           bool   `json:"starred"`
	ParadoxConstraint string `json:"paradoxConstraint,omitempty"`
}

// Validator decides whether raw text is an acceptable question.
type Validator struct {
	leadWords        []string
	paradoxLeadWords []string
}

// NewValidator builds a validator. Nil lists fall back to the defaults.
func NewValidator(leadWords, paradoxLeadWords []string) *Validator {
	if leadWords == nil {
		leadWords = DefaultLeadWords
	}
	if paradoxLeadWords == nil {
		paradoxLeadWords = DefaultParadoxLeadWords
	}
	return &Validator{
		leadWords:        normalizeWords(leadWords),
		paradoxLeadWords: normalizeWords(paradoxLeadWords),
	}
}

// IsValid reports whether text is a question in standard mode.
func (v *Validator) IsValid(text string) bool {
	return v.IsValidFor(text, false)
}

// IsValidFor reports whether text is a question, widening the lead word list
// when paradox mode is on.
func (v *Validator) IsValidFor(text string, paradox bool) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	if strings.HasSuffix(trimmed, "?") {
		return true
	}
	lower := strings.ToLower(trimmed)
	if hasAnyPrefix(lower, v.leadWords) {
		return true
	}
	return paradox && hasAnyPrefix(lower, v.paradoxLeadWords)
}

// Check is IsValidFor with the rejection reason spelled out.
func (v *Validator) Check(text string, paradox bool) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmpty
	}
	if !v.IsValidFor(text, paradox) {
		return ErrNotAQuestion
	}
	return nil
}

// LeadWord returns the whitelisted word text starts with, or "" when it
// starts with none of them.
func (v *Validator) LeadWord(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, words := range [][]string{v.leadWords, v.paradoxLeadWords} {
		for _, w := range words {
			if strings.HasPrefix(lower, w) {
				return w
			}
		}
	}
	return ""
}

var defaultValidator = NewValidator(nil, nil)

// IsValid checks text against the default standard-mode word list.
func IsValid(text string) bool {
	return defaultValidator.IsValid(text)
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func normalizeWords(words []string) []string {
	out := make([]string, 0, len(words))
	seen := map[string]struct{}{}
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
