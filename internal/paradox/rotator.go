// Package paradox cycles through creative constraints during a paradox storm.
package paradox

import "time"

// DefaultInterval is how long each constraint stays active.
const DefaultInterval = 20 * time.Second

// DefaultConstraints is the built-in rotation used when config.yaml lists none.
var DefaultConstraints = []string{
	"You have unlimited money but only one hour.",
	"The problem must be solved by a ten-year-old.",
	"Gravity stops working every afternoon.",
	"Your biggest competitor is now your only supplier.",
	"Nobody is allowed to speak, only draw.",
	"The solution has to make the problem worse first.",
	"Everything must fit in a single envelope.",
	"It is the year 1850.",
}

// Rotator hands out constraints in a fixed cyclic order. A disabled rotator
// never reports a constraint and ignores Advance.
type Rotator struct {
	constraints []string
	index       int
	enabled     bool
}

// NewRotator returns a rotator positioned at the first constraint.
func NewRotator(constraints []string, enabled bool) *Rotator {
	if len(constraints) == 0 {
		constraints = DefaultConstraints
	}
	list := make([]string, len(constraints))
	copy(list, constraints)
	return &Rotator{constraints: list, enabled: enabled}
}

// Enabled reports whether the rotator is live.
func (r *Rotator) Enabled() bool {
	return r != nil && r.enabled
}

// Len returns the number of constraints in the cycle.
func (r *Rotator) Len() int {
	if r == nil {
		return 0
	}
	return len(r.constraints)
}

// Index returns the position of the active constraint.
func (r *Rotator) Index() int {
	if r == nil {
		return 0
	}
	return r.index
}

// Seek moves to idx modulo the cycle length. Used when a storm is restored.
func (r *Rotator) Seek(idx int) {
	if r == nil || len(r.constraints) == 0 {
		return
	}
	n := len(r.constraints)
	r.index = ((idx % n) + n) % n
}

// Advance moves to the next constraint.
func (r *Rotator) Advance() {
	if !r.Enabled() {
		return
	}
	r.index = (r.index + 1) % len(r.constraints)
}

// Current returns the active constraint when the rotator is enabled.
func (r *Rotator) Current() (string, bool) {
	if !r.Enabled() {
		return "", false
	}
	return r.constraints[r.index], true
}
