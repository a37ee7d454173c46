// Package timer implements the storm countdown.
package timer

import "fmt"

const (
	// DefaultDuration is the storm length in seconds when none is configured.
	DefaultDuration = 730
	// MinDuration and MaxDuration bound what a user may pick at setup.
	MinDuration = 10
	MaxDuration = 3600
	// DefaultUrgencyThreshold marks the last stretch of a storm.
	DefaultUrgencyThreshold = 30
)

// Countdown is a whole-second counter that expires exactly once.
type Countdown struct {
	remaining int
	expired   bool
}

// New returns a countdown starting at seconds.
func New(seconds int) *Countdown {
	return &Countdown{remaining: seconds}
}

// Remaining returns the seconds left. It never goes below zero.
func (c *Countdown) Remaining() int {
	if c == nil || c.remaining < 0 {
		return 0
	}
	return c.remaining
}

// Expired reports whether the countdown already fired.
func (c *Countdown) Expired() bool {
	return c != nil && c.expired
}

// Tick consumes one second. It returns true on the tick that reaches zero and
// false on every tick after that.
func (c *Countdown) Tick() bool {
	if c == nil || c.expired {
		return false
	}
	c.remaining--
	if c.remaining <= 0 {
		c.remaining = 0
		c.expired = true
		return true
	}
	return false
}

// Urgent reports whether fewer than threshold seconds remain.
func (c *Countdown) Urgent(threshold int) bool {
	return c.Remaining() < threshold
}

// String renders the remaining time as m:ss.
func (c *Countdown) String() string {
	return Format(c.Remaining())
}

// Format renders seconds as minutes and zero-padded seconds.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// ValidDuration reports whether seconds is an allowed storm length.
func ValidDuration(seconds int) bool {
	return seconds >= MinDuration && seconds <= MaxDuration
}
