// Package clock provides time sources for record timestamps.
//
// Every timestamp workbench persists (project createdAt/updatedAt, session
// createdAt, snapshot createdAt) is taken from a Clock so that tests can pin
// and step time deterministically.
package clock

import "time"

// Clock provides an abstraction for time operations to enable deterministic testing.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the system time, normalized to UTC.
type RealClock struct{}

// Now returns the current system time in UTC.
func (c *RealClock) Now() time.Time {
	return time.Now().UTC()
}

// FakeClock implements Clock with a controllable time for testing.
// When a step is configured, each call to Now advances the time by that step
// after returning, so consecutive records get strictly increasing timestamps.
type FakeClock struct {
	current time.Time
	step    time.Duration
}

// NewFakeClock creates a new FakeClock with the given time.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{current: t}
}

// NewSteppingClock creates a FakeClock that advances by step on every Now call.
func NewSteppingClock(t time.Time, step time.Duration) *FakeClock {
	return &FakeClock{current: t, step: step}
}

// Now returns the current fake time, then applies the configured step.
func (c *FakeClock) Now() time.Time {
	now := c.current
	c.current = c.current.Add(c.step)
	return now
}

// Set updates the fake time.
func (c *FakeClock) Set(t time.Time) {
	c.current = t
}

// Advance moves the fake time forward by the given duration.
func (c *FakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}
