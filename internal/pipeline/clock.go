package pipeline

import "time"

// Clock provides time operations so step durations are deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the actual system time.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// StepClock advances by Step on every call to Now.
type StepClock struct {
	Current time.Time
	Step    time.Duration
}

// Now returns the current time and advances the clock.
func (c *StepClock) Now() time.Time {
	t := c.Current
	c.Current = c.Current.Add(c.Step)
	return t
}
