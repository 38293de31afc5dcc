package datemath

import "time"

// Clock supplies the current time. Evaluation reads it once per run to
// decide what "today" is.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package
type RealClock struct{}

// Now returns the current time
func (RealClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns the same instant
type FixedClock struct {
	T time.Time
}

// Now returns the fixed instant
func (c FixedClock) Now() time.Time {
	return c.T
}

// ClockFunc adapts a function to Clock
type ClockFunc func() time.Time

// Now calls f
func (f ClockFunc) Now() time.Time {
	return f()
}
