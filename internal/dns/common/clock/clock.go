// Package clock abstracts time for components that age state, so tests can
// drive expiry deterministically instead of sleeping.
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

// MockClock is a manually driven clock for tests. The zero value starts at
// the zero time; it only moves when told to.
type MockClock struct {
	current time.Time
}

func (c *MockClock) Now() time.Time {
	return c.current
}

// Set pins the clock to a specific instant.
func (c *MockClock) Set(t time.Time) {
	c.current = t
}

// Advance moves the clock by d, which may be negative.
func (c *MockClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}
