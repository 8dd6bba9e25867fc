// Package timeutil provides a testable abstraction over time operations.
package timeutil

import (
	"sync"
	"time"
)

// Clock provides an abstraction over time operations for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Since returns the duration since t.
	Since(t time.Time) time.Duration
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Since returns the time elapsed since t.
func (RealClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// MockClock is a manually controlled clock for testing. With a non-zero
// step every call to Now advances the clock by that step after reading it,
// so consecutive readings are evenly spaced.
type MockClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewMockClock creates a new MockClock set to the given time.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{now: t}
}

// NewSteppingClock creates a MockClock that advances by step on every Now.
func NewSteppingClock(t time.Time, step time.Duration) *MockClock {
	return &MockClock{now: t, step: step}
}

// Now returns the mocked current time.
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

// Set sets the mock clock to a specific time.
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the mock clock forward by the given duration.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Since returns the duration since t without stepping the clock.
func (c *MockClock) Since(t time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now.Sub(t)
}

// Lap is one named interval recorded by a Stopwatch.
type Lap struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration_ns"`
}

// Stopwatch records consecutive named laps against a Clock.
type Stopwatch struct {
	clock Clock
	start time.Time
	last  time.Time
	laps  []Lap
}

// NewStopwatch starts a stopwatch. A nil clock uses RealClock.
func NewStopwatch(clock Clock) *Stopwatch {
	if clock == nil {
		clock = RealClock{}
	}
	now := clock.Now()
	return &Stopwatch{clock: clock, start: now, last: now}
}

// Lap closes the current interval under name and returns its duration.
func (s *Stopwatch) Lap(name string) time.Duration {
	now := s.clock.Now()
	d := now.Sub(s.last)
	s.last = now
	s.laps = append(s.laps, Lap{Name: name, Duration: d})
	return d
}

// Laps returns a copy of the recorded laps.
func (s *Stopwatch) Laps() []Lap {
	out := make([]Lap, len(s.laps))
	copy(out, s.laps)
	return out
}

// Total returns the time from start to the end of the last lap.
func (s *Stopwatch) Total() time.Duration {
	return s.last.Sub(s.start)
}

// Started returns the time the stopwatch was created.
func (s *Stopwatch) Started() time.Time {
	return s.start
}
