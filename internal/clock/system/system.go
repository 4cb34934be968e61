// Package system provides clock implementations for the pipeline.
package system

import "time"

// Clock implements clip.Clock using time.Now in UTC.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}

// Fixed always returns the same instant. Used by the clip command's --created-at
// flag and by tests.
type Fixed struct {
	At time.Time
}

// Now returns the fixed instant in UTC.
func (f Fixed) Now() time.Time {
	return f.At.UTC()
}
