package core

import "time"

// Clock is the Instant source external collaborator: a monotonic timestamp
// provider. Wrapping time.Time/time.Now rather than inventing a bespoke
// Instant type keeps duration_since as the stdlib's own time.Time.Sub.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock, backed by the monotonic clock reading
// time.Now() already carries.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }
