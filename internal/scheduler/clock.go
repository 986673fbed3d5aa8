package scheduler

import "time"

// Clock abstracts time.Now so tests can advance time without waiting
// on real timers. Production code uses SystemClock.
type Clock interface {
	Now() time.Time
}

// SystemClock returns the current UTC time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
