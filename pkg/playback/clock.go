package playback

import "time"

// Clock abstracts wall time so scheduling can be tested without
// sleeping.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable deferred call.
type Timer interface {
	Stop() bool
}

type realClock struct{}

// NewClock returns the wall clock.
func NewClock() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
