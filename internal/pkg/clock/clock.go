package clock

import "time"

// Clocker is the only time source business code should read.
type Clocker interface {
	Now() time.Time
}

// System reads the wall clock.
type System struct{}

func New() *System {
	return &System{}
}

func (*System) Now() time.Time {
	return time.Now()
}
