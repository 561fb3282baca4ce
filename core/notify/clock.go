package notify

import "time"

// Timer is a pending deferred call.
type Timer interface {
	// Stop cancels the call. It reports false when the call already ran or was stopped.
	Stop() bool
}

// Clock schedules deferred calls. Tests swap in a controllable implementation.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock runs deferred calls on the runtime timer heap.
var RealClock Clock = realClock{}
