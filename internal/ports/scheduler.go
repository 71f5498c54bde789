package ports

import "time"

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop cancels the callback and reports whether it was still pending.
	Stop() bool
}

// Scheduler runs a callback once after a delay on the match's own loop, so
// callbacks never overlap other match work.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}
