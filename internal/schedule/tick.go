// Package schedule runs deferred callbacks on a match's tick loop.
package schedule

import (
	"math"
	"sort"
	"time"

	"bingo/internal/ports"
)

// TickScheduler converts durations to ticks and fires callbacks from
// Advance. It is not safe for concurrent use; the owning loop drives it.
type TickScheduler struct {
	tickRate int
	now      int64
	seq      uint64
	pending  []*timer
}

var _ ports.Scheduler = (*TickScheduler)(nil)

// NewTickScheduler creates a scheduler for a loop running tickRate ticks per
// second, starting at tick 0.
func NewTickScheduler(tickRate int) *TickScheduler {
	if tickRate < 1 {
		tickRate = 1
	}
	return &TickScheduler{tickRate: tickRate}
}

// Ticks converts d to whole ticks, rounding up, never less than one.
// Durations too long to represent saturate at math.MaxInt64.
func (s *TickScheduler) Ticks(d time.Duration) int64 {
	if int64(d) > (math.MaxInt64-int64(time.Second))/int64(s.tickRate) {
		return math.MaxInt64
	}
	ticks := (int64(d)*int64(s.tickRate) + int64(time.Second) - 1) / int64(time.Second)
	if ticks < 1 {
		ticks = 1
	}
	return ticks
}

// Now is the last tick passed to Advance.
func (s *TickScheduler) Now() int64 { return s.now }

// AfterFunc schedules fn to run from the first Advance at or after now+d.
func (s *TickScheduler) AfterFunc(d time.Duration, fn func()) ports.Timer {
	s.seq++
	due := s.now + s.Ticks(d)
	if due < s.now {
		due = math.MaxInt64
	}
	t := &timer{owner: s, due: due, seq: s.seq, fn: fn}
	s.pending = append(s.pending, t)
	return t
}

// Advance moves the clock to tick and runs every due callback in due order.
// Callbacks scheduled while advancing are due no earlier than the next tick.
func (s *TickScheduler) Advance(tick int64) int {
	if tick > s.now {
		s.now = tick
	}
	sort.SliceStable(s.pending, func(i, j int) bool {
		if s.pending[i].due != s.pending[j].due {
			return s.pending[i].due < s.pending[j].due
		}
		return s.pending[i].seq < s.pending[j].seq
	})
	fired := 0
	for len(s.pending) > 0 && s.pending[0].due <= s.now {
		t := s.pending[0]
		s.pending = s.pending[1:]
		t.done = true
		t.fn()
		fired++
	}
	return fired
}

// Pending is the number of callbacks waiting to fire.
func (s *TickScheduler) Pending() int { return len(s.pending) }

type timer struct {
	owner *TickScheduler
	due   int64
	seq   uint64
	fn    func()
	done  bool
}

func (t *timer) Stop() bool {
	if t.done {
		return false
	}
	t.done = true
	for i, p := range t.owner.pending {
		if p == t {
			t.owner.pending = append(t.owner.pending[:i], t.owner.pending[i+1:]...)
			break
		}
	}
	return true
}
