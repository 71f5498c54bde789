package domain

import (
	"errors"
	"sort"
	"time"
)

var ErrAlreadyCompleted = errors.New("quest already completed")

// LedgerEntry is one completed quest.
type LedgerEntry struct {
	Quest       Quest
	CompletedAt time.Time
}

// Ledger records which quests a team completed and when. Each quest appears
// at most once.
type Ledger struct {
	completed map[Quest]time.Time
}

func NewLedger() *Ledger {
	return &Ledger{completed: make(map[Quest]time.Time)}
}

// Complete records q at time at. A second completion of the same quest fails
// with ErrAlreadyCompleted and leaves the original timestamp untouched.
func (l *Ledger) Complete(q Quest, at time.Time) error {
	if _, ok := l.completed[q]; ok {
		return ErrAlreadyCompleted
	}
	l.completed[q] = at
	return nil
}

// Remove deletes q and reports whether it was present.
func (l *Ledger) Remove(q Quest) bool {
	if _, ok := l.completed[q]; !ok {
		return false
	}
	delete(l.completed, q)
	return true
}

func (l *Ledger) Clear() {
	clear(l.completed)
}

func (l *Ledger) Has(q Quest) bool {
	_, ok := l.completed[q]
	return ok
}

func (l *Ledger) Len() int { return len(l.completed) }

// CompletedAt returns when q was completed.
func (l *Ledger) CompletedAt(q Quest) (time.Time, bool) {
	t, ok := l.completed[q]
	return t, ok
}

// CountOn returns how many of the card's quests are in the ledger.
func (l *Ledger) CountOn(card *Card) int {
	if card == nil {
		return 0
	}
	n := 0
	for q := range l.completed {
		if card.Contains(q) {
			n++
		}
	}
	return n
}

// Entries returns the completions ordered by time, then by quest.
func (l *Ledger) Entries() []LedgerEntry {
	out := make([]LedgerEntry, 0, len(l.completed))
	for q, at := range l.completed {
		out = append(out, LedgerEntry{Quest: q, CompletedAt: at})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CompletedAt.Equal(out[j].CompletedAt) {
			return out[i].CompletedAt.Before(out[j].CompletedAt)
		}
		return out[i].Quest.String() < out[j].Quest.String()
	})
	return out
}
