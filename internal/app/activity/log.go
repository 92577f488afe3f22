// Package activity keeps the bounded-time log of committed status
// transitions. The log is owned by the board coordinator: it records every
// committed transition, serves the read-only activity feed, and tracks which
// entries are still young enough to revert.
package activity

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/domain"
)

var ErrEntryNotFound = errors.New("activity entry not found")

// maxRetained bounds the in-memory log. It is far above the display limit so
// truncation never shortens the revert window.
const maxRetained = 200

type Log struct {
	window       time.Duration
	displayLimit int
	now          func() time.Time

	mu      sync.Mutex
	entries []*domain.ActivityEntry // most recent first
}

// NewLog creates an activity log. The board's event loop is the only writer;
// the internal mutex exists so the read-only feed can be served concurrently.
func NewLog(window time.Duration, displayLimit int, now func() time.Time) *Log {
	if now == nil {
		now = time.Now
	}
	return &Log{
		window:       window,
		displayLimit: displayLimit,
		now:          now,
	}
}

// Record appends a committed transition to the front of the log and returns
// the stored entry.
func (l *Log) Record(orderID, label string, plan domain.TransitionPlan) *domain.ActivityEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := &domain.ActivityEntry{
		ID:           uuid.NewString(),
		OrderID:      orderID,
		Label:        label,
		From:         plan.From,
		To:           plan.To,
		At:           l.now(),
		FromTerminal: plan.From.Terminal(),
		ToTerminal:   plan.To.Terminal(),
	}

	l.entries = append([]*domain.ActivityEntry{entry}, l.entries...)
	if len(l.entries) > maxRetained {
		l.entries = l.entries[:maxRetained]
	}
	return entry
}

// Find returns the entry with the given id, expired or not.
func (l *Log) Find(entryID string) (*domain.ActivityEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, e := range l.entries {
		if e.ID == entryID {
			return e, nil
		}
	}
	return nil, ErrEntryNotFound
}

// Revertible reports whether the entry may still be undone.
func (l *Log) Revertible(entry *domain.ActivityEntry) bool {
	return entry.Revertible(l.now(), l.window)
}

// Remove drops an entry, called once a revert has consumed it.
func (l *Log) Remove(entryID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, e := range l.entries {
		if e.ID == entryID {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return
		}
	}
}

// Prune expires entries older than the revert window. Expired entries stay
// visible in the feed but are no longer revertible.
func (l *Log) Prune() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for _, e := range l.entries {
		if !e.Expired && now.Sub(e.At) >= l.window {
			e.Expired = true
		}
	}
}

// Recent returns copies of the newest entries, capped at the display limit.
func (l *Log) Recent() []*domain.ActivityEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.entries)
	if l.displayLimit > 0 && n > l.displayLimit {
		n = l.displayLimit
	}

	out := make([]*domain.ActivityEntry, n)
	for i := 0; i < n; i++ {
		c := *l.entries[i]
		out[i] = &c
	}
	return out
}

// Len reports the number of retained entries, for tests.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.entries)
}
