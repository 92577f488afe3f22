package domain

import "time"

// ActivityEntry records one committed status transition. An entry stays
// revertible until the revert window elapses or a revert consumes it; after
// that it remains visible in the activity feed marked Expired.
type ActivityEntry struct {
	ID      string
	OrderID string
	Label   string
	From    Status
	To      Status
	At      time.Time

	// FromTerminal and ToTerminal record which partition the order occupied
	// before and after the transition, so a revert knows whether it must
	// move the order between partitions.
	FromTerminal bool
	ToTerminal   bool

	Expired bool
}

// Revertible reports whether the entry may still be undone at the given time.
func (e *ActivityEntry) Revertible(now time.Time, window time.Duration) bool {
	return !e.Expired && now.Sub(e.At) < window
}
