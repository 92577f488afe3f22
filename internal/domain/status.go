package domain

import "errors"

type Status string

const (
	// StatusPending is a legacy alias of StatusPreparing. New orders are
	// created directly in StatusPreparing; pending is still accepted as a
	// source state and as a revert target for data written by older clients.
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

var ErrInvalidTransition = errors.New("invalid status transition")

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReady, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s is a terminal status. Terminal orders live in
// the terminal partition of the board and accept no forward transitions.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// entry reports whether s is one of the synonymous entry states.
func (s Status) entry() bool {
	return s == StatusPending || s == StatusPreparing
}

// TransitionPlan describes the side effects the coordinator must run once a
// status change has been persisted remotely.
type TransitionPlan struct {
	From Status
	To   Status

	// ToTerminal moves the order from the live to the terminal partition;
	// ToLive moves it back. At most one of the two is set.
	ToTerminal bool
	ToLive     bool

	// RestoreStock returns each ordered item's quantity to stock. Set only
	// on cancellation; delivery never touches stock (it was decremented at
	// placement), and reverting a cancellation does not re-decrement it.
	RestoreStock bool

	// SetDelivered stamps the delivered timestamp; ClearDelivered removes it
	// when a delivery is reverted.
	SetDelivered   bool
	ClearDelivered bool
}

// PlanTransition validates a forward status change and returns its plan.
//
//	pending/preparing -> ready
//	ready             -> delivered  (terminal, no stock change)
//	pending/preparing/ready -> cancelled (terminal, stock restored)
//
// Everything else is rejected with ErrInvalidTransition and no side effects.
func PlanTransition(from, to Status) (TransitionPlan, error) {
	plan := TransitionPlan{From: from, To: to}

	if !from.Valid() || !to.Valid() {
		return TransitionPlan{}, ErrInvalidTransition
	}

	switch {
	case from.entry() && to == StatusReady:
		return plan, nil

	case from == StatusReady && to == StatusDelivered:
		plan.ToTerminal = true
		plan.SetDelivered = true
		return plan, nil

	case (from.entry() || from == StatusReady) && to == StatusCancelled:
		plan.ToTerminal = true
		plan.RestoreStock = true
		return plan, nil
	}

	return TransitionPlan{}, ErrInvalidTransition
}

// PlanRevert validates the inverse of a committed transition, used only by
// the activity log's undo path. Terminal orders move back to the live
// partition; stock is never adjusted on revert, including the revert of a
// cancellation whose placement-time decrement was already restored. That
// asymmetry is intentional: the restore recorded at cancellation is not
// undone, so reverting a cancellation leaves stock one order higher than
// before the cancellation.
func PlanRevert(from, to Status) (TransitionPlan, error) {
	plan := TransitionPlan{From: from, To: to}

	if !from.Valid() || !to.Valid() {
		return TransitionPlan{}, ErrInvalidTransition
	}

	switch from {
	case StatusDelivered:
		if to.entry() || to == StatusReady {
			plan.ToLive = true
			plan.ClearDelivered = true
			return plan, nil
		}
	case StatusCancelled:
		if to.entry() || to == StatusReady {
			plan.ToLive = true
			return plan, nil
		}
	case StatusReady:
		// Undo of preparing -> ready stays inside the live partition.
		if to.entry() {
			return plan, nil
		}
	}

	return TransitionPlan{}, ErrInvalidTransition
}
