package board

import "github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/domain"

// event is the tagged sum of everything the board's consumer loop reacts to:
// fetch results, push-channel deliveries, user commands, and completions of
// the coordinator's asynchronous remote calls.
type event interface{ isEvent() }

// evBootstrap carries the result of a successful full fetch; the board is
// replaced wholesale and becomes available.
type evBootstrap struct {
	orders []*domain.Order
}

// evPoll carries a poll-fallback fetch result, applied wholesale unless the
// push channel has been confirmed in the meantime.
type evPoll struct {
	orders []*domain.Order
}

type evPushInserted struct {
	order *domain.Order
}

type evPushUpdated struct {
	order *domain.Order
}

// evApply is a status-change request from the presentation layer or, with
// revert set, from the activity log's undo path.
type evApply struct {
	orderID string
	to      domain.Status
	revert  bool
	entryID string
	reply   chan error
}

// evMutationDone reports the outcome of the asynchronous remote persistence
// call started by evApply. On failure the carried snapshot restores the
// entire board.
type evMutationDone struct {
	orderID  string
	plan     domain.TransitionPlan
	snapshot boardSnapshot
	revert   bool
	entryID  string
	err      error
	reply    chan error
}

// evRevert looks up an activity entry, checks the revert window, and funnels
// the inverse transition into the apply path.
type evRevert struct {
	entryID string
	reply   chan error
}

// evPlaced adds a just-persisted new order to the live partition.
type evPlaced struct {
	order *domain.Order
}

// evPrune expires activity entries older than the revert window.
type evPrune struct{}

func (evBootstrap) isEvent()    {}
func (evPoll) isEvent()         {}
func (evPushInserted) isEvent() {}
func (evPushUpdated) isEvent()  {}
func (evApply) isEvent()        {}
func (evMutationDone) isEvent() {}
func (evRevert) isEvent()       {}
func (evPlaced) isEvent()       {}
func (evPrune) isEvent()        {}
