package board

import (
	"context"
	"fmt"

	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/adapter/metrics"
	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/domain"
	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/interfaces"
)

// boardSnapshot is a deep copy of both partitions, captured before an
// optimistic mutation so a remote failure can restore the board exactly.
type boardSnapshot struct {
	live     []*domain.Order
	terminal []*domain.Order
}

func (b *Board) snapshot() boardSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	snap := boardSnapshot{
		live:     make([]*domain.Order, len(b.live)),
		terminal: make([]*domain.Order, len(b.terminal)),
	}
	for i, o := range b.live {
		snap.live[i] = o.Clone()
	}
	for i, o := range b.terminal {
		snap.terminal[i] = o.Clone()
	}
	return snap
}

// restore replaces the whole board with a snapshot. Deliberately wholesale:
// events that arrived during the failed remote call are discarded rather
// than half-merged, and the poll fallback or push feed will re-deliver them.
func (b *Board) restore(snap boardSnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.live = snap.live
	b.terminal = snap.terminal
	b.updateGaugesLocked()
}

// RequestStatusChange applies a status transition optimistically: the local
// board changes immediately and rolls back if remote persistence fails. The
// returned error reflects the final outcome.
func (b *Board) RequestStatusChange(ctx context.Context, orderID string, status domain.Status) error {
	if !b.isAvailable() {
		return ErrBoardUnavailable
	}

	reply := make(chan error, 1)
	if !b.queue.Enqueue(evApply{orderID: orderID, to: status, reply: reply}) {
		return ErrBoardUnavailable
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RequestRevert undoes a committed transition while its revert window is
// open, by running the inverse transition through the same coordinator path.
func (b *Board) RequestRevert(ctx context.Context, entryID string) error {
	if !b.isAvailable() {
		return ErrBoardUnavailable
	}

	reply := make(chan error, 1)
	if !b.queue.Enqueue(evRevert{entryID: entryID, reply: reply}) {
		return ErrBoardUnavailable
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Board) handleRevert(ev evRevert) {
	entry, err := b.log.Find(ev.entryID)
	if err != nil {
		ev.reply <- err
		return
	}
	if !b.log.Revertible(entry) {
		ev.reply <- ErrRevertExpired
		return
	}

	order := b.findAny(entry.OrderID)
	if order == nil {
		ev.reply <- ErrOrderNotFound
		return
	}
	// The entry can only be undone while it is still the order's last step;
	// once a later transition moved the order on, replaying entry.From would
	// rewind the wrong step.
	if order.Status != entry.To {
		ev.reply <- ErrRevertSuperseded
		return
	}

	b.handleApply(evApply{
		orderID: entry.OrderID,
		to:      entry.From,
		revert:  true,
		entryID: entry.ID,
		reply:   ev.reply,
	})
}

// handleApply runs steps 1-3 of the optimistic mutation protocol: snapshot,
// local apply, in-flight mark, and the asynchronous remote call. Steps 4-5
// happen in handleMutationDone.
func (b *Board) handleApply(ev evApply) {
	order := b.findAny(ev.orderID)
	if order == nil {
		ev.reply <- ErrOrderNotFound
		return
	}
	if b.inFlight[ev.orderID] {
		ev.reply <- ErrOrderInFlight
		return
	}

	var plan domain.TransitionPlan
	var err error
	if ev.revert {
		plan, err = domain.PlanRevert(order.Status, ev.to)
	} else {
		plan, err = domain.PlanTransition(order.Status, ev.to)
	}
	if err != nil {
		ev.reply <- err
		return
	}

	snap := b.snapshot()
	b.applyLocal(order, plan)
	b.inFlight[ev.orderID] = true

	go b.persistStatus(ev, plan, snap)
}

// applyLocal mutates the order and moves it between partitions per the plan.
func (b *Board) applyLocal(order *domain.Order, plan domain.TransitionPlan) {
	b.mu.Lock()
	defer b.mu.Unlock()

	order.ApplyPlan(plan, b.now())

	switch {
	case plan.ToTerminal:
		b.removeLocked(order.ID)
		b.terminal = append([]*domain.Order{order}, b.terminal...)
	case plan.ToLive:
		b.removeLocked(order.ID)
		b.live = append(b.live, order)
		domain.SortLive(b.live)
	default:
		domain.SortLive(b.live)
	}
	b.updateGaugesLocked()
}

// persistStatus runs the remote call off the loop so the board keeps
// accepting events. It is bounded by the mutation timeout and detached from
// the caller's request context: once the local board has changed, the
// outcome must be resolved even if the caller goes away.
func (b *Board) persistStatus(ev evApply, plan domain.TransitionPlan, snap boardSnapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), b.mutationTimeout)
	defer cancel()

	err := b.orders.UpdateStatus(ctx, ev.orderID, plan.To)

	b.queue.Enqueue(evMutationDone{
		orderID:  ev.orderID,
		plan:     plan,
		snapshot: snap,
		revert:   ev.revert,
		entryID:  ev.entryID,
		err:      err,
		reply:    ev.reply,
	})
}

// handleMutationDone commits or rolls back an optimistic mutation.
func (b *Board) handleMutationDone(ev evMutationDone) {
	delete(b.inFlight, ev.orderID)

	if ev.err != nil {
		b.restore(ev.snapshot)
		metrics.MutationRollbacksTotal.Inc()
		b.lgr.Error("mutation_rolled_back", "Remote status update failed; board restored", ev.orderID, map[string]interface{}{
			"to": string(ev.plan.To),
		}, ev.err)
		ev.reply <- fmt.Errorf("status update not persisted: %w", ev.err)
		return
	}

	metrics.StatusTransitionsTotal.WithLabelValues(string(ev.plan.From), string(ev.plan.To)).Inc()

	order := b.findAny(ev.orderID)
	label := ev.orderID
	var items []domain.OrderItem
	var token string
	var total float64
	if order != nil {
		label = order.Label()
		items = append(items, order.Items...)
		token = order.Token
		total = order.TotalAmount
	}

	// Stock restoration is availability-over-consistency: an exhausted
	// retry surfaces as a warning but never unwinds the committed
	// cancellation.
	if ev.plan.RestoreStock {
		for _, item := range items {
			go b.adjustStock(item.ItemID, item.Quantity)
		}
	}

	if ev.revert {
		b.log.Remove(ev.entryID)
		metrics.RevertsTotal.Inc()
	} else {
		b.log.Record(ev.orderID, label, ev.plan)
	}

	if ev.plan.To == domain.StatusCancelled {
		go b.notify(interfaces.NotificationMessage{
			Kind:        interfaces.NotificationCancelled,
			OrderID:     ev.orderID,
			Token:       token,
			Label:       label,
			TotalAmount: total,
			Timestamp:   b.now(),
		})
	}

	ev.reply <- nil
}

// PlaceOrder creates a new order: remote insert first, then the board add,
// the stock decrement, and the placement notification. Placement is not a
// transition; the order always starts preparing.
func (b *Board) PlaceOrder(ctx context.Context, cmd interfaces.PlaceOrderCommand) (*domain.Order, error) {
	if !b.isAvailable() {
		return nil, ErrBoardUnavailable
	}

	items := make([]domain.OrderItem, len(cmd.Items))
	for i, item := range cmd.Items {
		items[i] = domain.OrderItem{
			ItemID:   item.ItemID,
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		}
	}

	order, err := domain.NewOrder(domain.OrderKind(cmd.Kind), domain.OrderOrigin(cmd.Origin), items, b.now())
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := b.orders.Insert(ctx, order); err != nil {
		b.lgr.Error("placement_failed", "Failed to persist new order", order.ID, nil, err)
		return nil, fmt.Errorf("placement not persisted: %w", err)
	}

	metrics.OrdersPlacedTotal.Inc()
	b.queue.Enqueue(evPlaced{order: order.Clone()})

	for _, item := range order.Items {
		go b.adjustStock(item.ItemID, -item.Quantity)
	}

	go b.notify(interfaces.NotificationMessage{
		Kind:        interfaces.NotificationPlaced,
		OrderID:     order.ID,
		Token:       order.Token,
		Label:       order.Label(),
		TotalAmount: order.TotalAmount,
		Timestamp:   order.CreatedAt,
	})

	return order, nil
}

func (b *Board) adjustStock(itemID string, delta int) {
	if err := b.ledger.Adjust(context.Background(), itemID, delta); err != nil {
		b.lgr.Warn("stock_not_adjusted", "Stock adjustment failed after retries", itemID, map[string]interface{}{
			"delta": delta,
			"error": err.Error(),
		})
	}
}

// notify is fire-and-forget: publish failures never roll back the mutation.
func (b *Board) notify(msg interfaces.NotificationMessage) {
	if b.notifier == nil {
		return
	}
	if err := b.notifier.PublishNotification(context.Background(), msg); err != nil {
		b.lgr.Warn("notification_failed", "Failed to publish notification", msg.OrderID, map[string]interface{}{
			"kind":  msg.Kind,
			"error": err.Error(),
		})
	}
}
