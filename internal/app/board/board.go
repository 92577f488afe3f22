// Package board implements the order synchronization engine: the change feed
// reconciler that keeps the in-memory board consistent with the remote store,
// and the optimistic mutation coordinator that applies local changes first
// and rolls them back when remote persistence fails.
//
// All board mutations flow through one consumer goroutine fed by a tagged
// event queue; external triggers (poll results, push events, user commands,
// remote-call completions) are serialized there. Readers see copies behind a
// read lock the loop alone writes under.
package board

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/adapter/logger"
	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/adapter/metrics"
	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/app/activity"
	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/domain"
	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/interfaces"
)

var (
	// ErrBoardUnavailable means the bootstrap fetch has not yet succeeded
	// (or the engine is shut down); the board must not be presented as an
	// empty success. Bootstrap may be re-invoked to retry.
	ErrBoardUnavailable = errors.New("order board unavailable")

	ErrOrderNotFound = errors.New("order not found")

	// ErrOrderInFlight rejects a second mutation on an order whose previous
	// mutation has not finished persisting.
	ErrOrderInFlight = errors.New("order mutation already in flight")

	ErrRevertExpired = errors.New("revert window expired")

	// ErrRevertSuperseded rejects a revert whose entry no longer matches the
	// order's current status: a later transition moved the order past it.
	ErrRevertSuperseded = errors.New("a later status change superseded this entry")
)

// maxFetchPages caps the paginated full fetch so a misbehaving store cannot
// loop the bootstrap forever.
const maxFetchPages = 1000

// Options tunes the engine. Zero values fall back to the reference behavior.
type Options struct {
	PollInterval         time.Duration
	PruneInterval        time.Duration
	MutationTimeout      time.Duration
	RevertWindow         time.Duration
	ActivityDisplayLimit int
	Now                  func() time.Time
}

type Board struct {
	orders   interfaces.OrderStore
	ledger   interfaces.StockLedger
	notifier interfaces.MessagePublisher
	log      *activity.Log
	lgr      logger.Logger

	pollInterval    time.Duration
	pruneInterval   time.Duration
	mutationTimeout time.Duration
	now             func() time.Time

	queue *eventQueue

	// mu guards the partitions and flags below. The consumer loop is the
	// only writer; readers take RLock and receive copies.
	mu        sync.RWMutex
	live      []*domain.Order
	terminal  []*domain.Order
	available bool
	realtime  bool

	// inFlight is touched only by the consumer loop.
	inFlight map[string]bool

	startOnce sync.Once
}

func New(orders interfaces.OrderStore, ledger interfaces.StockLedger, notifier interfaces.MessagePublisher, lgr logger.Logger, opts Options) *Board {
	if opts.PollInterval == 0 {
		opts.PollInterval = time.Second
	}
	if opts.PruneInterval == 0 {
		opts.PruneInterval = time.Second
	}
	if opts.MutationTimeout == 0 {
		opts.MutationTimeout = 10 * time.Second
	}
	if opts.RevertWindow == 0 {
		opts.RevertWindow = 25 * time.Second
	}
	if opts.ActivityDisplayLimit == 0 {
		opts.ActivityDisplayLimit = 20
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Board{
		orders:          orders,
		ledger:          ledger,
		notifier:        notifier,
		log:             activity.NewLog(opts.RevertWindow, opts.ActivityDisplayLimit, opts.Now),
		lgr:             lgr,
		pollInterval:    opts.PollInterval,
		pruneInterval:   opts.PruneInterval,
		mutationTimeout: opts.MutationTimeout,
		now:             opts.Now,
		queue:           newEventQueue(),
		inFlight:        make(map[string]bool),
	}
}

// Start launches the consumer loop, the poll fallback, and the activity
// prune ticker. All of them stop when ctx is cancelled. Start is idempotent.
func (b *Board) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		go b.run(ctx)
		go b.pollLoop(ctx)
		go b.pruneLoop(ctx)
		go func() {
			<-ctx.Done()
			b.queue.Close()
		}()
	})
}

// Bootstrap performs the full paginated fetch and replaces the board. On
// failure the board stays (or becomes) unavailable and the call may simply
// be repeated.
func (b *Board) Bootstrap(ctx context.Context) error {
	orders, err := b.fetchAll(ctx)
	if err != nil {
		b.lgr.Error("bootstrap_failed", "Bootstrap fetch failed", "", nil, err)
		return fmt.Errorf("%w: %v", ErrBoardUnavailable, err)
	}

	b.queue.Enqueue(evBootstrap{orders: orders})
	return nil
}

// fetchAll walks every page of the remote store.
func (b *Board) fetchAll(ctx context.Context) ([]*domain.Order, error) {
	var all []*domain.Order
	token := ""

	for page := 0; page < maxFetchPages; page++ {
		orders, next, err := b.orders.FetchOrders(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("fetch orders page: %w", err)
		}
		all = append(all, orders...)
		if next == "" {
			return all, nil
		}
		token = next
	}
	return nil, fmt.Errorf("fetch orders: page limit exceeded")
}

// pollLoop re-fetches the whole board on a short interval until the push
// channel delivers its first event. This is the bootstrap safety net, not
// the steady-state mechanism; once push is confirmed live the loop stops for
// good.
func (b *Board) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if b.isRealtime() {
				return
			}
			orders, err := b.fetchAll(ctx)
			if err != nil {
				b.lgr.Warn("poll_fetch_failed", "Poll fetch failed", "", map[string]interface{}{
					"error": err.Error(),
				})
				continue
			}
			b.queue.Enqueue(evPoll{orders: orders})
		}
	}
}

func (b *Board) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(b.pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.queue.Enqueue(evPrune{})
		}
	}
}

// run is the single consumer loop; nothing else mutates the board.
func (b *Board) run(ctx context.Context) {
	for {
		ev, ok := b.queue.Dequeue(ctx)
		if !ok {
			return
		}
		b.handle(ev)
	}
}

func (b *Board) handle(ev event) {
	switch e := ev.(type) {
	case evBootstrap:
		b.replaceBoard(e.orders, true)
		b.lgr.Info("board_bootstrapped", "Board rebuilt from full fetch", "", map[string]interface{}{
			"orders": len(e.orders),
		})
	case evPoll:
		if b.isRealtime() {
			return
		}
		b.replaceBoard(e.orders, true)
	case evPushInserted:
		b.handlePushInserted(e.order)
	case evPushUpdated:
		b.handlePushUpdated(e.order)
	case evApply:
		b.handleApply(e)
	case evMutationDone:
		b.handleMutationDone(e)
	case evRevert:
		b.handleRevert(e)
	case evPlaced:
		b.addOrder(e.order)
	case evPrune:
		b.log.Prune()
	}
}

// PushInserted feeds an inserted push event into the loop. Called by the
// change-feed consumer adapter.
func (b *Board) PushInserted(order *domain.Order) {
	b.queue.Enqueue(evPushInserted{order: order})
}

// PushUpdated feeds an updated push event into the loop.
func (b *Board) PushUpdated(order *domain.Order) {
	b.queue.Enqueue(evPushUpdated{order: order})
}

func (b *Board) handlePushInserted(order *domain.Order) {
	b.markRealtime()
	metrics.PushEventsTotal.WithLabelValues("inserted").Inc()

	if b.inFlight[order.ID] {
		b.rejectPush(order.ID)
		return
	}
	if b.findAny(order.ID) != nil {
		// Already known (our own placement, or a duplicate delivery).
		return
	}
	b.addOrder(order)
}

func (b *Board) handlePushUpdated(order *domain.Order) {
	b.markRealtime()
	metrics.PushEventsTotal.WithLabelValues("updated").Inc()

	if b.inFlight[order.ID] {
		b.rejectPush(order.ID)
		return
	}

	b.mu.Lock()
	b.removeLocked(order.ID)
	if order.Status.Terminal() {
		b.terminal = append([]*domain.Order{order}, b.terminal...)
	} else {
		b.live = append(b.live, order)
		domain.SortLive(b.live)
	}
	b.updateGaugesLocked()
	b.mu.Unlock()
}

func (b *Board) rejectPush(orderID string) {
	metrics.PushEventsRejectedTotal.Inc()
	b.lgr.Warn("push_event_rejected", "Push event rejected for in-flight order", orderID, nil)
}

// addOrder places an order in the partition its status dictates.
func (b *Board) addOrder(order *domain.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.findLocked(order.ID) != nil {
		return
	}
	if order.Status.Terminal() {
		b.terminal = append([]*domain.Order{order}, b.terminal...)
	} else {
		b.live = append(b.live, order)
		domain.SortLive(b.live)
	}
	b.updateGaugesLocked()
}

// replaceBoard partitions a full fetch result and swaps it in wholesale.
func (b *Board) replaceBoard(orders []*domain.Order, markAvailable bool) {
	var live, terminal []*domain.Order
	for _, o := range orders {
		if o.Status.Terminal() {
			terminal = append(terminal, o)
		} else {
			live = append(live, o)
		}
	}
	domain.SortLive(live)
	domain.SortTerminal(terminal)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.live = live
	b.terminal = terminal
	if markAvailable {
		b.available = true
	}
	b.updateGaugesLocked()
}

func (b *Board) markRealtime() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.realtime {
		b.realtime = true
		b.lgr.Info("push_confirmed", "Push channel live; poll fallback stopped", "", nil)
	}
}

func (b *Board) isRealtime() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.realtime
}

func (b *Board) isAvailable() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.available
}

// findAny looks an order up in either partition. Only the consumer loop may
// call it without holding the lock.
func (b *Board) findAny(orderID string) *domain.Order {
	return b.findLocked(orderID)
}

func (b *Board) findLocked(orderID string) *domain.Order {
	for _, o := range b.live {
		if o.ID == orderID {
			return o
		}
	}
	for _, o := range b.terminal {
		if o.ID == orderID {
			return o
		}
	}
	return nil
}

func (b *Board) removeLocked(orderID string) {
	for i, o := range b.live {
		if o.ID == orderID {
			b.live = append(b.live[:i], b.live[i+1:]...)
			return
		}
	}
	for i, o := range b.terminal {
		if o.ID == orderID {
			b.terminal = append(b.terminal[:i], b.terminal[i+1:]...)
			return
		}
	}
}

func (b *Board) updateGaugesLocked() {
	metrics.BoardLiveOrders.Set(float64(len(b.live)))
	metrics.BoardTerminalOrders.Set(float64(len(b.terminal)))
}

// Live returns a copy of the live partition, sorted ascending by creation
// time (strict FIFO).
func (b *Board) Live(ctx context.Context) ([]*domain.Order, error) {
	return b.partition(&b.live)
}

// Terminal returns a copy of the terminal partition, most recent first.
func (b *Board) Terminal(ctx context.Context) ([]*domain.Order, error) {
	return b.partition(&b.terminal)
}

func (b *Board) partition(src *[]*domain.Order) ([]*domain.Order, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.available {
		return nil, ErrBoardUnavailable
	}
	out := make([]*domain.Order, len(*src))
	for i, o := range *src {
		out[i] = o.Clone()
	}
	return out, nil
}

// Activity returns the recent activity feed, display-capped.
func (b *Board) Activity(ctx context.Context) ([]*domain.ActivityEntry, error) {
	return b.log.Recent(), nil
}
