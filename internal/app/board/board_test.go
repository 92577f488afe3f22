package board

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/adapter/logger"
	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/app/activity"
	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/app/stock"
	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/domain"
	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/interfaces"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeOrderStore serves a mutable order set, optionally split into pages, and
// can fail or block individual operations.
type fakeOrderStore struct {
	mu       sync.Mutex
	orders   []*domain.Order
	pageSize int

	fetchErr   error
	fetchCalls int

	insertErr error

	updateErr     error
	updateCalls   []string
	updateEntered chan struct{}
	updateGate    chan struct{}
}

func newFakeOrderStore(orders ...*domain.Order) *fakeOrderStore {
	return &fakeOrderStore{orders: orders}
}

func (s *fakeOrderStore) FetchOrders(_ context.Context, pageToken string) ([]*domain.Order, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fetchCalls++
	if s.fetchErr != nil {
		return nil, "", s.fetchErr
	}

	out := make([]*domain.Order, len(s.orders))
	for i, o := range s.orders {
		out[i] = o.Clone()
	}

	if s.pageSize <= 0 {
		return out, "", nil
	}

	start := 0
	if pageToken != "" {
		if _, err := fmt.Sscanf(pageToken, "%d", &start); err != nil {
			return nil, "", err
		}
	}
	end := start + s.pageSize
	if end >= len(out) {
		return out[start:], "", nil
	}
	return out[start:end], fmt.Sprintf("%d", end), nil
}

func (s *fakeOrderStore) Insert(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.insertErr != nil {
		return s.insertErr
	}
	s.orders = append(s.orders, order.Clone())
	return nil
}

func (s *fakeOrderStore) UpdateStatus(_ context.Context, orderID string, status domain.Status) error {
	s.mu.Lock()
	entered := s.updateEntered
	gate := s.updateGate
	s.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.updateCalls = append(s.updateCalls, orderID+":"+string(status))
	if s.updateErr != nil {
		return s.updateErr
	}
	for _, o := range s.orders {
		if o.ID == orderID {
			o.Status = status
		}
	}
	return nil
}

func (s *fakeOrderStore) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchCalls
}

func (s *fakeOrderStore) storedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

type fakeLedger struct {
	mu      sync.Mutex
	err     error
	adjusts map[string][]int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{adjusts: make(map[string][]int)}
}

func (l *fakeLedger) Adjust(_ context.Context, itemID string, delta int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.adjusts[itemID] = append(l.adjusts[itemID], delta)
	return l.err
}

func (l *fakeLedger) failWith(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = err
}

func (l *fakeLedger) Set(context.Context, string, int) error { return nil }

func (l *fakeLedger) deltas(itemID string) []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]int, len(l.adjusts[itemID]))
	copy(out, l.adjusts[itemID])
	return out
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []interfaces.NotificationMessage
}

func (n *fakeNotifier) PublishNotification(_ context.Context, msg interfaces.NotificationMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return nil
}

func (n *fakeNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.messages))
	for i, m := range n.messages {
		out[i] = m.Kind
	}
	return out
}

type fixture struct {
	board    *Board
	store    *fakeOrderStore
	ledger   *fakeLedger
	notifier *fakeNotifier
	clock    *fakeClock
}

func newFixture(t *testing.T, store *fakeOrderStore, opts Options) *fixture {
	t.Helper()

	clock := newFakeClock()
	if opts.Now == nil {
		opts.Now = clock.Now
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = time.Hour
	}
	if opts.PruneInterval == 0 {
		opts.PruneInterval = time.Hour
	}

	f := &fixture{
		store:    store,
		ledger:   newFakeLedger(),
		notifier: &fakeNotifier{},
		clock:    clock,
	}
	f.board = New(store, f.ledger, f.notifier, logger.Nop(), opts)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	f.board.Start(ctx)

	return f
}

func (f *fixture) bootstrap(t *testing.T) {
	t.Helper()
	require.NoError(t, f.board.Bootstrap(context.Background()))
	require.Eventually(t, func() bool {
		_, err := f.board.Live(context.Background())
		return err == nil
	}, waitFor, tick)
}

func makeOrder(id string, status domain.Status, createdAt time.Time) *domain.Order {
	return &domain.Order{
		ID:     id,
		Token:  "TOK" + id,
		Kind:   domain.OrderKindDineIn,
		Origin: domain.OrderOriginCounter,
		Items: []domain.OrderItem{
			{ItemID: "item-" + id, Name: "Veg Thali", Quantity: 2, Price: 80},
		},
		TotalAmount: 160,
		Status:      status,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

func liveIDs(t *testing.T, b *Board) []string {
	t.Helper()
	orders, err := b.Live(context.Background())
	require.NoError(t, err)
	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	return ids
}

func terminalIDs(t *testing.T, b *Board) []string {
	t.Helper()
	orders, err := b.Terminal(context.Background())
	require.NoError(t, err)
	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	return ids
}

func assertPartitionsDisjoint(t *testing.T, b *Board) {
	t.Helper()
	seen := map[string]bool{}
	for _, id := range liveIDs(t, b) {
		seen[id] = true
	}
	for _, id := range terminalIDs(t, b) {
		assert.False(t, seen[id], "order %s in both partitions", id)
	}
}

func TestBoard_UnavailableBeforeBootstrap(t *testing.T) {
	f := newFixture(t, newFakeOrderStore(), Options{})

	_, err := f.board.Live(context.Background())
	assert.ErrorIs(t, err, ErrBoardUnavailable)

	_, err = f.board.Terminal(context.Background())
	assert.ErrorIs(t, err, ErrBoardUnavailable)

	err = f.board.RequestStatusChange(context.Background(), "any", domain.StatusReady)
	assert.ErrorIs(t, err, ErrBoardUnavailable)

	_, err = f.board.PlaceOrder(context.Background(), interfaces.PlaceOrderCommand{})
	assert.ErrorIs(t, err, ErrBoardUnavailable)
}

func TestBoard_BootstrapPartitionsAndSorts(t *testing.T) {
	base := newFakeClock().Now()
	store := newFakeOrderStore(
		makeOrder("b", domain.StatusPreparing, base.Add(2*time.Minute)),
		makeOrder("a", domain.StatusPreparing, base.Add(time.Minute)),
		makeOrder("c", domain.StatusDelivered, base),
		makeOrder("d", domain.StatusCancelled, base.Add(3*time.Minute)),
	)
	f := newFixture(t, store, Options{})
	f.bootstrap(t)

	assert.Equal(t, []string{"a", "b"}, liveIDs(t, f.board), "live partition is oldest first")
	assert.Equal(t, []string{"d", "c"}, terminalIDs(t, f.board), "terminal partition is newest first")
	assertPartitionsDisjoint(t, f.board)
}

func TestBoard_BootstrapPaginates(t *testing.T) {
	base := newFakeClock().Now()
	store := newFakeOrderStore(
		makeOrder("a", domain.StatusPreparing, base),
		makeOrder("b", domain.StatusPreparing, base.Add(time.Second)),
		makeOrder("c", domain.StatusPreparing, base.Add(2*time.Second)),
		makeOrder("d", domain.StatusPreparing, base.Add(3*time.Second)),
		makeOrder("e", domain.StatusPreparing, base.Add(4*time.Second)),
	)
	store.pageSize = 2
	f := newFixture(t, store, Options{})
	f.bootstrap(t)

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, liveIDs(t, f.board))
	assert.Equal(t, 3, store.fetchCount())
}

func TestBoard_BootstrapFailureIsRetriable(t *testing.T) {
	store := newFakeOrderStore(makeOrder("a", domain.StatusPreparing, newFakeClock().Now()))
	store.fetchErr = errors.New("store down")
	f := newFixture(t, store, Options{})

	err := f.board.Bootstrap(context.Background())
	assert.ErrorIs(t, err, ErrBoardUnavailable)

	_, err = f.board.Live(context.Background())
	assert.ErrorIs(t, err, ErrBoardUnavailable, "failed bootstrap must not present an empty board")

	store.mu.Lock()
	store.fetchErr = nil
	store.mu.Unlock()

	f.bootstrap(t)
	assert.Equal(t, []string{"a"}, liveIDs(t, f.board))
}

func TestBoard_PollFallbackPicksUpChanges(t *testing.T) {
	store := newFakeOrderStore()
	f := newFixture(t, store, Options{PollInterval: 10 * time.Millisecond})
	f.bootstrap(t)

	store.mu.Lock()
	store.orders = append(store.orders, makeOrder("a", domain.StatusPreparing, f.clock.Now()))
	store.mu.Unlock()

	assert.Eventually(t, func() bool {
		orders, err := f.board.Live(context.Background())
		return err == nil && len(orders) == 1 && orders[0].ID == "a"
	}, waitFor, tick)
}

func TestBoard_PollStopsAfterFirstPushEvent(t *testing.T) {
	store := newFakeOrderStore()
	f := newFixture(t, store, Options{PollInterval: 10 * time.Millisecond})
	f.bootstrap(t)

	f.board.PushInserted(makeOrder("a", domain.StatusPreparing, f.clock.Now()))

	assert.Eventually(t, func() bool {
		return len(liveIDs(t, f.board)) == 1
	}, waitFor, tick)

	// Once push is confirmed the poll loop stops for good: the fetch count
	// must settle even though the ticker keeps firing.
	var settled int
	assert.Eventually(t, func() bool {
		n := store.fetchCount()
		if n == settled {
			return true
		}
		settled = n
		return false
	}, waitFor, 50*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, settled, store.fetchCount())
}

func TestBoard_PushInsertedIsIdempotent(t *testing.T) {
	f := newFixture(t, newFakeOrderStore(), Options{})
	f.bootstrap(t)

	order := makeOrder("a", domain.StatusPreparing, f.clock.Now())
	f.board.PushInserted(order)
	f.board.PushInserted(order.Clone())

	assert.Eventually(t, func() bool {
		return len(liveIDs(t, f.board)) == 1
	}, waitFor, tick)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []string{"a"}, liveIDs(t, f.board))
}

func TestBoard_PushUpdatedMovesBetweenPartitions(t *testing.T) {
	base := newFakeClock().Now()
	store := newFakeOrderStore(makeOrder("a", domain.StatusPreparing, base))
	f := newFixture(t, store, Options{})
	f.bootstrap(t)

	done := makeOrder("a", domain.StatusDelivered, base)
	f.board.PushUpdated(done)

	assert.Eventually(t, func() bool {
		return len(terminalIDs(t, f.board)) == 1
	}, waitFor, tick)
	assert.Empty(t, liveIDs(t, f.board))
	assertPartitionsDisjoint(t, f.board)
}

func TestBoard_PushUpdatedForUnknownOrderAddsIt(t *testing.T) {
	f := newFixture(t, newFakeOrderStore(), Options{})
	f.bootstrap(t)

	f.board.PushUpdated(makeOrder("a", domain.StatusReady, f.clock.Now()))

	assert.Eventually(t, func() bool {
		ids := liveIDs(t, f.board)
		return len(ids) == 1 && ids[0] == "a"
	}, waitFor, tick)
}

func TestBoard_StatusChangeCommits(t *testing.T) {
	base := newFakeClock().Now()
	store := newFakeOrderStore(makeOrder("a", domain.StatusPreparing, base))
	f := newFixture(t, store, Options{})
	f.bootstrap(t)

	require.NoError(t, f.board.RequestStatusChange(context.Background(), "a", domain.StatusReady))

	orders, err := f.board.Live(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, domain.StatusReady, orders[0].Status)

	require.NoError(t, f.board.RequestStatusChange(context.Background(), "a", domain.StatusDelivered))

	terminal, err := f.board.Terminal(context.Background())
	require.NoError(t, err)
	require.Len(t, terminal, 1)
	assert.Equal(t, domain.StatusDelivered, terminal[0].Status)
	require.NotNil(t, terminal[0].DeliveredAt)
	assert.Empty(t, liveIDs(t, f.board))

	entries, err := f.board.Activity(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestBoard_StatusChangeRejectsInvalidTransition(t *testing.T) {
	store := newFakeOrderStore(makeOrder("a", domain.StatusDelivered, newFakeClock().Now()))
	f := newFixture(t, store, Options{})
	f.bootstrap(t)

	err := f.board.RequestStatusChange(context.Background(), "a", domain.StatusReady)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestBoard_StatusChangeUnknownOrder(t *testing.T) {
	f := newFixture(t, newFakeOrderStore(), Options{})
	f.bootstrap(t)

	err := f.board.RequestStatusChange(context.Background(), "nope", domain.StatusReady)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestBoard_RemoteFailureRollsBackSnapshot(t *testing.T) {
	base := newFakeClock().Now()
	store := newFakeOrderStore(makeOrder("a", domain.StatusPreparing, base))
	store.updateErr = errors.New("store down")
	f := newFixture(t, store, Options{})
	f.bootstrap(t)

	err := f.board.RequestStatusChange(context.Background(), "a", domain.StatusCancelled)
	require.Error(t, err)

	orders, rerr := f.board.Live(context.Background())
	require.NoError(t, rerr)
	require.Len(t, orders, 1, "rolled-back order stays live")
	assert.Equal(t, domain.StatusPreparing, orders[0].Status)
	assert.Empty(t, terminalIDs(t, f.board))

	entries, _ := f.board.Activity(context.Background())
	assert.Empty(t, entries, "failed mutations leave no activity entry")

	assert.Empty(t, f.ledger.deltas("item-a"), "failed cancellation must not touch stock")
}

func TestBoard_ConcurrentMutationRejected(t *testing.T) {
	store := newFakeOrderStore(makeOrder("a", domain.StatusPreparing, newFakeClock().Now()))
	store.updateEntered = make(chan struct{}, 1)
	store.updateGate = make(chan struct{})
	f := newFixture(t, store, Options{})
	f.bootstrap(t)

	first := make(chan error, 1)
	go func() {
		first <- f.board.RequestStatusChange(context.Background(), "a", domain.StatusReady)
	}()
	<-store.updateEntered

	err := f.board.RequestStatusChange(context.Background(), "a", domain.StatusCancelled)
	assert.ErrorIs(t, err, ErrOrderInFlight)

	close(store.updateGate)
	require.NoError(t, <-first)
}

func TestBoard_PushRejectedWhileInFlight(t *testing.T) {
	base := newFakeClock().Now()
	store := newFakeOrderStore(makeOrder("a", domain.StatusPreparing, base))
	store.updateEntered = make(chan struct{}, 1)
	store.updateGate = make(chan struct{})
	f := newFixture(t, store, Options{})
	f.bootstrap(t)

	first := make(chan error, 1)
	go func() {
		first <- f.board.RequestStatusChange(context.Background(), "a", domain.StatusReady)
	}()
	<-store.updateEntered

	// A stale push for the in-flight order must be dropped, not applied.
	f.board.PushUpdated(makeOrder("a", domain.StatusCancelled, base))

	close(store.updateGate)
	require.NoError(t, <-first)

	orders, err := f.board.Live(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, domain.StatusReady, orders[0].Status)
	assert.Empty(t, terminalIDs(t, f.board))
}

func TestBoard_CancellationRestoresStockAndNotifies(t *testing.T) {
	store := newFakeOrderStore(makeOrder("a", domain.StatusPreparing, newFakeClock().Now()))
	f := newFixture(t, store, Options{})
	f.bootstrap(t)

	require.NoError(t, f.board.RequestStatusChange(context.Background(), "a", domain.StatusCancelled))

	assert.Eventually(t, func() bool {
		deltas := f.ledger.deltas("item-a")
		return len(deltas) == 1 && deltas[0] == 2
	}, waitFor, tick)

	assert.Eventually(t, func() bool {
		kinds := f.notifier.kinds()
		return len(kinds) == 1 && kinds[0] == interfaces.NotificationCancelled
	}, waitFor, tick)
}

func TestBoard_CancellationCommitsDespiteStockFailure(t *testing.T) {
	store := newFakeOrderStore(makeOrder("a", domain.StatusPreparing, newFakeClock().Now()))
	f := newFixture(t, store, Options{})
	f.bootstrap(t)
	f.ledger.failWith(stock.ErrStockNotAdjusted)

	require.NoError(t, f.board.RequestStatusChange(context.Background(), "a", domain.StatusCancelled),
		"an exhausted stock adjustment must not fail the mutation")

	terminal, err := f.board.Terminal(context.Background())
	require.NoError(t, err)
	require.Len(t, terminal, 1)
	assert.Equal(t, domain.StatusCancelled, terminal[0].Status)
	assert.Empty(t, liveIDs(t, f.board))

	// The restore was attempted; its failure stays a warning.
	assert.Eventually(t, func() bool {
		return len(f.ledger.deltas("item-a")) == 1
	}, waitFor, tick)
	assert.Equal(t, []string{"a"}, terminalIDs(t, f.board))

	entries, err := f.board.Activity(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "the committed transition stays recorded")
}

func TestBoard_PlacementCommitsDespiteStockFailure(t *testing.T) {
	f := newFixture(t, newFakeOrderStore(), Options{})
	f.bootstrap(t)
	f.ledger.failWith(stock.ErrStockNotAdjusted)

	order, err := f.board.PlaceOrder(context.Background(), interfaces.PlaceOrderCommand{
		Kind:   "dine_in",
		Origin: "counter",
		Items: []interfaces.PlaceOrderItemCommand{
			{ItemID: "samosa", Name: "Samosa", Quantity: 1, Price: 15},
		},
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		ids := liveIDs(t, f.board)
		return len(ids) == 1 && ids[0] == order.ID
	}, waitFor, tick)
	assert.Eventually(t, func() bool {
		return len(f.ledger.deltas("samosa")) == 1
	}, waitFor, tick)
}

func TestBoard_DeliveryDoesNotTouchStock(t *testing.T) {
	store := newFakeOrderStore(makeOrder("a", domain.StatusReady, newFakeClock().Now()))
	f := newFixture(t, store, Options{})
	f.bootstrap(t)

	require.NoError(t, f.board.RequestStatusChange(context.Background(), "a", domain.StatusDelivered))

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, f.ledger.deltas("item-a"))
	assert.Empty(t, f.notifier.kinds())
}

func TestBoard_RevertCancellationSkipsStockDecrement(t *testing.T) {
	store := newFakeOrderStore(makeOrder("a", domain.StatusPreparing, newFakeClock().Now()))
	f := newFixture(t, store, Options{})
	f.bootstrap(t)

	require.NoError(t, f.board.RequestStatusChange(context.Background(), "a", domain.StatusCancelled))

	entries, err := f.board.Activity(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.Eventually(t, func() bool {
		return len(f.ledger.deltas("item-a")) == 1
	}, waitFor, tick)

	require.NoError(t, f.board.RequestRevert(context.Background(), entries[0].ID))

	orders, err := f.board.Live(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, domain.StatusPreparing, orders[0].Status)
	assert.Empty(t, terminalIDs(t, f.board))

	// Undoing a cancellation restores the order but never re-consumes stock.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []int{2}, f.ledger.deltas("item-a"))

	entries, err = f.board.Activity(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries, "a revert consumes its activity entry")

	err = f.board.RequestRevert(context.Background(), "gone")
	assert.ErrorIs(t, err, activity.ErrEntryNotFound)
}

func TestBoard_RevertDeliveryClearsDeliveredAt(t *testing.T) {
	store := newFakeOrderStore(makeOrder("a", domain.StatusReady, newFakeClock().Now()))
	f := newFixture(t, store, Options{})
	f.bootstrap(t)

	require.NoError(t, f.board.RequestStatusChange(context.Background(), "a", domain.StatusDelivered))

	entries, err := f.board.Activity(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, f.board.RequestRevert(context.Background(), entries[0].ID))

	orders, err := f.board.Live(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, domain.StatusReady, orders[0].Status)
	assert.Nil(t, orders[0].DeliveredAt)
}

func TestBoard_RevertRejectedWhenSuperseded(t *testing.T) {
	store := newFakeOrderStore(makeOrder("a", domain.StatusPreparing, newFakeClock().Now()))
	f := newFixture(t, store, Options{})
	f.bootstrap(t)

	require.NoError(t, f.board.RequestStatusChange(context.Background(), "a", domain.StatusReady))
	require.NoError(t, f.board.RequestStatusChange(context.Background(), "a", domain.StatusDelivered))

	entries, err := f.board.Activity(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	stale := entries[1]
	require.Equal(t, domain.StatusReady, stale.To)

	err = f.board.RequestRevert(context.Background(), stale.ID)
	assert.ErrorIs(t, err, ErrRevertSuperseded)

	terminal, err := f.board.Terminal(context.Background())
	require.NoError(t, err)
	require.Len(t, terminal, 1)
	assert.Equal(t, domain.StatusDelivered, terminal[0].Status)
	assert.NotNil(t, terminal[0].DeliveredAt)

	entries, err = f.board.Activity(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 2, "a rejected revert consumes nothing")
}

func TestBoard_RevertExpiresAfterWindow(t *testing.T) {
	store := newFakeOrderStore(makeOrder("a", domain.StatusPreparing, newFakeClock().Now()))
	f := newFixture(t, store, Options{RevertWindow: 25 * time.Second})
	f.bootstrap(t)

	require.NoError(t, f.board.RequestStatusChange(context.Background(), "a", domain.StatusCancelled))

	entries, err := f.board.Activity(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)

	f.clock.Advance(25*time.Second + time.Millisecond)

	err = f.board.RequestRevert(context.Background(), entries[0].ID)
	assert.ErrorIs(t, err, ErrRevertExpired)

	assert.Equal(t, []string{"a"}, terminalIDs(t, f.board), "expired revert leaves the order terminal")
}

func TestBoard_PlaceOrder(t *testing.T) {
	store := newFakeOrderStore()
	f := newFixture(t, store, Options{})
	f.bootstrap(t)

	order, err := f.board.PlaceOrder(context.Background(), interfaces.PlaceOrderCommand{
		Kind:   "takeaway",
		Origin: "counter",
		Items: []interfaces.PlaceOrderItemCommand{
			{ItemID: "samosa", Name: "Samosa", Quantity: 3, Price: 15},
			{ItemID: "chai", Name: "Chai", Quantity: 2, Price: 10},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPreparing, order.Status)
	assert.Equal(t, 65.0, order.TotalAmount)
	assert.Len(t, order.Token, 6)

	assert.Eventually(t, func() bool {
		ids := liveIDs(t, f.board)
		return len(ids) == 1 && ids[0] == order.ID
	}, waitFor, tick)

	assert.Eventually(t, func() bool {
		return len(f.ledger.deltas("samosa")) == 1 && len(f.ledger.deltas("chai")) == 1
	}, waitFor, tick)
	assert.Equal(t, []int{-3}, f.ledger.deltas("samosa"))
	assert.Equal(t, []int{-2}, f.ledger.deltas("chai"))

	assert.Eventually(t, func() bool {
		kinds := f.notifier.kinds()
		return len(kinds) == 1 && kinds[0] == interfaces.NotificationPlaced
	}, waitFor, tick)
}

func TestBoard_PlaceOrderRemoteFailureLeavesNoTrace(t *testing.T) {
	store := newFakeOrderStore()
	store.insertErr = errors.New("store down")
	f := newFixture(t, store, Options{})
	f.bootstrap(t)

	_, err := f.board.PlaceOrder(context.Background(), interfaces.PlaceOrderCommand{
		Kind:   "dine_in",
		Origin: "app",
		Items: []interfaces.PlaceOrderItemCommand{
			{ItemID: "samosa", Name: "Samosa", Quantity: 1, Price: 15},
		},
	})
	require.Error(t, err)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, liveIDs(t, f.board))
	assert.Empty(t, f.ledger.deltas("samosa"))
	assert.Empty(t, f.notifier.kinds())
}

func TestBoard_PlaceOrderValidation(t *testing.T) {
	f := newFixture(t, newFakeOrderStore(), Options{})
	f.bootstrap(t)

	_, err := f.board.PlaceOrder(context.Background(), interfaces.PlaceOrderCommand{
		Kind:   "drive_through",
		Origin: "counter",
		Items: []interfaces.PlaceOrderItemCommand{
			{ItemID: "samosa", Name: "Samosa", Quantity: 1, Price: 15},
		},
	})
	assert.Error(t, err)
	assert.Equal(t, 0, f.store.storedCount())
}

func TestBoard_PlacementAndPushInsertDeduplicate(t *testing.T) {
	store := newFakeOrderStore()
	f := newFixture(t, store, Options{})
	f.bootstrap(t)

	order, err := f.board.PlaceOrder(context.Background(), interfaces.PlaceOrderCommand{
		Kind:   "dine_in",
		Origin: "app",
		Items: []interfaces.PlaceOrderItemCommand{
			{ItemID: "samosa", Name: "Samosa", Quantity: 1, Price: 15},
		},
	})
	require.NoError(t, err)

	// The change feed echoes our own insert back at us.
	f.board.PushInserted(order.Clone())

	assert.Eventually(t, func() bool {
		return len(liveIDs(t, f.board)) >= 1
	}, waitFor, tick)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []string{order.ID}, liveIDs(t, f.board))
}
