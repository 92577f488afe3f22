package board

import (
	"context"
	"sync"
)

// eventQueue is a thread-safe FIFO queue feeding the board's single consumer
// loop. It is unbounded so push events arriving while a remote call is in
// flight are buffered, never dropped.
//
// The signal channel (buffered, size 1) coalesces wake-ups so Dequeue can
// wait without spinning and without missing enqueues.
type eventQueue struct {
	mu     sync.Mutex
	events []event
	closed bool
	signal chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]event, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue. Safe from any goroutine.
// Returns false once the queue is closed.
func (q *eventQueue) Enqueue(e event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.events = append(q.events, e)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// Dequeue removes and returns the front event, waiting until one is
// available. Returns false when ctx is cancelled or the queue is closed and
// drained.
func (q *eventQueue) Dequeue(ctx context.Context) (event, bool) {
	for {
		if e, ok := q.tryDequeue(); ok {
			return e, true
		}

		q.mu.Lock()
		closed := q.closed && len(q.events) == 0
		q.mu.Unlock()
		if closed {
			return nil, false
		}

		select {
		case <-ctx.Done():
			return nil, false
		case <-q.signal:
		}
	}
}

func (q *eventQueue) tryDequeue() (event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return nil, false
	}

	e := q.events[0]
	q.events = q.events[1:]

	// Keep the signal set if more events remain, so the next Dequeue does
	// not block behind the coalesced wake-up.
	if len(q.events) > 0 {
		select {
		case q.signal <- struct{}{}:
		default:
		}
	}
	return e, true
}

// Close stops further enqueues. Buffered events still drain.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true

	select {
	case q.signal <- struct{}{}:
	default:
	}
}
