// Package stock implements the retrying atomic stock ledger. Every
// adjustment is a read-modify-write against the remote stock store:
// fetch the current quantity, clamp the new quantity at zero, recompute
// availability, and write both fields in one update. Adjustments for the
// same item are serialized so two concurrent orders can never interleave
// their read and write steps.
package stock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/adapter/logger"
	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/adapter/metrics"
	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/domain"
	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/interfaces"
	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/retry"
)

// ErrStockNotAdjusted reports an adjustment that exhausted all retries. The
// order mutation that triggered it still commits; callers surface this as a
// warning, never as a rollback.
var ErrStockNotAdjusted = errors.New("stock not adjusted")

type Ledger struct {
	store  interfaces.StockStore
	logger logger.Logger
	policy retry.Policy

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Options tunes the per-attempt timeout and retry schedule. Zero values fall
// back to the reference behavior: an initial try plus 3 retries backing off
// 1s/2s/4s, 8s per attempt.
type Options struct {
	MaxRetries     int
	AttemptTimeout time.Duration
	BackoffBase    time.Duration
	Sleep          func(ctx context.Context, d time.Duration) error
}

func NewLedger(store interfaces.StockStore, lgr logger.Logger, opts Options) *Ledger {
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.AttemptTimeout == 0 {
		opts.AttemptTimeout = 8 * time.Second
	}
	if opts.BackoffBase == 0 {
		opts.BackoffBase = time.Second
	}

	attempts := opts.MaxRetries + 1
	return &Ledger{
		store:  store,
		logger: lgr,
		locks:  make(map[string]*sync.Mutex),
		policy: retry.Policy{
			MaxAttempts:    attempts,
			AttemptTimeout: opts.AttemptTimeout,
			Backoff:        retry.Exponential(opts.BackoffBase, attempts),
			Sleep:          opts.Sleep,
			OnRetry: func(attempt int, err error) {
				metrics.StockAdjustRetriesTotal.Inc()
				lgr.Warn("stock_adjust_retry", "Retrying stock adjustment", "", map[string]interface{}{
					"attempt": attempt,
					"error":   err.Error(),
				})
			},
		},
	}
}

// Adjust applies a delta to one item's quantity: negative consumes stock at
// placement, positive restores it on cancellation.
func (l *Ledger) Adjust(ctx context.Context, itemID string, delta int) error {
	return l.writeQuantity(ctx, itemID, func(current int) (int, bool) {
		return domain.ApplyDelta(current, delta)
	})
}

// Set writes an absolute quantity (direct staff edit). Negative quantities
// clamp to zero.
func (l *Ledger) Set(ctx context.Context, itemID string, quantity int) error {
	return l.writeQuantity(ctx, itemID, func(int) (int, bool) {
		if quantity < 0 {
			quantity = 0
		}
		return quantity, quantity > 0
	})
}

func (l *Ledger) writeQuantity(ctx context.Context, itemID string, compute func(current int) (int, bool)) error {
	lock := l.itemLock(itemID)
	lock.Lock()
	defer lock.Unlock()

	err := retry.Do(ctx, l.policy, func(ctx context.Context) error {
		current, err := l.store.GetQuantity(ctx, itemID)
		if err != nil {
			return fmt.Errorf("read quantity: %w", err)
		}

		quantity, available := compute(current)
		if err := l.store.SetQuantityAndAvailability(ctx, itemID, quantity, available); err != nil {
			return fmt.Errorf("write quantity: %w", err)
		}
		return nil
	})
	if err != nil {
		metrics.StockAdjustFailuresTotal.Inc()
		return fmt.Errorf("%w: item %s: %v", ErrStockNotAdjusted, itemID, err)
	}
	return nil
}

// itemLock returns the mutex serializing adjustments for one item id.
func (l *Ledger) itemLock(itemID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[itemID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[itemID] = lock
	}
	return lock
}
