package interfaces

import (
	"context"

	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/domain"
)

// BoardService is the surface the presentation layer consumes: two read-only
// partition views, the activity feed, and the four commands. The board is
// never mutated directly by callers.
type BoardService interface {
	Live(ctx context.Context) ([]*domain.Order, error)
	Terminal(ctx context.Context) ([]*domain.Order, error)
	Activity(ctx context.Context) ([]*domain.ActivityEntry, error)

	PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (*domain.Order, error)
	RequestStatusChange(ctx context.Context, orderID string, status domain.Status) error
	RequestRevert(ctx context.Context, entryID string) error
}

// StockLedger adjusts item quantities against the remote stock store with
// per-item serialization and bounded retries.
type StockLedger interface {
	// Adjust applies a delta: negative consumes stock at placement, positive
	// restores it on cancellation.
	Adjust(ctx context.Context, itemID string, delta int) error

	// Set writes an absolute quantity (direct staff edit).
	Set(ctx context.Context, itemID string, quantity int) error
}

// PlaceOrderCommand creates a new order. Placement is creation, not a status
// transition: the order always starts preparing and stock is decremented by
// each item's quantity.
type PlaceOrderCommand struct {
	Kind   string
	Origin string
	Items  []PlaceOrderItemCommand
}

type PlaceOrderItemCommand struct {
	ItemID   string
	Name     string
	Quantity int
	Price    float64
}
