package interfaces

import (
	"context"

	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/domain"
)

// OrderStore is the remote order persistence collaborator. The board engine
// treats it as the source of truth; the in-memory board is a rebuildable
// cache over it.
type OrderStore interface {
	// FetchOrders returns one page of orders plus the token for the next
	// page; an empty token means the last page. Passing an empty token
	// fetches the first page.
	FetchOrders(ctx context.Context, pageToken string) ([]*domain.Order, string, error)

	// Insert persists a newly placed order with its item lines.
	Insert(ctx context.Context, order *domain.Order) error

	// UpdateStatus persists a status change. The call is idempotent: writing
	// the same status twice leaves the row unchanged, so callers may retry.
	UpdateStatus(ctx context.Context, orderID string, status domain.Status) error
}

// StockStore is the remote stock persistence collaborator.
type StockStore interface {
	GetQuantity(ctx context.Context, itemID string) (int, error)

	// SetQuantityAndAvailability writes both fields in one update so the
	// availability flag can never drift from the quantity.
	SetQuantityAndAvailability(ctx context.Context, itemID string, quantity int, available bool) error
}
