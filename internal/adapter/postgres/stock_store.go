package postgres

import (
	"context"
	"fmt"

	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/interfaces"
)

type stockStore struct {
	db DB
}

func NewStockStore(db DB) interfaces.StockStore {
	return &stockStore{db: db}
}

func (s *stockStore) GetQuantity(ctx context.Context, itemID string) (int, error) {
	var quantity int
	err := s.db.QueryRow(ctx,
		`SELECT quantity FROM stock_items WHERE item_id = $1`, itemID,
	).Scan(&quantity)
	if err != nil {
		return 0, fmt.Errorf("stock item %s not found: %w", itemID, err)
	}
	return quantity, nil
}

// SetQuantityAndAvailability writes both fields in one UPDATE so the
// availability flag can never drift from the quantity.
func (s *stockStore) SetQuantityAndAvailability(ctx context.Context, itemID string, quantity int, available bool) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE stock_items
		SET quantity = $1, available = $2, updated_at = now()
		WHERE item_id = $3
	`, quantity, available, itemID)
	if err != nil {
		return fmt.Errorf("failed to update stock item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("stock item %s not found", itemID)
	}
	return nil
}
