package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/domain"
	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/interfaces"
)

// pageSize is the keyset-pagination page size for full board fetches.
const pageSize = 50

type orderStore struct {
	db DB
}

func NewOrderStore(db DB) interfaces.OrderStore {
	return &orderStore{db: db}
}

// FetchOrders returns one page, keyed by (created_at, id) so pagination is
// stable while rows are being inserted.
func (s *orderStore) FetchOrders(ctx context.Context, pageToken string) ([]*domain.Order, string, error) {
	after, afterID, err := decodePageToken(pageToken)
	if err != nil {
		return nil, "", err
	}

	query := `
		SELECT id, token, kind, origin, total_amount, status, created_at, updated_at, delivered_at
		FROM orders
		WHERE (created_at, id) > ($1, $2)
		ORDER BY created_at, id
		LIMIT $3
	`

	rows, err := s.db.Query(ctx, query, after, afterID, pageSize)
	if err != nil {
		return nil, "", fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.Token, &o.Kind, &o.Origin, &o.TotalAmount,
			&o.Status, &o.CreatedAt, &o.UpdatedAt, &o.DeliveredAt); err != nil {
			return nil, "", fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("failed to read orders: %w", err)
	}

	if err := s.loadItems(ctx, orders); err != nil {
		return nil, "", err
	}

	next := ""
	if len(orders) == pageSize {
		last := orders[len(orders)-1]
		next = encodePageToken(last.CreatedAt, last.ID)
	}
	return orders, next, nil
}

func (s *orderStore) loadItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Order, len(orders))
	ids := make([]string, len(orders))
	for i, o := range orders {
		byID[o.ID] = o
		ids[i] = o.ID
	}

	query := `
		SELECT order_id, item_id, name, quantity, price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, item_id
	`

	rows, err := s.db.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID string
		var item domain.OrderItem
		if err := rows.Scan(&orderID, &item.ItemID, &item.Name, &item.Quantity, &item.Price); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return rows.Err()
}

// Insert persists an order with its item lines transactionally.
func (s *orderStore) Insert(ctx context.Context, order *domain.Order) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO orders (id, token, kind, origin, total_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := tx.Exec(ctx, query,
		order.ID, order.Token, order.Kind, order.Origin,
		order.TotalAmount, order.Status, order.CreatedAt, order.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, item_id, name, quantity, price)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, item := range order.Items {
		if _, err := tx.Exec(ctx, itemQuery,
			order.ID, item.ItemID, item.Name, item.Quantity, item.Price,
		); err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// UpdateStatus persists a status change in one idempotent UPDATE. The
// delivered timestamp is derived from the status so a revert clears it.
func (s *orderStore) UpdateStatus(ctx context.Context, orderID string, status domain.Status) error {
	var deliveredAt *time.Time
	if status == domain.StatusDelivered {
		now := time.Now().UTC()
		deliveredAt = &now
	}

	query := `
		UPDATE orders
		SET status = $1, updated_at = now(), delivered_at = $2
		WHERE id = $3
	`
	tag, err := s.db.Exec(ctx, query, status, deliveredAt, orderID)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %s not found", orderID)
	}
	return nil
}

// Page tokens are "unixnano|id"; opaque to callers.
func encodePageToken(createdAt time.Time, id string) string {
	return strconv.FormatInt(createdAt.UTC().UnixNano(), 10) + "|" + id
}

func decodePageToken(token string) (time.Time, string, error) {
	if token == "" {
		return time.Time{}, "", nil
	}
	parts := strings.SplitN(token, "|", 2)
	if len(parts) != 2 {
		return time.Time{}, "", fmt.Errorf("invalid page token")
	}
	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid page token: %w", err)
	}
	return time.Unix(0, nanos).UTC(), parts[1], nil
}
