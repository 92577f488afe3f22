package interfaces

import (
	"context"
	"time"

	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/domain"
)

// Push-feed event types delivered on the orders_feed exchange.
const (
	FeedEventInserted = "inserted"
	FeedEventUpdated  = "updated"
)

// OrderFeedMessage is one push-channel event: an order was inserted into or
// updated in the remote store.
type OrderFeedMessage struct {
	Event string    `json:"event"`
	Order FeedOrder `json:"order"`
}

// FeedOrder is the wire form of an order on the push feed.
type FeedOrder struct {
	ID          string         `json:"id"`
	Token       string         `json:"token"`
	Kind        string         `json:"kind"`
	Origin      string         `json:"origin"`
	Items       []FeedItem     `json:"items"`
	TotalAmount float64        `json:"total_amount"`
	Status      string         `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeliveredAt *time.Time     `json:"delivered_at,omitempty"`
}

type FeedItem struct {
	ItemID   string  `json:"item_id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// ToDomain converts the wire order into the domain entity.
func (f FeedOrder) ToDomain() *domain.Order {
	items := make([]domain.OrderItem, len(f.Items))
	for i, it := range f.Items {
		items[i] = domain.OrderItem{
			ItemID:   it.ItemID,
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    it.Price,
		}
	}
	return &domain.Order{
		ID:          f.ID,
		Token:       f.Token,
		Kind:        domain.OrderKind(f.Kind),
		Origin:      domain.OrderOrigin(f.Origin),
		Items:       items,
		TotalAmount: f.TotalAmount,
		Status:      domain.Status(f.Status),
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
		DeliveredAt: f.DeliveredAt,
	}
}

// Notification kinds published after committed board mutations.
const (
	NotificationPlaced    = "placed"
	NotificationCancelled = "cancelled"
)

// NotificationMessage is the fire-and-forget message published to the
// board_notifications exchange. Delivery failures never roll back the order
// mutation that triggered them.
type NotificationMessage struct {
	Kind        string    `json:"kind"`
	OrderID     string    `json:"order_id"`
	Token       string    `json:"token"`
	Label       string    `json:"label"`
	TotalAmount float64   `json:"total_amount"`
	Timestamp   time.Time `json:"timestamp"`
}

type MessagePublisher interface {
	PublishNotification(ctx context.Context, msg NotificationMessage) error
}

type MessageConsumer interface {
	ConsumeOrderFeed(ctx context.Context, handler OrderFeedHandler) error
	ConsumeNotifications(ctx context.Context, handler NotificationHandler) error
}

type (
	OrderFeedHandler    func(ctx context.Context, body []byte) error
	NotificationHandler func(ctx context.Context, body []byte) error
)
