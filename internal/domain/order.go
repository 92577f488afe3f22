package domain

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type OrderKind string

const (
	OrderKindDineIn   OrderKind = "dine_in"
	OrderKindTakeaway OrderKind = "takeaway"
)

type OrderOrigin string

const (
	OrderOriginApp     OrderOrigin = "app"
	OrderOriginCounter OrderOrigin = "counter"
)

// Order represents a canteen order entity. An order belongs to exactly one of
// the two board partitions at any time: live while its status is an entry
// state or ready, terminal once delivered or cancelled. Orders are never
// deleted; terminal orders are retained for reporting.
type Order struct {
	ID          string
	Token       string
	Kind        OrderKind
	Origin      OrderOrigin
	Items       []OrderItem
	TotalAmount float64
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeliveredAt *time.Time
}

// OrderItem is one catalog item line within an order.
type OrderItem struct {
	ItemID   string
	Name     string
	Quantity int
	Price    float64
}

// NewOrder creates a placed order with business rules applied. Orders always
// enter the board in StatusPreparing.
func NewOrder(kind OrderKind, origin OrderOrigin, items []OrderItem, now time.Time) (*Order, error) {
	id := uuid.NewString()

	order := &Order{
		ID:        id,
		Token:     tokenFromID(id),
		Kind:      kind,
		Origin:    origin,
		Items:     items,
		Status:    StatusPreparing,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}

	order.CalculateTotal()
	return order, nil
}

// tokenFromID derives the short display token staff call out at the counter.
func tokenFromID(id string) string {
	return strings.ToUpper(strings.ReplaceAll(id, "-", "")[:6])
}

// Validate applies business validation rules.
func (o *Order) Validate() error {
	if o.Kind != OrderKindDineIn && o.Kind != OrderKindTakeaway {
		return errors.New("invalid order kind")
	}

	if o.Origin != OrderOriginApp && o.Origin != OrderOriginCounter {
		return errors.New("invalid order origin")
	}

	if len(o.Items) < 1 || len(o.Items) > 20 {
		return errors.New("order must have 1-20 items")
	}

	for _, item := range o.Items {
		if item.ItemID == "" {
			return errors.New("item id is required")
		}
		if len(item.Name) < 1 || len(item.Name) > 50 {
			return errors.New("item name must be 1-50 characters")
		}
		if item.Quantity < 1 || item.Quantity > 10 {
			return errors.New("item quantity must be 1-10")
		}
		if item.Price < 0 || item.Price > 9999 {
			return errors.New("item price must be 0-9999")
		}
	}

	return nil
}

// CalculateTotal recomputes the total amount from the item lines.
func (o *Order) CalculateTotal() {
	total := 0.0
	for _, item := range o.Items {
		total += item.Price * float64(item.Quantity)
	}
	o.TotalAmount = total
}

// Label is the human-readable summary used in activity entries and
// notifications: the first item name, with a count suffix when more follow.
func (o *Order) Label() string {
	if len(o.Items) == 0 {
		return o.Token
	}
	if len(o.Items) == 1 {
		return o.Items[0].Name
	}
	return o.Items[0].Name + " +" + strconv.Itoa(len(o.Items)-1)
}

// ApplyPlan mutates the order per a validated transition plan. Callers must
// only pass plans produced by PlanTransition or PlanRevert.
func (o *Order) ApplyPlan(plan TransitionPlan, now time.Time) {
	o.Status = plan.To
	o.UpdatedAt = now

	if plan.SetDelivered {
		t := now
		o.DeliveredAt = &t
	}
	if plan.ClearDelivered {
		o.DeliveredAt = nil
	}
}

// Clone returns a deep copy, used for board snapshots.
func (o *Order) Clone() *Order {
	c := *o
	c.Items = make([]OrderItem, len(o.Items))
	copy(c.Items, o.Items)
	if o.DeliveredAt != nil {
		t := *o.DeliveredAt
		c.DeliveredAt = &t
	}
	return &c
}

// SortLive orders the live partition ascending by creation time (strict FIFO),
// breaking ties by id so the order is deterministic.
func SortLive(orders []*Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID < orders[j].ID
		}
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
}

// SortTerminal orders the terminal partition descending by creation time
// (most recent first).
func SortTerminal(orders []*Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
