package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/adapter/logger"
	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/interfaces"
)

const (
	// OrderFeedExchange carries the push change feed: every order insert and
	// update in the remote store fans out to all board instances.
	OrderFeedExchange = "orders_feed"

	// NotificationExchange carries fire-and-forget placement/cancellation
	// notifications published by the board.
	NotificationExchange = "board_notifications"

	reconnectDelay = 5 * time.Second
)

type consumer struct {
	conn Connection
	lgr  logger.Logger
}

func NewConsumer(conn Connection, lgr logger.Logger) interfaces.MessageConsumer {
	return &consumer{conn: conn, lgr: lgr}
}

// ConsumeOrderFeed delivers push-channel events until ctx is cancelled,
// reconnecting with a fixed delay after broker failures.
func (c *consumer) ConsumeOrderFeed(ctx context.Context, handler interfaces.OrderFeedHandler) error {
	return c.consumeLoop(ctx, OrderFeedExchange, "order feed", handler)
}

// ConsumeNotifications subscribes to the notification fanout.
func (c *consumer) ConsumeNotifications(ctx context.Context, handler interfaces.NotificationHandler) error {
	return c.consumeLoop(ctx, NotificationExchange, "notifications", interfaces.OrderFeedHandler(handler))
}

func (c *consumer) consumeLoop(ctx context.Context, exchange, name string, handler interfaces.OrderFeedHandler) error {
	for {
		err := c.consumeFanout(ctx, exchange, handler)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			return nil
		}

		c.lgr.Warn("consumer_disconnected", fmt.Sprintf("%s consumer disconnected; reconnecting", name), "", map[string]interface{}{
			"exchange": exchange,
			"error":    err.Error(),
		})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

// consumeFanout binds an exclusive queue to a fanout exchange and feeds
// deliveries to the handler until the channel drops.
func (c *consumer) consumeFanout(ctx context.Context, exchange string, handler interfaces.OrderFeedHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	closeChan := ch.NotifyClose()

	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "", exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return fmt.Errorf("channel closed gracefully")

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("messages channel closed")
			}

			if err := handler(ctx, msg.Body); err != nil {
				// A bad message must not kill the feed; the poll fallback
				// and later events keep the board converging.
				c.lgr.Error("message_handling_failed", "Failed to handle message", "", map[string]interface{}{
					"exchange": exchange,
				}, err)
			}
		}
	}
}
