package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/adapter/logger"
	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/interfaces"
)

// NotificationHandler consumes board notifications in the subscriber mode.
type NotificationHandler struct {
	lgr logger.Logger
}

func NewNotificationHandler(lgr logger.Logger) *NotificationHandler {
	return &NotificationHandler{lgr: lgr}
}

func (h *NotificationHandler) HandleNotification(ctx context.Context, body []byte) error {
	var msg interfaces.NotificationMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.lgr.Error("message_parse_failed", "Failed to parse notification", "", nil, err)
		return err
	}

	h.lgr.Debug("notification_received", fmt.Sprintf("Order %s %s", msg.Token, msg.Kind),
		msg.OrderID, map[string]interface{}{
			"kind":  msg.Kind,
			"label": msg.Label,
		})

	fmt.Printf("Order %s (%s): %s\n", msg.Token, msg.Label, msg.Kind)
	return nil
}
