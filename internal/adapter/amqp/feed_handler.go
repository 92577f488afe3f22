package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/adapter/logger"
	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/app/board"
	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/interfaces"
)

// FeedHandler decodes push change-feed messages and forwards them to the
// board's event queue.
type FeedHandler struct {
	board *board.Board
	lgr   logger.Logger
}

func NewFeedHandler(b *board.Board, lgr logger.Logger) *FeedHandler {
	return &FeedHandler{board: b, lgr: lgr}
}

func (h *FeedHandler) HandleFeedEvent(ctx context.Context, body []byte) error {
	var msg interfaces.OrderFeedMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.lgr.Error("message_parse_failed", "Failed to parse feed message", "", nil, err)
		return err
	}

	if msg.Order.ID == "" {
		return fmt.Errorf("feed message missing order id")
	}

	switch msg.Event {
	case interfaces.FeedEventInserted:
		h.board.PushInserted(msg.Order.ToDomain())
	case interfaces.FeedEventUpdated:
		h.board.PushUpdated(msg.Order.ToDomain())
	default:
		return fmt.Errorf("unknown feed event %q", msg.Event)
	}
	return nil
}
