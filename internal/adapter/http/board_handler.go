package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/adapter/logger"
	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/app/activity"
	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/app/board"
	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/app/stock"
	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/domain"
	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/interfaces"
)

// BoardHandler exposes the board to the presentation layer: two read-only
// partition views, the activity feed, and the commands.
type BoardHandler struct {
	svc    interfaces.BoardService
	ledger interfaces.StockLedger
	lgr    logger.Logger
}

func NewBoardHandler(svc interfaces.BoardService, ledger interfaces.StockLedger, lgr logger.Logger) *BoardHandler {
	return &BoardHandler{svc: svc, ledger: ledger, lgr: lgr}
}

// NewRouter mounts the board API with the logging and recovery middleware.
func NewRouter(h *BoardHandler, lgr logger.Logger) http.Handler {
	r := chi.NewRouter()
	// Logging wraps recovery so a recovered panic still gets an access-log
	// line with its request id and the 500 it produced.
	r.Use(LoggingMiddleware(lgr))
	r.Use(RecoveryMiddleware(lgr))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/board/live", h.GetLive)
	r.Get("/board/terminal", h.GetTerminal)
	r.Get("/activity", h.GetActivity)

	r.Post("/orders", h.PlaceOrder)
	r.Post("/orders/{id}/status", h.ChangeStatus)
	r.Post("/activity/{id}/revert", h.Revert)
	r.Put("/stock/{itemId}", h.EditStock)

	return r
}

type orderResponse struct {
	ID          string              `json:"id"`
	Token       string              `json:"token"`
	Kind        string              `json:"kind"`
	Origin      string              `json:"origin"`
	Items       []orderItemResponse `json:"items"`
	TotalAmount float64             `json:"total_amount"`
	Status      string              `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	DeliveredAt *time.Time          `json:"delivered_at,omitempty"`
}

type orderItemResponse struct {
	ItemID   string  `json:"item_id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type activityResponse struct {
	ID      string    `json:"id"`
	OrderID string    `json:"order_id"`
	Label   string    `json:"label"`
	From    string    `json:"from"`
	To      string    `json:"to"`
	At      time.Time `json:"at"`
	Expired bool      `json:"expired"`
}

func (h *BoardHandler) GetLive(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.Live(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponses(orders))
}

func (h *BoardHandler) GetTerminal(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.Terminal(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponses(orders))
}

func (h *BoardHandler) GetActivity(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.Activity(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	out := make([]activityResponse, len(entries))
	for i, e := range entries {
		out[i] = activityResponse{
			ID:      e.ID,
			OrderID: e.OrderID,
			Label:   e.Label,
			From:    string(e.From),
			To:      string(e.To),
			At:      e.At,
			Expired: e.Expired,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type placeOrderRequest struct {
	Kind   string                  `json:"kind"`
	Origin string                  `json:"origin"`
	Items  []placeOrderItemRequest `json:"items"`
}

type placeOrderItemRequest struct {
	ItemID   string  `json:"item_id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

func (h *BoardHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cmd := interfaces.PlaceOrderCommand{Kind: req.Kind, Origin: req.Origin}
	for _, item := range req.Items {
		cmd.Items = append(cmd.Items, interfaces.PlaceOrderItemCommand{
			ItemID:   item.ItemID,
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	order, err := h.svc.PlaceOrder(r.Context(), cmd)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

type changeStatusRequest struct {
	Status string `json:"status"`
}

func (h *BoardHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	var req changeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status := domain.Status(req.Status)
	if !status.Valid() {
		writeJSONError(w, http.StatusBadRequest, "unknown status")
		return
	}

	if err := h.svc.RequestStatusChange(r.Context(), orderID, status); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

func (h *BoardHandler) Revert(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "id")

	if err := h.svc.RequestRevert(r.Context(), entryID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type editStockRequest struct {
	Quantity int `json:"quantity"`
}

func (h *BoardHandler) EditStock(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")

	var req editStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity < 0 {
		writeJSONError(w, http.StatusBadRequest, "quantity must be non-negative")
		return
	}

	if err := h.ledger.Set(r.Context(), itemID, req.Quantity); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"quantity": req.Quantity})
}

// writeError maps engine errors onto HTTP statuses.
func (h *BoardHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, board.ErrBoardUnavailable):
		writeJSONError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, board.ErrOrderNotFound), errors.Is(err, activity.ErrEntryNotFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, board.ErrOrderInFlight), errors.Is(err, board.ErrRevertSuperseded), errors.Is(err, domain.ErrInvalidTransition):
		writeJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, board.ErrRevertExpired):
		writeJSONError(w, http.StatusGone, err.Error())
	case errors.Is(err, stock.ErrStockNotAdjusted):
		writeJSONError(w, http.StatusBadGateway, err.Error())
	default:
		h.lgr.Error("request_failed", "Unhandled error", "", nil, err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

func toOrderResponses(orders []*domain.Order) []orderResponse {
	out := make([]orderResponse, len(orders))
	for i, o := range orders {
		out[i] = toOrderResponse(o)
	}
	return out
}

func toOrderResponse(o *domain.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = orderItemResponse{
			ItemID:   item.ItemID,
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		}
	}
	return orderResponse{
		ID:          o.ID,
		Token:       o.Token,
		Kind:        string(o.Kind),
		Origin:      string(o.Origin),
		Items:       items,
		TotalAmount: o.TotalAmount,
		Status:      string(o.Status),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
		DeliveredAt: o.DeliveredAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
