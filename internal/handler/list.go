package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/abgdnv/online-orders/internal/store"
)

const genericErrorBody = `{"error":"An error occurred"}`

// Response is an HTTP-shaped result returned to the gateway verbatim.
type Response struct {
	StatusCode int
	Body       string
}

type ListHandler struct {
	store  store.OrderStore
	logger *slog.Logger
}

func NewListHandler(s store.OrderStore, logger *slog.Logger) *ListHandler {
	return &ListHandler{store: s, logger: logger.With("component", "list-orders")}
}

// Handle returns all orders as a JSON array. Failures become a 500 with a
// generic body; the cause is only logged.
func (h *ListHandler) Handle(ctx context.Context) Response {
	ctx = withCorrelation(ctx)
	h.logger.InfoContext(ctx, "List orders started")

	orders, err := h.store.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "List orders failed", "error", err)
		return Response{StatusCode: http.StatusInternalServerError, Body: genericErrorBody}
	}
	if orders == nil {
		orders = []store.Order{}
	}
	body, err := json.Marshal(orders)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to encode orders", "error", err)
		return Response{StatusCode: http.StatusInternalServerError, Body: genericErrorBody}
	}
	h.logger.InfoContext(ctx, "Orders listed", "count", len(orders))
	return Response{StatusCode: http.StatusOK, Body: string(body)}
}
