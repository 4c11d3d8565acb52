package handler

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/abgdnv/online-orders/internal/store"
	"github.com/go-playground/validator/v10"
)

// CancelRequest is the payload the cancellation workflow hands to the cancel handler.
type CancelRequest struct {
	Body json.RawMessage `json:"body"`
}

type CancelHandler struct {
	store    store.OrderStore
	validate *validator.Validate
	logger   *slog.Logger
}

func NewCancelHandler(s store.OrderStore, v *validator.Validate, logger *slog.Logger) *CancelHandler {
	return &CancelHandler{
		store:    s,
		validate: v,
		logger:   logger.With("component", "cancel-order"),
	}
}

// Handle deletes the orders of the requested user. Nothing to delete is a success.
// Every error is a *Failure carrying the original body.
func (h *CancelHandler) Handle(ctx context.Context, req CancelRequest) error {
	ctx = withCorrelation(ctx)
	h.logger.InfoContext(ctx, "Cancel order started")

	detail, err := DecodeDetail(h.validate, req.Body)
	if err != nil {
		h.logger.WarnContext(ctx, "Invalid cancel request", "error", err)
		return &Failure{Payload: req.Body, Err: err}
	}
	deleted, err := h.store.Delete(ctx, detail.Username)
	if err != nil {
		h.logger.ErrorContext(ctx, "Cancel order failed", "username", detail.Username, "error", err)
		return &Failure{Payload: req.Body, Err: err}
	}
	h.logger.InfoContext(ctx, "Order cancelled", "username", detail.Username, "deleted", deleted)
	return nil
}
