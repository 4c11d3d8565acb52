package handler

import (
	"context"
	"fmt"
	"log/slog"

	ordererrors "github.com/abgdnv/online-orders/internal/errors"
	"github.com/abgdnv/online-orders/internal/eventbus"
	"github.com/abgdnv/online-orders/internal/metrics"
	"github.com/abgdnv/online-orders/internal/store"
	"github.com/go-playground/validator/v10"
)

type CreateHandler struct {
	store    store.OrderStore
	validate *validator.Validate
	metrics  *metrics.Recorder
	logger   *slog.Logger
}

func NewCreateHandler(s store.OrderStore, v *validator.Validate, m *metrics.Recorder, logger *slog.Logger) *CreateHandler {
	return &CreateHandler{
		store:    s,
		validate: v,
		metrics:  m,
		logger:   logger.With("component", "create-order"),
	}
}

// Handle stores the order carried by a routed CreateOrder event.
// Duplicates are rejected with ErrOrderAlreadyExists.
func (h *CreateHandler) Handle(ctx context.Context, event eventbus.Envelope) error {
	ctx = withCorrelation(ctx)
	h.logger.InfoContext(ctx, "Create order started", "event_id", event.ID)

	if event.DetailType != eventbus.DetailTypeCreate {
		h.logger.WarnContext(ctx, "Unexpected event type", "detail_type", event.DetailType)
		return fmt.Errorf("%w: detail type %q", ordererrors.ErrInvalidPayload, event.DetailType)
	}
	detail, err := DecodeDetail(h.validate, event.Detail)
	if err != nil {
		h.logger.WarnContext(ctx, "Invalid order detail", "error", err)
		return err
	}
	if err := h.store.Insert(ctx, detail.Username); err != nil {
		h.logger.ErrorContext(ctx, "Create order failed", "username", detail.Username, "error", err)
		return err
	}
	h.metrics.OrderCreated(ctx)
	h.logger.InfoContext(ctx, "Order created", "username", detail.Username)
	return nil
}
