// Package handler implements the create, cancel and list order operations.
// Handlers hold no state between invocations: every call does its work over
// a fresh store connection and logs with the invocation's correlation id.
package handler

import (
	"context"
	"encoding/json"
	"fmt"

	ordererrors "github.com/abgdnv/online-orders/internal/errors"
	"github.com/abgdnv/online-orders/pkg/logger"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// OrderDetail is the user-supplied part of create and cancel requests.
type OrderDetail struct {
	Username string `json:"username" validate:"required,max=45"`
}

// Failure is returned by the cancel handler. Its message is the original
// request body so that whoever inspects the failure sees what was asked for.
type Failure struct {
	Payload json.RawMessage
	Err     error
}

func (f *Failure) Error() string {
	return string(f.Payload)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// NewValidator returns the validator shared by the handlers and the gateway.
func NewValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// DecodeDetail parses and validates an order detail.
func DecodeDetail(v *validator.Validate, raw json.RawMessage) (OrderDetail, error) {
	var detail OrderDetail
	if len(raw) == 0 {
		return detail, fmt.Errorf("%w: empty body", ordererrors.ErrInvalidPayload)
	}
	if err := json.Unmarshal(raw, &detail); err != nil {
		return detail, fmt.Errorf("%w: %w", ordererrors.ErrInvalidPayload, err)
	}
	if err := v.Struct(detail); err != nil {
		return detail, fmt.Errorf("%w: %w", ordererrors.ErrInvalidUsername, err)
	}
	return detail, nil
}

// withCorrelation keeps an existing correlation id and mints one otherwise.
func withCorrelation(ctx context.Context) context.Context {
	if _, ok := logger.CorrelationID(ctx); ok {
		return ctx
	}
	return logger.WithCorrelationID(ctx, uuid.NewString())
}
