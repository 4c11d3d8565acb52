// Package errors provides the sentinel errors of order operations.
package errors

import (
	"context"
	"errors"

	"github.com/abgdnv/online-orders/pkg/database"
)

var ErrInvalidUsername = errors.New("invalid username")
var ErrInvalidPayload = errors.New("invalid payload")

var ErrCreateOrder = errors.New("failed to create order")
var ErrOrderAlreadyExists = errors.New("order already exists")

var ErrCancelOrder = errors.New("failed to cancel order")
var ErrListOrders = errors.New("failed to list orders")

// ErrConnect is returned when no database connection could be established.
var ErrConnect = database.ErrConnect

// ErrServiceException marks a failure of the invoked handler that may succeed on
// retry, such as a recovered panic.
var ErrServiceException = errors.New("service exception")
var ErrWorkflowTimeout = errors.New("workflow timed out")
var ErrUnsupportedAction = errors.New("unsupported action type")

// IsTransient reports whether err is worth retrying.
// Connection failures and service exceptions are transient. Bad input,
// duplicates and expired contexts are not.
func IsTransient(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, ErrInvalidUsername), errors.Is(err, ErrInvalidPayload), errors.Is(err, ErrOrderAlreadyExists):
		return false
	case errors.Is(err, ErrConnect), errors.Is(err, ErrServiceException):
		return true
	default:
		return false
	}
}

// IsPermanent reports whether redelivering the same input can never succeed.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrInvalidUsername) ||
		errors.Is(err, ErrInvalidPayload) ||
		errors.Is(err, ErrOrderAlreadyExists) ||
		errors.Is(err, ErrUnsupportedAction)
}
