// Package store provides an interface for order storage operations.
package store

import (
	"context"
)

// Order is an active order. Its presence in the store is the whole of its state.
type Order struct {
	Username string `json:"username" db:"username"`
}

// OrderStore is an interface for order storage operations.
// Every call performs exactly one statement on its own connection.
type OrderStore interface {
	// Insert adds an order for username.
	// Returns ErrOrderAlreadyExists if the user already has an active order.
	Insert(ctx context.Context, username string) error

	// Delete removes the orders of username and returns how many rows went away.
	// Deleting nothing is not an error.
	Delete(ctx context.Context, username string) (int64, error)

	// List returns all active orders. Returns an empty slice if none exist.
	List(ctx context.Context) ([]Order, error)
}
