package handler

import (
	"context"
	"fmt"
	"slices"
	"sync"

	ordererrors "github.com/abgdnv/online-orders/internal/errors"
	"github.com/abgdnv/online-orders/internal/store"
)

// mockOrderStore is an in-memory OrderStore with injectable errors.
type mockOrderStore struct {
	mu        sync.Mutex
	usernames []string
	insertErr error
	deleteErr error
	listErr   error
	nilList   bool
}

func newMockOrderStore(usernames ...string) *mockOrderStore {
	return &mockOrderStore{usernames: usernames}
}

func (m *mockOrderStore) Insert(_ context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	if slices.Contains(m.usernames, username) {
		return fmt.Errorf("%w: %w", ordererrors.ErrCreateOrder, ordererrors.ErrOrderAlreadyExists)
	}
	m.usernames = append(m.usernames, username)
	return nil
}

func (m *mockOrderStore) Delete(_ context.Context, username string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	before := len(m.usernames)
	m.usernames = slices.DeleteFunc(m.usernames, func(u string) bool { return u == username })
	return int64(before - len(m.usernames)), nil
}

func (m *mockOrderStore) List(_ context.Context) ([]store.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	if m.nilList {
		return nil, nil
	}
	orders := make([]store.Order, 0, len(m.usernames))
	for _, u := range m.usernames {
		orders = append(orders, store.Order{Username: u})
	}
	return orders, nil
}
