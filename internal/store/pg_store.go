package store

import (
	"context"
	"errors"
	"fmt"

	ordererrors "github.com/abgdnv/online-orders/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// Connector opens a scoped connection and releases it when fn returns.
type Connector interface {
	WithConn(ctx context.Context, fn func(ctx context.Context, conn *pgx.Conn) error) error
}

type PgStore struct {
	db Connector
}

// NewPgStore creates a new instance of OrderStore over short-lived connections.
func NewPgStore(db Connector) *PgStore {
	return &PgStore{db: db}
}

func (p *PgStore) Insert(ctx context.Context, username string) error {
	query, args, err := insertOrderQuery(username)
	if err != nil {
		return fmt.Errorf("%w: %w", ordererrors.ErrCreateOrder, err)
	}
	err = p.db.WithConn(ctx, func(ctx context.Context, conn *pgx.Conn) error {
		_, execErr := conn.Exec(ctx, query, args...)
		return execErr
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %w", ordererrors.ErrCreateOrder, ordererrors.ErrOrderAlreadyExists)
		}
		return fmt.Errorf("%w: %w", ordererrors.ErrCreateOrder, err)
	}
	return nil
}

func (p *PgStore) Delete(ctx context.Context, username string) (int64, error) {
	query, args, err := deleteOrderQuery(username)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ordererrors.ErrCancelOrder, err)
	}
	var deleted int64
	err = p.db.WithConn(ctx, func(ctx context.Context, conn *pgx.Conn) error {
		tag, execErr := conn.Exec(ctx, query, args...)
		if execErr != nil {
			return execErr
		}
		deleted = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ordererrors.ErrCancelOrder, err)
	}
	return deleted, nil
}

func (p *PgStore) List(ctx context.Context) ([]Order, error) {
	query, args, err := listOrdersQuery()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ordererrors.ErrListOrders, err)
	}
	orders := []Order{}
	err = p.db.WithConn(ctx, func(ctx context.Context, conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, query, args...)
		if queryErr != nil {
			return queryErr
		}
		collected, collectErr := pgx.CollectRows(rows, pgx.RowToStructByName[Order])
		if collectErr != nil {
			return collectErr
		}
		orders = append(orders, collected...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ordererrors.ErrListOrders, err)
	}
	return orders, nil
}
