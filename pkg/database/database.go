// Package database opens short-lived PostgreSQL connections.
// Every connection is built from a fresh configuration and a freshly minted
// credential, so concurrent callers never share mutable connection state.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/abgdnv/online-orders/pkg/config"
	"github.com/abgdnv/online-orders/pkg/dbauth"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

var ErrConnect = errors.New("failed to connect to database")

const closeTimeout = 5 * time.Second

type Connector struct {
	cfg    config.DatabaseConfig
	tokens dbauth.TokenSource
}

func NewConnector(cfg config.DatabaseConfig, tokens dbauth.TokenSource) *Connector {
	return &Connector{cfg: cfg, tokens: tokens}
}

// ConnString returns the connection URL without credentials.
func (c *Connector) ConnString() string {
	sslMode := c.cfg.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.User(c.cfg.User),
		Host:     net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port)),
		Path:     "/" + c.cfg.Name,
		RawQuery: url.Values{"sslmode": []string{sslMode}}.Encode(),
	}
	return u.String()
}

// ConnConfig builds a new connection configuration carrying a new token.
func (c *Connector) ConnConfig(ctx context.Context) (*pgx.ConnConfig, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}
	connCfg, err := pgx.ParseConfig(c.ConnString())
	if err != nil {
		return nil, fmt.Errorf("%w: invalid connection settings: %w", ErrConnect, err)
	}
	connCfg.Password = token
	connCfg.ConnectTimeout = c.cfg.Timeout
	return connCfg, nil
}

func (c *Connector) Connect(ctx context.Context) (*pgx.Conn, error) {
	connCfg, err := c.ConnConfig(ctx)
	if err != nil {
		return nil, err
	}
	conn, err := pgx.ConnectConfig(ctx, connCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}
	return conn, nil
}

// WithConn opens a connection, passes it to fn and closes it on every exit path.
func (c *Connector) WithConn(ctx context.Context, fn func(ctx context.Context, conn *pgx.Conn) error) (err error) {
	conn, err := c.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
		defer cancel()
		if closeErr := conn.Close(closeCtx); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close connection: %w", closeErr)
		}
	}()
	return fn(ctx, conn)
}

// OpenDB returns a database/sql handle over a single fresh configuration.
// The caller must close it.
func (c *Connector) OpenDB(ctx context.Context) (*sql.DB, error) {
	connCfg, err := c.ConnConfig(ctx)
	if err != nil {
		return nil, err
	}
	return stdlib.OpenDB(*connCfg), nil
}
