package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/abgdnv/online-orders/internal/config"
	"github.com/abgdnv/online-orders/internal/store"
	"github.com/abgdnv/online-orders/pkg/bootstrap"
	"github.com/abgdnv/online-orders/pkg/config/configloader"
	"github.com/abgdnv/online-orders/pkg/database"
)

const configName = "orders"

// Function holds what every single-purpose serverless entrypoint needs.
type Function struct {
	Config    *config.FunctionConfig
	Connector *database.Connector
	Store     *store.PgStore
	Logger    *slog.Logger
}

// SetupFunction loads the function configuration, which shares the ORDERS_ environment
// prefix with the service, and builds its database access.
// No connection is opened here; each store call connects on its own.
func SetupFunction(ctx context.Context, name string) (*Function, error) {
	cfg, err := configloader.Load[*config.FunctionConfig](configName)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level).With("function", name)
	slog.SetDefault(logger)

	connector, err := NewConnector(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return &Function{
		Config:    cfg,
		Connector: connector,
		Store:     store.NewPgStore(connector),
		Logger:    logger,
	}, nil
}
