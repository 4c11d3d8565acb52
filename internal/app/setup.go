// Package app wires the order components together.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/online-orders/internal/config"
	"github.com/abgdnv/online-orders/internal/deadletter"
	"github.com/abgdnv/online-orders/internal/eventbus"
	"github.com/abgdnv/online-orders/internal/handler"
	"github.com/abgdnv/online-orders/internal/metrics"
	"github.com/abgdnv/online-orders/internal/provisioner"
	"github.com/abgdnv/online-orders/internal/store"
	"github.com/abgdnv/online-orders/internal/transport/rest"
	"github.com/abgdnv/online-orders/internal/workflow"
	pkgconfig "github.com/abgdnv/online-orders/pkg/config"
	"github.com/abgdnv/online-orders/pkg/database"
	"github.com/abgdnv/online-orders/pkg/dbauth"
	pnats "github.com/abgdnv/online-orders/pkg/nats"
	"github.com/abgdnv/online-orders/pkg/server"
	"github.com/abgdnv/online-orders/pkg/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
)

type Dependencies struct {
	Provisioner *provisioner.Provisioner
	Publisher   *eventbus.Publisher
	Subscriber  *eventbus.Subscriber
	Workflow    *workflow.Workflow
	Lister      *handler.ListHandler
	Handler     *rest.Handler
	Registry    *prometheus.Registry
	Logger      *slog.Logger
}

// NewConnector builds the database connector for cfg with the configured credential source.
func NewConnector(ctx context.Context, cfg pkgconfig.DatabaseConfig) (*database.Connector, error) {
	tokens, err := dbauth.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create database token source: %w", err)
	}
	return database.NewConnector(cfg, tokens), nil
}

// SetupDependencies builds every component of the service.
// js carries the event bus and, for the nats driver, the dead-letter queues.
func SetupDependencies(ctx context.Context, cfg *config.Config, js jetstream.JetStream,
	meterProvider metric.MeterProvider, reg *prometheus.Registry, logger *slog.Logger) (*Dependencies, error) {

	connector, err := NewConnector(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	recorder, err := metrics.New(meterProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}
	queues, err := deadletter.New(ctx, cfg.DeadLetter, js)
	if err != nil {
		return nil, err
	}
	if err := eventbus.EnsureStream(ctx, js, cfg.EventBus); err != nil {
		return nil, err
	}

	orderStore := store.NewPgStore(connector)
	validate := handler.NewValidator()

	createHandler := handler.NewCreateHandler(orderStore, validate, recorder, logger)
	cancelHandler := handler.NewCancelHandler(orderStore, validate, logger)
	listHandler := handler.NewListHandler(orderStore, logger)

	publisher := eventbus.NewPublisher(pnats.NewNatsPublisher(js), cfg.EventBus)
	subscriber := eventbus.NewSubscriber(js, cfg.EventBus, cfg.Subscriber, createHandler, queues.Create, recorder, logger)
	wf := workflow.New(cancelHandler, queues.Cancel, cfg.Workflow, cfg.DeadLetter.Timeout, recorder, logger)

	return &Dependencies{
		Provisioner: provisioner.New(provisioner.NewSchemaMigrator(connector, logger), logger),
		Publisher:   publisher,
		Subscriber:  subscriber,
		Workflow:    wf,
		Lister:      listHandler,
		Handler:     rest.NewHandler(publisher, wf, listHandler, validate, logger),
		Registry:    reg,
		Logger:      logger,
	}, nil
}

// SetupHttpHandler builds the gateway router with the orders routes and the metrics endpoint.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return otelhttp.NewHandler(mux, "orders-gateway")
}

func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	deps.Handler.RegisterRoutes(mux)
	if deps.Registry != nil {
		mux.Handle("/metrics", telemetry.MetricsHandler(deps.Registry))
	}
}

// SetupHttpServer creates and configures the gateway HTTP server.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	return server.NewHTTPServer(cfg.HTTPServer, SetupHttpHandler(deps))
}
