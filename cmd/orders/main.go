package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"github.com/abgdnv/online-orders/internal/app"
	"github.com/abgdnv/online-orders/internal/config"
	"github.com/abgdnv/online-orders/internal/provisioner"
	"github.com/abgdnv/online-orders/pkg/bootstrap"
	"github.com/abgdnv/online-orders/pkg/config/configloader"
	pnats "github.com/abgdnv/online-orders/pkg/nats"
	"github.com/abgdnv/online-orders/pkg/server"
	"github.com/abgdnv/online-orders/pkg/telemetry"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const serviceName = "orders"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run loads the configuration, provisions the schema and runs the gateway,
// the create-order subscriber and the optional pprof server until ctx is done.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.Config](serviceName)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	telemetry.SetPropagator()
	if cfg.Telemetry.Traces.Enabled {
		tp, err := telemetry.NewTracerProvider(ctx, serviceName, cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("failed to create tracer provider: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Error("Failed to shut down tracer provider", "error", err)
			}
		}()
	}
	reg := telemetry.NewRegistry()
	mp, err := telemetry.NewMeterProvider(serviceName, reg)
	if err != nil {
		return fmt.Errorf("failed to create meter provider: %w", err)
	}
	defer func() {
		if err := mp.Shutdown(context.Background()); err != nil {
			logger.Error("Failed to shut down meter provider", "error", err)
		}
	}()

	nc, err := pnats.NewClient(cfg.Nats)
	if err != nil {
		return err
	}
	defer nc.Close()
	js, err := pnats.NewJetStreamContext(nc)
	if err != nil {
		return err
	}
	logger.Info("Connected to NATS", slog.String("url", nc.ConnectedUrl()))

	deps, err := app.SetupDependencies(ctx, cfg, js, mp, reg, logger)
	if err != nil {
		return fmt.Errorf("failed to set up dependencies: %w", err)
	}

	resp := deps.Provisioner.Handle(ctx, provisioner.Request{
		RequestType:       provisioner.RequestCreate,
		LogicalResourceID: serviceName,
		RequestID:         uuid.NewString(),
	})
	if resp.Status != provisioner.StatusSuccess {
		return fmt.Errorf("failed to provision order table: %s", resp.Reason)
	}

	httpServer := app.SetupHttpServer(deps, cfg)

	g, gCtx := errgroup.WithContext(ctx)

	// Start the HTTP server
	g.Go(func() error {
		logger.Info("HTTP server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	// gracefully shutdown HTTP server on context cancellation
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	// Start the create-order subscriber
	g.Go(func() error {
		return deps.Subscriber.Run(gCtx)
	})

	// Start the pprof server if enabled
	if cfg.PProf.Enabled {
		pprofServer := server.NewPProfServer(cfg.PProf)
		g.Go(func() error {
			logger.Info("Pprof server listening", slog.String("addr", pprofServer.Addr))
			if err := pprofServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("pprof server failed: %w", err)
			}
			return nil
		})
		// gracefully shutdown pprof server on context cancellation
		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Shutting down pprof server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			return pprofServer.Shutdown(shutdownCtx)
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}
