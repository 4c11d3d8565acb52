package provisioner

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.up.sql
var migrationsFS embed.FS

// DBOpener returns a database handle built from freshly minted credentials.
type DBOpener interface {
	OpenDB(ctx context.Context) (*sql.DB, error)
}

// SchemaMigrator applies the embedded migrations. Only forward
// migrations are ever run: provisioning never drops data.
type SchemaMigrator struct {
	db     DBOpener
	logger *slog.Logger
}

func NewSchemaMigrator(db DBOpener, logger *slog.Logger) *SchemaMigrator {
	return &SchemaMigrator{db: db, logger: logger}
}

// Up brings the schema to the latest version. An up-to-date schema is not an error.
func (m *SchemaMigrator) Up(ctx context.Context) (err error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	db, err := m.db.OpenDB(ctx)
	if err != nil {
		return err
	}
	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	mg, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		_ = driver.Close()
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := mg.Close()
		if err == nil {
			err = errors.Join(srcErr, dbErr)
		}
	}()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			mg.GracefulStop <- true
		case <-done:
		}
	}()

	err = mg.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.InfoContext(ctx, "Schema is up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	version, _, _ := mg.Version()
	m.logger.InfoContext(ctx, "Schema migrated", slog.Uint64("version", uint64(version)))
	return nil
}
