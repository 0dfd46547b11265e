package fixture

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"

	"github.com/phrazzld/pgfault/internal/store"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// dropOrder lists the relations removed before migrating. The version table
// goes too, so the migrations always run from version zero.
var dropOrder = []string{FaultTable, ControlTable, VersionTable}

// Migrations returns the embedded migration files rooted at the migrations directory.
func Migrations() fs.FS {
	sub, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		// ALLOW-PANIC: the directory is embedded at build time
		panic(err)
	}
	return sub
}

// ResetSchema drops the fixture tables if present and recreates them from the
// embedded migrations.
func ResetSchema(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	for _, table := range dropOrder {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("%w: %w", store.ErrSetupFailed,
				store.NewStoreError(table, "drop", "dropping existing table", err))
		}
	}
	logger.Info("dropped existing tables if they existed", "tables", dropOrder)

	versions, err := database.NewStore(database.DialectPostgres, VersionTable)
	if err != nil {
		return fmt.Errorf("%w: failed to create migration store: %w", store.ErrSetupFailed, err)
	}

	provider, err := goose.NewProvider("", db, Migrations(), goose.WithStore(versions))
	if err != nil {
		return fmt.Errorf("%w: failed to create migration provider: %w", store.ErrSetupFailed, err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to apply migrations: %w", store.ErrSetupFailed, err)
	}

	for _, res := range results {
		logger.Info("applied migration",
			"version", res.Source.Version,
			"path", res.Source.Path,
			"duration_ms", res.Duration.Milliseconds())
	}
	logger.Info("created tables", "tables", []string{FaultTable, ControlTable})

	return nil
}
