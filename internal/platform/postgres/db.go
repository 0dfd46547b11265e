package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver

	"github.com/phrazzld/pgfault/internal/config"
	"github.com/phrazzld/pgfault/internal/redact"
)

// DriverName is the database/sql driver registered by pgx's stdlib package.
const DriverName = "pgx"

// DB is a database/sql pool limited to config.MaxConns physical connections.
// It implements store.DBTX and store.TxBeginner.
type DB struct {
	db     *sql.DB
	logger *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// Open connects to the database described by cfg and verifies the connection
// with a ping. The returned DB must be closed by the caller.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "postgres")

	logger.Info("connecting to database",
		"url", cfg.Redacted(),
		"max_conns", config.MaxConns)

	sqlDB, err := sql.Open(DriverName, cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db := Wrap(sqlDB, logger)

	if err := sqlDB.PingContext(ctx); err != nil {
		logger.Error("database ping failed",
			"url", cfg.Redacted(),
			"error", redact.Error(err))
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established")
	return db, nil
}

// Wrap applies the single-connection pool limits to an existing handle.
func Wrap(sqlDB *sql.DB, logger *slog.Logger) *DB {
	if logger == nil {
		logger = slog.Default()
	}
	sqlDB.SetMaxOpenConns(config.MaxConns)
	sqlDB.SetMaxIdleConns(config.MaxConns)
	return &DB{db: sqlDB, logger: logger}
}

// SQL returns the underlying handle, for libraries that need a *sql.DB.
func (d *DB) SQL() *sql.DB {
	return d.db
}

// ExecContext implements store.DBTX.
func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.db.ExecContext(ctx, query, args...)
}

// PrepareContext implements store.DBTX.
func (d *DB) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	return d.db.PrepareContext(ctx, query)
}

// QueryContext implements store.DBTX.
func (d *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.db.QueryContext(ctx, query, args...)
}

// QueryRowContext implements store.DBTX.
func (d *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return d.db.QueryRowContext(ctx, query, args...)
}

// BeginTx implements store.TxBeginner.
func (d *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return d.db.BeginTx(ctx, opts)
}

// Stats returns the pool statistics.
func (d *DB) Stats() sql.DBStats {
	return d.db.Stats()
}

// ServerVersion returns the result of SELECT version().
func (d *DB) ServerVersion(ctx context.Context) (string, error) {
	var version string
	if err := d.db.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return "", fmt.Errorf("failed to query server version: %w", MapError(err))
	}
	return version, nil
}

// Close releases the pool. Only the first call reaches the driver; later
// calls return the first call's result.
func (d *DB) Close() error {
	d.closeOnce.Do(func() {
		d.closeErr = d.db.Close()
		if d.closeErr != nil {
			d.logger.Error("failed to close database connection", "error", d.closeErr)
			return
		}
		d.logger.Info("database connection closed")
	})
	return d.closeErr
}
