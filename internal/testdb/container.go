//go:build integration

package testdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/phrazzld/pgfault/internal/config"
	"github.com/phrazzld/pgfault/internal/platform/postgres"
)

// Image is the container image started when DATABASE_URL is not set.
const Image = "postgres:16-alpine"

// StartupTimeout bounds how long a container may take to accept connections.
const StartupTimeout = 60 * time.Second

// Config returns settings for a reachable test database, starting a
// container when DATABASE_URL is unset.
func Config(t *testing.T) config.DatabaseConfig {
	t.Helper()

	if dbURL := URLFromEnv(); dbURL != "" {
		cfg, err := ParseURL(dbURL)
		require.NoError(t, err, "invalid %s", DatabaseURLEnv)
		return cfg
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, Image,
		tcpostgres.WithDatabase("pgfault_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(StartupTimeout),
		),
	)
	t.Cleanup(func() {
		if container == nil {
			return
		}
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})
	require.NoError(t, err, "failed to start postgres container")

	dbURL, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to read container connection string")

	cfg, err := ParseURL(dbURL)
	require.NoError(t, err)
	return cfg
}

// Open connects to the test database through postgres.Open and closes the
// pool on cleanup.
func Open(t *testing.T, cfg config.DatabaseConfig) *postgres.DB {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), StartupTimeout)
	defer cancel()

	db, err := postgres.Open(ctx, cfg, nil)
	require.NoError(t, err, "failed to connect to test database")
	t.Cleanup(func() { _ = db.Close() })
	return db
}
