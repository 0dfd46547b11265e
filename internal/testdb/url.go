package testdb

import (
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/phrazzld/pgfault/internal/config"
)

// DatabaseURLEnv names the variable holding an existing test database URL.
const DatabaseURLEnv = "DATABASE_URL"

// URLFromEnv returns the test database URL, or "" when none is configured.
func URLFromEnv() string {
	return os.Getenv(DatabaseURLEnv)
}

// ParseURL converts a PostgreSQL URL or keyword/value DSN into the
// configuration postgres.Open expects. TLS is reported as enabled only when
// the connection cannot fall back to plaintext.
func ParseURL(dbURL string) (config.DatabaseConfig, error) {
	pc, err := pgconn.ParseConfig(dbURL)
	if err != nil {
		return config.DatabaseConfig{}, fmt.Errorf("failed to parse database URL: %w", err)
	}

	ssl := pc.TLSConfig != nil
	for _, fb := range pc.Fallbacks {
		if fb.TLSConfig == nil {
			ssl = false
		}
	}

	return config.DatabaseConfig{
		Host:     pc.Host,
		Port:     int(pc.Port),
		Name:     pc.Database,
		User:     pc.User,
		Password: pc.Password,
		SSL:      ssl,
	}, nil
}
