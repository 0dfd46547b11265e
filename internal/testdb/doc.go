// Package testdb supplies PostgreSQL connection settings to tests.
//
// When DATABASE_URL is set it is parsed into a config.DatabaseConfig and
// used as is. Otherwise, in integration builds, a disposable postgres
// container is started for the calling test and terminated on cleanup.
//
// Integration tests are gated behind the "integration" build tag:
//
//	go test -tags=integration ./...
package testdb
