package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/phrazzld/pgfault/internal/store"
)

// PostgreSQL error codes
const (
	// DivisionByZeroCode is the SQLSTATE raised for integer or numeric division by zero.
	DivisionByZeroCode = "22012"

	// undefinedTableCode is raised when a statement references a missing relation.
	undefinedTableCode = "42P01"

	// connectionExceptionClass prefixes every SQLSTATE in class 08 (connection exception).
	connectionExceptionClass = "08"

	// adminShutdownCode is raised when the server terminates the session.
	adminShutdownCode = "57P01"
)

// SQLState returns the SQLSTATE carried by err, or "" if err is not a server error.
func SQLState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsDivisionByZero reports whether err is the server's division_by_zero error.
func IsDivisionByZero(err error) bool {
	return SQLState(err) == DivisionByZeroCode
}

// IsUndefinedTable reports whether err was raised for a missing relation.
func IsUndefinedTable(err error) bool {
	return SQLState(err) == undefinedTableCode
}

// IsConnectionError reports whether err means the connection itself is
// unusable, as opposed to a statement failing on a healthy session.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	state := SQLState(err)
	if strings.HasPrefix(state, connectionExceptionClass) || state == adminShutdownCode {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// MapError maps a database error to an appropriate store error.
// It wraps the original error to preserve context and provide better debugging information.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	if IsUndefinedTable(err) {
		return fmt.Errorf("%w: relation missing: %w", store.ErrNotFound, err)
	}

	// Return the original error for errors that don't have specific mappings
	return err
}
