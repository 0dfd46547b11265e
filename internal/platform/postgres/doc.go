// Package postgres owns the PostgreSQL connection used by a reproduction run.
// It opens a database/sql pool through the pgx stdlib driver, caps the pool
// at a single physical connection, guarantees the pool is released exactly
// once, and classifies driver errors by SQLSTATE.
package postgres
