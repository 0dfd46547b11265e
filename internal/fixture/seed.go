package fixture

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/pgfault/internal/store"
)

// Seed inserts People and Products inside a single transaction. Any failure
// rolls back both tables and is returned wrapped in store.ErrSetupFailed.
func Seed(ctx context.Context, db store.TxBeginner, logger *slog.Logger) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin seed transaction: %w", store.ErrSetupFailed, err)
	}

	if err := seedTables(ctx, tx, logger); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("failed to roll back seed transaction", "error", rbErr)
		}
		return fmt.Errorf("%w: %w", store.ErrSetupFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit seed transaction: %w", store.ErrSetupFailed, err)
	}
	return nil
}

func seedTables(ctx context.Context, tx store.DBTX, logger *slog.Logger) error {
	personRows := make([][]any, len(People))
	for i, p := range People {
		personRows[i] = []any{p.Name, p.Age}
	}
	if err := insertRows(ctx, tx, FaultTable, []string{"name", "age"}, personRows); err != nil {
		return err
	}
	logger.Info("inserted rows", "table", FaultTable, "count", len(personRows))

	productRows := make([][]any, len(Products))
	for i, p := range Products {
		productRows[i] = []any{p.Title, p.Amount}
	}
	if err := insertRows(ctx, tx, ControlTable, []string{"title", "amount"}, productRows); err != nil {
		return err
	}
	logger.Info("inserted rows", "table", ControlTable, "count", len(productRows))
	return nil
}

func insertRows(ctx context.Context, db store.DBTX, table string, columns []string, rows [][]any) error {
	query, args := InsertStatement(table, columns, rows)

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return store.NewStoreError(table, "insert", "inserting seed rows", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return store.NewStoreError(table, "insert", "reading rows affected", err)
	}
	if affected != int64(len(rows)) {
		return store.NewStoreError(table, "insert",
			fmt.Sprintf("inserted %d rows, expected %d", affected, len(rows)), nil)
	}
	return nil
}

// InsertStatement builds a multi-row parameterized INSERT for rows, which
// must each have len(columns) values.
func InsertStatement(table string, columns []string, rows [][]any) (string, []any) {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", table, strings.Join(columns, ", "))

	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j, v := range row {
			if j > 0 {
				b.WriteString(", ")
			}
			args = append(args, v)
			fmt.Fprintf(&b, "$%d", len(args))
		}
		b.WriteByte(')')
	}
	return b.String(), args
}
