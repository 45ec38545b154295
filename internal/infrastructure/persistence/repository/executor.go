package repository

import (
	"context"
	"database/sql"
)

// executor interface covers both *sql.DB and *sql.Tx
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type contextKey string

const txKey contextKey = "tx"

// WithTx stores a transaction in the context so repository calls join it
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey, tx)
}

// getExecutor returns the context transaction if present, the db otherwise
func getExecutor(ctx context.Context, db *sql.DB) executor {
	if tx, ok := ctx.Value(txKey).(*sql.Tx); ok {
		return tx
	}
	return db
}

// inTx reports whether the context already carries a transaction
func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey).(*sql.Tx)
	return ok
}
