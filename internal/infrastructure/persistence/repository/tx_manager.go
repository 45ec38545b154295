package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/openfin/budget-approval/internal/application/port"
	"go.uber.org/zap"
)

// TxManager implements port.TransactionManager over database/sql. A nested
// WithTransaction call joins the transaction already carried by the context,
// so the workflow service and the ledger share one atomic unit.
type TxManager struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTxManager creates a new transaction manager
func NewTxManager(db *sql.DB, logger *zap.Logger) *TxManager {
	return &TxManager{db: db, logger: logger}
}

// WithTransaction executes fn within a transaction carried by the context
func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(WithTx(ctx, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			m.logger.Error("Failed to rollback transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.TransactionManager = (*TxManager)(nil)
