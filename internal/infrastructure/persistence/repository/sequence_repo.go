package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/openfin/budget-approval/internal/application/port"
	"go.uber.org/zap"
)

// SequenceRepository implements port.SequenceRepository with a counter row per
// (kind, year). The upsert-then-read runs inside the caller's transaction, so
// numbers are unique and monotonically increasing within a year.
type SequenceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSequenceRepository creates a new sequence repository
func NewSequenceRepository(db *sql.DB, logger *zap.Logger) port.SequenceRepository {
	return &SequenceRepository{db: db, logger: logger}
}

// Next increments and returns the counter for (kind, year)
func (r *SequenceRepository) Next(ctx context.Context, kind string, year int) (int64, error) {
	ex := getExecutor(ctx, r.db)

	upsert := `
		INSERT INTO request_sequences (kind, year, counter)
		VALUES (?, ?, 1)
		ON CONFLICT(kind, year) DO UPDATE SET counter = counter + 1
	`
	if _, err := ex.ExecContext(ctx, upsert, kind, year); err != nil {
		r.logger.Error("Failed to advance sequence", zap.String("kind", kind), zap.Int("year", year), zap.Error(err))
		return 0, fmt.Errorf("failed to advance sequence: %w", err)
	}

	var counter int64
	query := `SELECT counter FROM request_sequences WHERE kind = ? AND year = ?`
	if err := ex.QueryRowContext(ctx, query, kind, year).Scan(&counter); err != nil {
		if err == sql.ErrNoRows {
			return 0, fmt.Errorf("sequence row missing for %s-%d", kind, year)
		}
		return 0, fmt.Errorf("failed to read sequence: %w", err)
	}

	return counter, nil
}

// Verify interface compliance
var _ port.SequenceRepository = (*SequenceRepository)(nil)
