package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/openfin/budget-approval/internal/application/port"
	"github.com/openfin/budget-approval/internal/domain/entity"
	"go.uber.org/zap"
)

// CommitmentRepository implements port.CommitmentRepository
type CommitmentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCommitmentRepository creates a new commitment repository
func NewCommitmentRepository(db *sql.DB, logger *zap.Logger) port.CommitmentRepository {
	return &CommitmentRepository{db: db, logger: logger}
}

// Create inserts a new commitment
func (r *CommitmentRepository) Create(ctx context.Context, c *entity.Commitment) error {
	query := `
		INSERT INTO commitments (line_id, request_id, amount_cents, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		c.LineID,
		c.RequestID,
		c.AmountCents,
		c.Status,
		c.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create commitment", zap.Error(err))
		return fmt.Errorf("failed to create commitment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	c.ID = id
	return nil
}

// GetByID retrieves a commitment by ID
func (r *CommitmentRepository) GetByID(ctx context.Context, id int64) (*entity.Commitment, error) {
	query := `
		SELECT id, line_id, request_id, amount_cents, status, created_at, closed_at
		FROM commitments
		WHERE id = ?
	`
	return r.scanOne(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
}

// GetActiveByRequestID retrieves the active commitment of a request, if any
func (r *CommitmentRepository) GetActiveByRequestID(ctx context.Context, requestID int64) (*entity.Commitment, error) {
	query := `
		SELECT id, line_id, request_id, amount_cents, status, created_at, closed_at
		FROM commitments
		WHERE request_id = ? AND status = ?
	`
	return r.scanOne(getExecutor(ctx, r.db).QueryRowContext(ctx, query, requestID, entity.CommitmentStatusActive))
}

// UpdateStatus moves a commitment to a terminal status. The WHERE clause only
// matches Active rows: a terminal commitment is immutable.
func (r *CommitmentRepository) UpdateStatus(ctx context.Context, id int64, status string, closedAt time.Time) error {
	query := `UPDATE commitments SET status = ?, closed_at = ? WHERE id = ? AND status = ?`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query, status, closedAt, id, entity.CommitmentStatusActive)
	if err != nil {
		r.logger.Error("Failed to update commitment status", zap.Int64("id", id), zap.String("status", status), zap.Error(err))
		return fmt.Errorf("failed to update commitment status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected != 1 {
		return fmt.Errorf("commitment %d is not active", id)
	}
	return nil
}

func (r *CommitmentRepository) scanOne(row *sql.Row) (*entity.Commitment, error) {
	var c entity.Commitment
	var closedAt sql.NullTime

	err := row.Scan(
		&c.ID,
		&c.LineID,
		&c.RequestID,
		&c.AmountCents,
		&c.Status,
		&c.CreatedAt,
		&closedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get commitment: %w", err)
	}

	if closedAt.Valid {
		c.ClosedAt = &closedAt.Time
	}
	return &c, nil
}

// Verify interface compliance
var _ port.CommitmentRepository = (*CommitmentRepository)(nil)
