package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/openfin/budget-approval/internal/application/port"
	"github.com/openfin/budget-approval/internal/domain/entity"
	"go.uber.org/zap"
)

// LineRepository implements port.LineRepository
type LineRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLineRepository creates a new budget line repository
func NewLineRepository(db *sql.DB, logger *zap.Logger) port.LineRepository {
	return &LineRepository{db: db, logger: logger}
}

// Create inserts a new budget line
func (r *LineRepository) Create(ctx context.Context, line *entity.BudgetLine) error {
	query := `
		INSERT INTO budget_lines (
			cost_centre, fiscal_year, account_code, description,
			approved_cents, committed_cents, actual_cents, active
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		line.CostCentre,
		line.FiscalYear,
		line.AccountCode,
		line.Description,
		line.ApprovedCents,
		line.CommittedCents,
		line.ActualCents,
		line.Active,
	)
	if err != nil {
		r.logger.Error("Failed to create budget line", zap.Error(err))
		return fmt.Errorf("failed to create budget line: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	line.ID = id
	return nil
}

// GetByID retrieves a budget line by ID
func (r *LineRepository) GetByID(ctx context.Context, id int64) (*entity.BudgetLine, error) {
	query := `
		SELECT id, cost_centre, fiscal_year, account_code, description,
			approved_cents, committed_cents, actual_cents, active,
			created_at, updated_at
		FROM budget_lines
		WHERE id = ?
	`

	var line entity.BudgetLine
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&line.ID,
		&line.CostCentre,
		&line.FiscalYear,
		&line.AccountCode,
		&line.Description,
		&line.ApprovedCents,
		&line.CommittedCents,
		&line.ActualCents,
		&line.Active,
		&line.CreatedAt,
		&line.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get budget line", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get budget line: %w", err)
	}

	return &line, nil
}

// List retrieves the budget lines of a fiscal year
func (r *LineRepository) List(ctx context.Context, fiscalYear int) ([]*entity.BudgetLine, error) {
	query := `
		SELECT id, cost_centre, fiscal_year, account_code, description,
			approved_cents, committed_cents, actual_cents, active,
			created_at, updated_at
		FROM budget_lines
		WHERE fiscal_year = ?
		ORDER BY cost_centre, account_code
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, fiscalYear)
	if err != nil {
		r.logger.Error("Failed to list budget lines", zap.Error(err))
		return nil, fmt.Errorf("failed to list budget lines: %w", err)
	}
	defer rows.Close()

	var lines []*entity.BudgetLine
	for rows.Next() {
		var line entity.BudgetLine
		err := rows.Scan(
			&line.ID,
			&line.CostCentre,
			&line.FiscalYear,
			&line.AccountCode,
			&line.Description,
			&line.ApprovedCents,
			&line.CommittedCents,
			&line.ActualCents,
			&line.Active,
			&line.CreatedAt,
			&line.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget line: %w", err)
		}
		lines = append(lines, &line)
	}

	return lines, rows.Err()
}

// AdjustTotals applies deltas to the derived totals. The WHERE clause guards
// on the expected committed total and on the availability invariant, so a
// stale or overdrawing update affects zero rows.
func (r *LineRepository) AdjustTotals(ctx context.Context, id int64, committedDeltaCents, actualDeltaCents, expectedCommittedCents int64) (bool, error) {
	query := `
		UPDATE budget_lines
		SET committed_cents = committed_cents + ?,
			actual_cents = actual_cents + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
			AND committed_cents = ?
			AND committed_cents + ? + actual_cents + ? <= approved_cents
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		committedDeltaCents,
		actualDeltaCents,
		id,
		expectedCommittedCents,
		committedDeltaCents,
		actualDeltaCents,
	)
	if err != nil {
		r.logger.Error("Failed to adjust totals", zap.Int64("id", id), zap.Error(err))
		return false, fmt.Errorf("failed to adjust totals: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected == 1, nil
}

// Verify interface compliance
var _ port.LineRepository = (*LineRepository)(nil)
