package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/openfin/budget-approval/internal/application/port"
	"github.com/openfin/budget-approval/internal/domain/entity"
	"go.uber.org/zap"
)

// RequestRepository implements port.RequestRepository
type RequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sql.DB, logger *zap.Logger) port.RequestRepository {
	return &RequestRepository{db: db, logger: logger}
}

const requestColumns = `
	id, number, requester_id, line_id, title, justification,
	total_cents, status, current_approver_role, version,
	submitted_at, approved_at, paid_at, created_at, updated_at
`

// Create inserts a new request
func (r *RequestRepository) Create(ctx context.Context, req *entity.Request) error {
	query := `
		INSERT INTO requests (
			number, requester_id, line_id, title, justification,
			total_cents, status, current_approver_role, version,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		nullIfEmpty(req.Number),
		req.RequesterID,
		req.LineID,
		req.Title,
		req.Justification,
		req.TotalCents,
		req.Status,
		nullIfEmpty(req.CurrentApproverRole),
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create request", zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	req.ID = id
	req.Version = 1
	return nil
}

// GetByID retrieves a request by ID
func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*entity.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE id = ?`
	return r.scanOne(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
}

// GetByNumber retrieves a request by its human-readable number
func (r *RequestRepository) GetByNumber(ctx context.Context, number string) (*entity.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE number = ?`
	return r.scanOne(getExecutor(ctx, r.db).QueryRowContext(ctx, query, number))
}

// List retrieves requests, optionally filtered by status, newest first
func (r *RequestRepository) List(ctx context.Context, status string, limit, offset int) ([]*entity.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list requests", zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var requests []*entity.Request
	for rows.Next() {
		req, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

// UpdateState persists the mutable request fields and bumps the version.
// The update is conditional on fromVersion; zero rows affected means the
// request was modified concurrently.
func (r *RequestRepository) UpdateState(ctx context.Context, req *entity.Request, fromVersion int64) (bool, error) {
	query := `
		UPDATE requests
		SET number = ?, title = ?, justification = ?, total_cents = ?,
			status = ?, current_approver_role = ?, version = version + 1,
			submitted_at = ?, approved_at = ?, paid_at = ?, updated_at = ?
		WHERE id = ? AND version = ?
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		nullIfEmpty(req.Number),
		req.Title,
		req.Justification,
		req.TotalCents,
		req.Status,
		nullIfEmpty(req.CurrentApproverRole),
		req.SubmittedAt,
		req.ApprovedAt,
		req.PaidAt,
		req.UpdatedAt,
		req.ID,
		fromVersion,
	)
	if err != nil {
		r.logger.Error("Failed to update request", zap.Int64("id", req.ID), zap.Error(err))
		return false, fmt.Errorf("failed to update request: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 1 {
		req.Version = fromVersion + 1
		return true, nil
	}
	return false, nil
}

// CreateItem inserts a request line item
func (r *RequestRepository) CreateItem(ctx context.Context, item *entity.RequestItem) error {
	query := `
		INSERT INTO request_items (request_id, description, amount_cents, created_at)
		VALUES (?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		item.RequestID,
		item.Description,
		item.AmountCents,
		item.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create request item", zap.Error(err))
		return fmt.Errorf("failed to create request item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	item.ID = id
	return nil
}

// GetItems retrieves the line items of a request
func (r *RequestRepository) GetItems(ctx context.Context, requestID int64) ([]*entity.RequestItem, error) {
	query := `
		SELECT id, request_id, description, amount_cents, created_at
		FROM request_items
		WHERE request_id = ?
		ORDER BY id
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to get request items", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get request items: %w", err)
	}
	defer rows.Close()

	var items []*entity.RequestItem
	for rows.Next() {
		var item entity.RequestItem
		err := rows.Scan(&item.ID, &item.RequestID, &item.Description, &item.AmountCents, &item.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request item: %w", err)
		}
		items = append(items, &item)
	}

	return items, rows.Err()
}

// ReplaceItems swaps all line items of a request, used on resubmission
func (r *RequestRepository) ReplaceItems(ctx context.Context, requestID int64, items []*entity.RequestItem) error {
	ex := getExecutor(ctx, r.db)

	if _, err := ex.ExecContext(ctx, `DELETE FROM request_items WHERE request_id = ?`, requestID); err != nil {
		return fmt.Errorf("failed to delete request items: %w", err)
	}

	for _, item := range items {
		item.RequestID = requestID
		if err := r.CreateItem(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func (r *RequestRepository) scanOne(row *sql.Row) (*entity.Request, error) {
	req, err := scanRequest(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get request", zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

func (r *RequestRepository) scanRow(rows *sql.Rows) (*entity.Request, error) {
	req, err := scanRequest(rows.Scan)
	if err != nil {
		return nil, fmt.Errorf("failed to scan request: %w", err)
	}
	return req, nil
}

// nullIfEmpty maps "" to NULL so the UNIQUE constraint on number ignores
// drafts that have no number yet.
func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func scanRequest(scan func(dest ...interface{}) error) (*entity.Request, error) {
	var req entity.Request
	var number, role sql.NullString
	var submittedAt, approvedAt, paidAt sql.NullTime

	err := scan(
		&req.ID,
		&number,
		&req.RequesterID,
		&req.LineID,
		&req.Title,
		&req.Justification,
		&req.TotalCents,
		&req.Status,
		&role,
		&req.Version,
		&submittedAt,
		&approvedAt,
		&paidAt,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.Number = number.String
	req.CurrentApproverRole = role.String
	if submittedAt.Valid {
		req.SubmittedAt = &submittedAt.Time
	}
	if approvedAt.Valid {
		req.ApprovedAt = &approvedAt.Time
	}
	if paidAt.Valid {
		req.PaidAt = &paidAt.Time
	}
	return &req, nil
}

// Verify interface compliance
var _ port.RequestRepository = (*RequestRepository)(nil)
