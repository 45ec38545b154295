package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/openfin/budget-approval/internal/application/port"
	"github.com/openfin/budget-approval/internal/domain/entity"
	"go.uber.org/zap"
)

// AuditRepository implements port.AuditRepository. The approval_events table
// is append-only; there is no update or delete statement in this file on
// purpose.
type AuditRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sql.DB, logger *zap.Logger) port.AuditRepository {
	return &AuditRepository{db: db, logger: logger}
}

// Append writes one audit entry
func (r *AuditRepository) Append(ctx context.Context, evt *entity.ApprovalEvent) error {
	query := `
		INSERT INTO approval_events (
			request_id, actor_id, role, action, comment,
			previous_status, new_status, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		evt.RequestID,
		evt.ActorID,
		evt.Role,
		evt.Action,
		evt.Comment,
		evt.PreviousStatus,
		evt.NewStatus,
		evt.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to append approval event", zap.Int64("request_id", evt.RequestID), zap.Error(err))
		return fmt.Errorf("failed to append approval event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	evt.ID = id
	return nil
}

// ListByRequestID retrieves a request's audit trail in chronological order
func (r *AuditRepository) ListByRequestID(ctx context.Context, requestID int64) ([]*entity.ApprovalEvent, error) {
	query := `
		SELECT id, request_id, actor_id, role, action, comment,
			previous_status, new_status, timestamp
		FROM approval_events
		WHERE request_id = ?
		ORDER BY id
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to list approval events", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to list approval events: %w", err)
	}
	defer rows.Close()

	var events []*entity.ApprovalEvent
	for rows.Next() {
		var evt entity.ApprovalEvent
		err := rows.Scan(
			&evt.ID,
			&evt.RequestID,
			&evt.ActorID,
			&evt.Role,
			&evt.Action,
			&evt.Comment,
			&evt.PreviousStatus,
			&evt.NewStatus,
			&evt.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval event: %w", err)
		}
		events = append(events, &evt)
	}

	return events, rows.Err()
}

// Verify interface compliance
var _ port.AuditRepository = (*AuditRepository)(nil)
