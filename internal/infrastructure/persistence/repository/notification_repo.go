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

// NotificationRepository implements port.NotificationRepository
type NotificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification outbox repository
func NewNotificationRepository(db *sql.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{db: db, logger: logger}
}

// Create inserts a pending outbox row
func (r *NotificationRepository) Create(ctx context.Context, rec *entity.NotificationRecord) error {
	query := `
		INSERT INTO notifications (
			event_id, event_type, request_id, request_number,
			target_role, target_user_id, amount_cents, title, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		rec.EventID,
		rec.EventType,
		rec.RequestID,
		rec.RequestNumber,
		rec.TargetRole,
		rec.TargetUserID,
		rec.AmountCents,
		rec.Title,
		rec.Status,
		rec.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create notification", zap.String("event_id", rec.EventID), zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	rec.ID = id
	return nil
}

// ListPending retrieves undelivered notifications, oldest first
func (r *NotificationRepository) ListPending(ctx context.Context, limit int) ([]*entity.NotificationRecord, error) {
	query := `
		SELECT id, event_id, event_type, request_id, request_number,
			target_role, target_user_id, amount_cents, title, status,
			error_message, created_at, sent_at
		FROM notifications
		WHERE status = ?
		ORDER BY id
		LIMIT ?
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, entity.NotificationStatusPending, limit)
	if err != nil {
		r.logger.Error("Failed to list pending notifications", zap.Error(err))
		return nil, fmt.Errorf("failed to list pending notifications: %w", err)
	}
	defer rows.Close()

	var records []*entity.NotificationRecord
	for rows.Next() {
		var rec entity.NotificationRecord
		var errorMsg sql.NullString
		var sentAt sql.NullTime

		err := rows.Scan(
			&rec.ID,
			&rec.EventID,
			&rec.EventType,
			&rec.RequestID,
			&rec.RequestNumber,
			&rec.TargetRole,
			&rec.TargetUserID,
			&rec.AmountCents,
			&rec.Title,
			&rec.Status,
			&errorMsg,
			&rec.CreatedAt,
			&sentAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}

		rec.ErrorMessage = errorMsg.String
		if sentAt.Valid {
			rec.SentAt = &sentAt.Time
		}
		records = append(records, &rec)
	}

	return records, rows.Err()
}

// MarkSent records a successful delivery
func (r *NotificationRepository) MarkSent(ctx context.Context, id int64) error {
	query := `UPDATE notifications SET status = ?, sent_at = ? WHERE id = ?`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query, entity.NotificationStatusSent, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to mark notification sent", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}
	return nil
}

// MarkFailed records a failed delivery attempt
func (r *NotificationRepository) MarkFailed(ctx context.Context, id int64, errorMsg string) error {
	query := `UPDATE notifications SET status = ?, error_message = ? WHERE id = ?`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query, entity.NotificationStatusFailed, errorMsg, id)
	if err != nil {
		r.logger.Error("Failed to mark notification failed", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification failed: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.NotificationRepository = (*NotificationRepository)(nil)
