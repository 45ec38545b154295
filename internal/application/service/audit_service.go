package service

import (
	"context"
	"fmt"

	"github.com/openfin/budget-approval/internal/application/port"
	"github.com/openfin/budget-approval/internal/domain/entity"
)

// AuditService exposes the append-only approval event log.
type AuditService interface {
	// Record appends one audit entry. Entries are immutable once written.
	Record(ctx context.Context, evt *entity.ApprovalEvent) error

	// History returns a request's audit trail in chronological order.
	History(ctx context.Context, requestID int64) ([]*entity.ApprovalEvent, error)
}

type auditService struct {
	auditRepo port.AuditRepository
	logger    Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(auditRepo port.AuditRepository, logger Logger) AuditService {
	return &auditService{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

func (s *auditService) Record(ctx context.Context, evt *entity.ApprovalEvent) error {
	if evt.RequestID <= 0 {
		return &ValidationError{Field: "request_id", Message: "required"}
	}
	if evt.Action == "" {
		return &ValidationError{Field: "action", Message: "required"}
	}

	if err := s.auditRepo.Append(ctx, evt); err != nil {
		s.logger.Error("Failed to append audit event", "request_id", evt.RequestID, "action", evt.Action, "error", err)
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *auditService) History(ctx context.Context, requestID int64) ([]*entity.ApprovalEvent, error) {
	events, err := s.auditRepo.ListByRequestID(ctx, requestID)
	if err != nil {
		s.logger.Error("Failed to list audit events", "request_id", requestID, "error", err)
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return events, nil
}
