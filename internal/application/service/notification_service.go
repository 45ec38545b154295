package service

import (
	"context"
	"fmt"

	"github.com/openfin/budget-approval/internal/application/dispatcher"
	"github.com/openfin/budget-approval/internal/application/port"
	"github.com/openfin/budget-approval/internal/domain/entity"
	"github.com/openfin/budget-approval/internal/domain/event"
)

// NotificationService records emitted event descriptors in the outbox table.
// Delivery happens out of process: the external dispatcher drains Pending rows
// and reports back through MarkSent/MarkFailed.
type NotificationService interface {
	// RegisterHandlers subscribes the outbox recorder for every event type
	RegisterHandlers(bus dispatcher.Dispatcher)

	// Pending returns undelivered records for the external dispatcher
	Pending(ctx context.Context, limit int) ([]*entity.NotificationRecord, error)

	// MarkSent records a successful delivery
	MarkSent(ctx context.Context, id int64) error

	// MarkFailed records a failed delivery attempt
	MarkFailed(ctx context.Context, id int64, errorMsg string) error
}

type notificationService struct {
	notificationRepo port.NotificationRepository
	logger           Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(notificationRepo port.NotificationRepository, logger Logger) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		logger:           logger,
	}
}

func (s *notificationService) RegisterHandlers(bus dispatcher.Dispatcher) {
	types := []event.Type{
		event.TypeRequestSubmitted,
		event.TypeApprovalRequested,
		event.TypeRequestQueried,
		event.TypeRequestDenied,
		event.TypeRequestApproved,
		event.TypeRequestPaid,
		event.TypeRequestCancelled,
		event.TypeRequestResubmitted,
	}
	for _, t := range types {
		bus.Subscribe(t, "notification-outbox", s.record)
	}
}

func (s *notificationService) record(ctx context.Context, evt *event.Event) error {
	rec := &entity.NotificationRecord{
		EventID:       evt.ID,
		EventType:     string(evt.Type),
		RequestID:     evt.RequestID,
		RequestNumber: evt.RequestNumber,
		TargetRole:    evt.TargetRole,
		TargetUserID:  evt.TargetUserID,
		AmountCents:   evt.AmountCents,
		Title:         evt.Title,
		Status:        entity.NotificationStatusPending,
		CreatedAt:     evt.Timestamp,
	}

	if err := s.notificationRepo.Create(ctx, rec); err != nil {
		s.logger.Error("Failed to record notification", "event_id", evt.ID, "error", err)
		return fmt.Errorf("record notification: %w", err)
	}

	s.logger.Info("Notification queued",
		"event_type", evt.Type,
		"request_number", evt.RequestNumber,
		"target_role", evt.TargetRole,
		"target_user", evt.TargetUserID,
	)
	return nil
}

func (s *notificationService) Pending(ctx context.Context, limit int) ([]*entity.NotificationRecord, error) {
	return s.notificationRepo.ListPending(ctx, limit)
}

func (s *notificationService) MarkSent(ctx context.Context, id int64) error {
	return s.notificationRepo.MarkSent(ctx, id)
}

func (s *notificationService) MarkFailed(ctx context.Context, id int64, errorMsg string) error {
	return s.notificationRepo.MarkFailed(ctx, id, errorMsg)
}
