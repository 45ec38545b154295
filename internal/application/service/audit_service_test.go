package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openfin/budget-approval/internal/domain/entity"
)

func TestAuditService_RecordAndHistory(t *testing.T) {
	repo := newMemAuditRepo()
	svc := NewAuditService(repo, nopLogger{})
	ctx := context.Background()

	entries := []*entity.ApprovalEvent{
		{RequestID: 5, Role: entity.RoleRequester, Action: entity.ActionCreated, NewStatus: entity.StatusDraft},
		{RequestID: 5, Role: entity.RoleRequester, Action: entity.ActionSubmitted, PreviousStatus: entity.StatusDraft, NewStatus: entity.StatusPendingManager},
		{RequestID: 6, Role: entity.RoleRequester, Action: entity.ActionCreated, NewStatus: entity.StatusDraft},
	}
	for _, evt := range entries {
		evt.Timestamp = time.Now()
		if err := svc.Record(ctx, evt); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	history, err := svc.History(ctx, 5)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history has %d entries, want 2", len(history))
	}
	if history[0].Action != entity.ActionCreated || history[1].Action != entity.ActionSubmitted {
		t.Errorf("history out of order: %+v", history)
	}
}

func TestAuditService_Record_Validation(t *testing.T) {
	svc := NewAuditService(newMemAuditRepo(), nopLogger{})
	ctx := context.Background()

	if err := svc.Record(ctx, &entity.ApprovalEvent{Action: entity.ActionCreated}); !errors.Is(err, ErrValidation) {
		t.Errorf("missing request id: got %v, want ErrValidation", err)
	}
	if err := svc.Record(ctx, &entity.ApprovalEvent{RequestID: 5}); !errors.Is(err, ErrValidation) {
		t.Errorf("missing action: got %v, want ErrValidation", err)
	}
}
