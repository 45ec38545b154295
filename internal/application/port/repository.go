package port

import (
	"context"
	"time"

	"github.com/openfin/budget-approval/internal/domain/entity"
)

// LineRepository defines persistence operations for BudgetLine.
// Appropriation data is populated by the out-of-scope bulk import; the core
// reads the approved ceiling and writes the derived totals back.
type LineRepository interface {
	Create(ctx context.Context, line *entity.BudgetLine) error
	GetByID(ctx context.Context, id int64) (*entity.BudgetLine, error)
	List(ctx context.Context, fiscalYear int) ([]*entity.BudgetLine, error)

	// AdjustTotals applies deltas to the derived committed/actual totals.
	// The write is guarded: it only applies if the line's current committed
	// total still equals expectedCommittedCents, so two interleaved
	// reservations cannot both count the same funds. Returns false when the
	// guard fails.
	AdjustTotals(ctx context.Context, id int64, committedDeltaCents, actualDeltaCents, expectedCommittedCents int64) (bool, error)
}

// CommitmentRepository defines persistence operations for Commitment
type CommitmentRepository interface {
	Create(ctx context.Context, c *entity.Commitment) error
	GetByID(ctx context.Context, id int64) (*entity.Commitment, error)
	GetActiveByRequestID(ctx context.Context, requestID int64) (*entity.Commitment, error)
	// UpdateStatus moves a commitment to a terminal status and stamps ClosedAt
	UpdateStatus(ctx context.Context, id int64, status string, closedAt time.Time) error
}

// RequestRepository defines persistence operations for Request
type RequestRepository interface {
	Create(ctx context.Context, req *entity.Request) error
	GetByID(ctx context.Context, id int64) (*entity.Request, error)
	GetByNumber(ctx context.Context, number string) (*entity.Request, error)
	List(ctx context.Context, status string, limit, offset int) ([]*entity.Request, error)

	// UpdateState persists status, approver role, timestamps and bumps the
	// version. The update is conditional on fromVersion; it returns false
	// when the row has moved on (optimistic concurrency conflict).
	UpdateState(ctx context.Context, req *entity.Request, fromVersion int64) (bool, error)

	CreateItem(ctx context.Context, item *entity.RequestItem) error
	GetItems(ctx context.Context, requestID int64) ([]*entity.RequestItem, error)
	ReplaceItems(ctx context.Context, requestID int64, items []*entity.RequestItem) error
}

// AuditRepository defines persistence operations for the append-only
// ApprovalEvent log. There is deliberately no update or delete.
type AuditRepository interface {
	Append(ctx context.Context, evt *entity.ApprovalEvent) error
	ListByRequestID(ctx context.Context, requestID int64) ([]*entity.ApprovalEvent, error)
}

// SequenceRepository hands out request numbers, unique and monotonically
// increasing per (kind, year).
type SequenceRepository interface {
	Next(ctx context.Context, kind string, year int) (int64, error)
}

// NotificationRepository defines persistence operations for the outbox of
// emitted event descriptors
type NotificationRepository interface {
	Create(ctx context.Context, rec *entity.NotificationRecord) error
	ListPending(ctx context.Context, limit int) ([]*entity.NotificationRecord, error)
	MarkSent(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, errorMsg string) error
}

// TransactionManager handles database transactions. Nested calls join the
// transaction already carried by the context.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
