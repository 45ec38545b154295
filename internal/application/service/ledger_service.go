package service

import (
	"context"
	"fmt"
	"time"

	"github.com/openfin/budget-approval/internal/application/port"
	"github.com/openfin/budget-approval/internal/domain/entity"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Availability is a read-only snapshot of a budget line's position. It is
// advisory: a positive answer here is never a reservation.
type Availability struct {
	Available           bool  `json:"available"`
	ApprovedCents       int64 `json:"approved_cents"`
	CommittedCents      int64 `json:"committed_cents"`
	ActualCents         int64 `json:"actual_cents"`
	AvailableCents      int64 `json:"available_cents"`
	RemainingAfterCents int64 `json:"remaining_after_cents"`
}

// LedgerService is the single source of truth for fund availability. All
// mutations re-validate inside one transaction; concurrent reservations
// against the same line serialize so committed+actual never exceeds approved.
type LedgerService interface {
	// CheckAvailability reports whether amountCents would fit. Read-only,
	// runs outside any lock, must never substitute for Reserve.
	CheckAvailability(ctx context.Context, lineID, amountCents int64) (*Availability, error)

	// Reserve atomically re-validates availability and creates an Active
	// commitment, incrementing the line's committed total in the same
	// transaction. On InsufficientFunds nothing is mutated.
	Reserve(ctx context.Context, lineID, requestID, amountCents int64) (*entity.Commitment, error)

	// Release returns an Active commitment's funds to the line. Releasing an
	// already-Released commitment is a no-op; releasing a Paid one fails.
	Release(ctx context.Context, commitmentID int64) error

	// MarkPaid moves an Active commitment's amount from committed to actual.
	MarkPaid(ctx context.Context, commitmentID int64) error
}

type ledgerService struct {
	lineRepo       port.LineRepository
	commitmentRepo port.CommitmentRepository
	txManager      port.TransactionManager
	logger         Logger
	now            func() time.Time
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	lineRepo port.LineRepository,
	commitmentRepo port.CommitmentRepository,
	txManager port.TransactionManager,
	logger Logger,
) LedgerService {
	return &ledgerService{
		lineRepo:       lineRepo,
		commitmentRepo: commitmentRepo,
		txManager:      txManager,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *ledgerService) CheckAvailability(ctx context.Context, lineID, amountCents int64) (*Availability, error) {
	if amountCents <= 0 {
		return nil, &ValidationError{Field: "amount", Message: "must be positive"}
	}

	line, err := s.lineRepo.GetByID(ctx, lineID)
	if err != nil {
		return nil, fmt.Errorf("get line: %w", err)
	}
	if line == nil || !line.Active {
		return nil, fmt.Errorf("%w: id %d", ErrLineNotFound, lineID)
	}

	available := line.AvailableCents()
	return &Availability{
		Available:           amountCents <= available,
		ApprovedCents:       line.ApprovedCents,
		CommittedCents:      line.CommittedCents,
		ActualCents:         line.ActualCents,
		AvailableCents:      available,
		RemainingAfterCents: available - amountCents,
	}, nil
}

func (s *ledgerService) Reserve(ctx context.Context, lineID, requestID, amountCents int64) (*entity.Commitment, error) {
	if amountCents <= 0 {
		return nil, &ValidationError{Field: "amount", Message: "must be positive"}
	}

	var commitment *entity.Commitment
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		line, err := s.lineRepo.GetByID(txCtx, lineID)
		if err != nil {
			return fmt.Errorf("get line: %w", err)
		}
		if line == nil || !line.Active {
			return fmt.Errorf("%w: id %d", ErrLineNotFound, lineID)
		}

		// Authoritative re-validation. Any earlier CheckAvailability answer
		// is stale by now.
		available := line.AvailableCents()
		if amountCents > available {
			return &InsufficientFundsError{
				LineID:         lineID,
				AvailableCents: available,
				RequiredCents:  amountCents,
			}
		}

		ok, err := s.lineRepo.AdjustTotals(txCtx, lineID, amountCents, 0, line.CommittedCents)
		if err != nil {
			return fmt.Errorf("adjust totals: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: line %d changed during reservation", ErrConcurrencyConflict, lineID)
		}

		commitment = &entity.Commitment{
			LineID:      lineID,
			RequestID:   requestID,
			AmountCents: amountCents,
			Status:      entity.CommitmentStatusActive,
			CreatedAt:   s.now(),
		}
		if err := s.commitmentRepo.Create(txCtx, commitment); err != nil {
			return fmt.Errorf("create commitment: %w", err)
		}

		return nil
	})

	if err != nil {
		s.logger.Error("Reservation failed", "line_id", lineID, "request_id", requestID, "amount_cents", amountCents, "error", err)
		return nil, err
	}

	s.logger.Info("Funds reserved",
		"line_id", lineID,
		"request_id", requestID,
		"commitment_id", commitment.ID,
		"amount_cents", amountCents,
	)
	return commitment, nil
}

func (s *ledgerService) Release(ctx context.Context, commitmentID int64) error {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		c, err := s.commitmentRepo.GetByID(txCtx, commitmentID)
		if err != nil {
			return fmt.Errorf("get commitment: %w", err)
		}
		if c == nil {
			return fmt.Errorf("%w: id %d", ErrCommitmentNotFound, commitmentID)
		}

		switch c.Status {
		case entity.CommitmentStatusReleased:
			// Idempotent: already terminal, nothing to credit twice.
			return nil
		case entity.CommitmentStatusPaid:
			return &CommitmentStateError{CommitmentID: commitmentID, Status: c.Status, Operation: "release"}
		}

		line, err := s.lineRepo.GetByID(txCtx, c.LineID)
		if err != nil {
			return fmt.Errorf("get line: %w", err)
		}
		if line == nil {
			return fmt.Errorf("%w: id %d", ErrLineNotFound, c.LineID)
		}

		ok, err := s.lineRepo.AdjustTotals(txCtx, c.LineID, -c.AmountCents, 0, line.CommittedCents)
		if err != nil {
			return fmt.Errorf("adjust totals: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: line %d changed during release", ErrConcurrencyConflict, c.LineID)
		}

		if err := s.commitmentRepo.UpdateStatus(txCtx, commitmentID, entity.CommitmentStatusReleased, s.now()); err != nil {
			return fmt.Errorf("update commitment: %w", err)
		}
		return nil
	})

	if err != nil {
		s.logger.Error("Release failed", "commitment_id", commitmentID, "error", err)
		return err
	}

	s.logger.Info("Commitment released", "commitment_id", commitmentID)
	return nil
}

func (s *ledgerService) MarkPaid(ctx context.Context, commitmentID int64) error {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		c, err := s.commitmentRepo.GetByID(txCtx, commitmentID)
		if err != nil {
			return fmt.Errorf("get commitment: %w", err)
		}
		if c == nil {
			return fmt.Errorf("%w: id %d", ErrCommitmentNotFound, commitmentID)
		}
		if !c.IsActive() {
			return &CommitmentStateError{CommitmentID: commitmentID, Status: c.Status, Operation: "pay"}
		}

		line, err := s.lineRepo.GetByID(txCtx, c.LineID)
		if err != nil {
			return fmt.Errorf("get line: %w", err)
		}
		if line == nil {
			return fmt.Errorf("%w: id %d", ErrLineNotFound, c.LineID)
		}

		ok, err := s.lineRepo.AdjustTotals(txCtx, c.LineID, -c.AmountCents, c.AmountCents, line.CommittedCents)
		if err != nil {
			return fmt.Errorf("adjust totals: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: line %d changed during payment", ErrConcurrencyConflict, c.LineID)
		}

		if err := s.commitmentRepo.UpdateStatus(txCtx, commitmentID, entity.CommitmentStatusPaid, s.now()); err != nil {
			return fmt.Errorf("update commitment: %w", err)
		}
		return nil
	})

	if err != nil {
		s.logger.Error("Mark paid failed", "commitment_id", commitmentID, "error", err)
		return err
	}

	s.logger.Info("Commitment paid", "commitment_id", commitmentID)
	return nil
}
