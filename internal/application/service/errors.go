package service

import (
	"errors"
	"fmt"

	"github.com/openfin/budget-approval/internal/domain/money"
)

var (
	// ErrValidation is returned for malformed or incomplete input
	ErrValidation = errors.New("validation error")

	// ErrInsufficientFunds is returned when a ledger reservation is denied
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidCommitmentState is returned for release/pay on a non-Active commitment
	ErrInvalidCommitmentState = errors.New("invalid commitment state")

	// ErrLineNotFound is returned when no active budget line exists for an id
	ErrLineNotFound = errors.New("budget line not found")

	// ErrRequestNotFound is returned when a request does not exist
	ErrRequestNotFound = errors.New("request not found")

	// ErrCommitmentNotFound is returned when a commitment does not exist
	ErrCommitmentNotFound = errors.New("commitment not found")

	// ErrConcurrencyConflict is returned when an optimistic check fails.
	// The caller may retry; the core never retries internally.
	ErrConcurrencyConflict = errors.New("concurrency conflict")
)

// ValidationError describes what was wrong with the input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Message)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// InsufficientFundsError carries the exact shortfall so the calling layer can
// render a precise message.
type InsufficientFundsError struct {
	LineID         int64
	AvailableCents int64
	RequiredCents  int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds on line %d: available %s, required %s",
		e.LineID, money.Format(e.AvailableCents), money.Format(e.RequiredCents))
}

func (e *InsufficientFundsError) Unwrap() error {
	return ErrInsufficientFunds
}

// CommitmentStateError reports an operation attempted on a terminal commitment.
type CommitmentStateError struct {
	CommitmentID int64
	Status       string
	Operation    string
}

func (e *CommitmentStateError) Error() string {
	return fmt.Sprintf("cannot %s commitment %d in status %s", e.Operation, e.CommitmentID, e.Status)
}

func (e *CommitmentStateError) Unwrap() error {
	return ErrInvalidCommitmentState
}
