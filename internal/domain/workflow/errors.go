package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when a state transition is not allowed
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a state is not a known lifecycle state
	ErrInvalidState = errors.New("invalid state")
)

// TransitionError carries enough detail for the caller to render a precise
// rejection: the state the request was in, the attempted trigger and the
// triggers that would have been legal.
type TransitionError struct {
	From    State
	Trigger Trigger
	Allowed []Trigger
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s from state %s (allowed: %v)", e.Trigger, e.From, e.Allowed)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
