package workflow

// State represents a request lifecycle state
type State string

const (
	StateDraft State = "DRAFT"
	// StateSubmitted is the routing entry stage. Requests are never persisted
	// in it; submission moves a draft straight into the first pending state
	// the router picks.
	StateSubmitted         State = "SUBMITTED"
	StatePendingManager    State = "PENDING_MANAGER"
	StatePendingPlanning   State = "PENDING_PLANNING"
	StatePendingExecutive  State = "PENDING_EXECUTIVE"
	StateQueried           State = "QUERIED"
	StateApproved          State = "APPROVED"
	StatePendingPayment    State = "PENDING_PAYMENT"
	StateProcessingPayment State = "PROCESSING_PAYMENT"
	StatePaid              State = "PAID"
	StateDenied            State = "DENIED"
	StateCancelled         State = "CANCELLED"
)

var validStates = map[State]bool{
	StateDraft:             true,
	StateSubmitted:         true,
	StatePendingManager:    true,
	StatePendingPlanning:   true,
	StatePendingExecutive:  true,
	StateQueried:           true,
	StateApproved:          true,
	StatePendingPayment:    true,
	StateProcessingPayment: true,
	StatePaid:              true,
	StateDenied:            true,
	StateCancelled:         true,
}

var terminalStates = map[State]bool{
	StatePaid:      true,
	StateDenied:    true,
	StateCancelled: true,
}

var pendingStates = map[State]bool{
	StatePendingManager:   true,
	StatePendingPlanning:  true,
	StatePendingExecutive: true,
}

// IsTerminal returns true if no further transitions are defined from the state
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsPendingApproval returns true if the state is waiting on an approver decision
func (s State) IsPendingApproval() bool {
	return pendingStates[s]
}

// IsValid returns true if the state is a known lifecycle state
func (s State) IsValid() bool {
	return validStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}
