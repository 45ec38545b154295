package workflow

import (
	"fmt"
	"sort"
)

// Machine validates lifecycle transitions against a closed edge table.
// An edge is (from state, trigger) -> set of permitted target states; the
// approval router picks among the targets where more than one is allowed.
type Machine struct {
	edges map[State]map[Trigger][]State
}

// NewMachine returns the request lifecycle machine.
//
// The graph is the whole lifecycle: submission, the approval pipeline with
// query/resubmit and deny, the payment leg, and cancellation. Any pair not in
// the table is an invalid transition.
func NewMachine() *Machine {
	m := &Machine{edges: make(map[State]map[Trigger][]State)}

	m.permit(StateDraft, TriggerSubmit, StatePendingManager)
	m.permit(StateDraft, TriggerCancel, StateCancelled)

	m.permit(StatePendingManager, TriggerApprove, StatePendingPlanning, StatePendingExecutive)
	m.permit(StatePendingPlanning, TriggerApprove, StateApproved)
	m.permit(StatePendingExecutive, TriggerApprove, StateApproved)

	for _, pending := range []State{StatePendingManager, StatePendingPlanning, StatePendingExecutive} {
		m.permit(pending, TriggerQuery, StateQueried)
		m.permit(pending, TriggerDeny, StateDenied)
		m.permit(pending, TriggerCancel, StateCancelled)
	}

	m.permit(StateQueried, TriggerResubmit, StatePendingManager)
	m.permit(StateQueried, TriggerSubmit, StatePendingManager)

	m.permit(StateApproved, TriggerAdvance, StatePendingPayment)
	m.permit(StatePendingPayment, TriggerBeginPayment, StateProcessingPayment)
	m.permit(StateProcessingPayment, TriggerCompletePayment, StatePaid)

	return m
}

func (m *Machine) permit(from State, trigger Trigger, targets ...State) {
	if !from.IsValid() {
		panic(fmt.Sprintf("invalid source state: %s", from))
	}
	for _, to := range targets {
		if !to.IsValid() {
			panic(fmt.Sprintf("invalid target state: %s", to))
		}
	}
	byTrigger, ok := m.edges[from]
	if !ok {
		byTrigger = make(map[Trigger][]State)
		m.edges[from] = byTrigger
	}
	byTrigger[trigger] = append(byTrigger[trigger], targets...)
}

// CanFire returns true if the trigger has at least one edge from the state
func (m *Machine) CanFire(from State, trigger Trigger) bool {
	return len(m.edges[from][trigger]) > 0
}

// Step validates that (from, trigger) -> to is an edge of the lifecycle graph.
// It returns a TransitionError listing the permitted triggers otherwise.
func (m *Machine) Step(from State, trigger Trigger, to State) error {
	if !from.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidState, from)
	}
	for _, target := range m.edges[from][trigger] {
		if target == to {
			return nil
		}
	}
	return &TransitionError{From: from, Trigger: trigger, Allowed: m.PermittedTriggers(from)}
}

// Targets returns the permitted target states for (from, trigger)
func (m *Machine) Targets(from State, trigger Trigger) []State {
	targets := m.edges[from][trigger]
	out := make([]State, len(targets))
	copy(out, targets)
	return out
}

// PermittedTriggers returns the triggers that can fire from the state, sorted
func (m *Machine) PermittedTriggers(from State) []Trigger {
	byTrigger := m.edges[from]
	triggers := make([]Trigger, 0, len(byTrigger))
	for trigger := range byTrigger {
		triggers = append(triggers, trigger)
	}
	sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })
	return triggers
}
