package workflow

import (
	"errors"
	"testing"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateDraft, false},
		{StateSubmitted, false},
		{StatePendingManager, false},
		{StatePendingPlanning, false},
		{StatePendingExecutive, false},
		{StateQueried, false},
		{StateApproved, false},
		{StatePendingPayment, false},
		{StateProcessingPayment, false},
		{StatePaid, true},
		{StateDenied, true},
		{StateCancelled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsPendingApproval(t *testing.T) {
	pending := []State{StatePendingManager, StatePendingPlanning, StatePendingExecutive}
	for _, s := range pending {
		if !s.IsPendingApproval() {
			t.Errorf("%s should be a pending-approval state", s)
		}
	}
	for _, s := range []State{StateDraft, StateQueried, StatePendingPayment, StatePaid} {
		if s.IsPendingApproval() {
			t.Errorf("%s should not be a pending-approval state", s)
		}
	}
}

func TestState_IsValid(t *testing.T) {
	if !StateDraft.IsValid() {
		t.Error("DRAFT should be valid")
	}
	if State("INVALID").IsValid() {
		t.Error("unknown state should be invalid")
	}
	if State("").IsValid() {
		t.Error("empty state should be invalid")
	}
}

func TestMachine_HappyPath(t *testing.T) {
	m := NewMachine()

	steps := []struct {
		from    State
		trigger Trigger
		to      State
	}{
		{StateDraft, TriggerSubmit, StatePendingManager},
		{StatePendingManager, TriggerApprove, StatePendingPlanning},
		{StatePendingPlanning, TriggerApprove, StateApproved},
		{StateApproved, TriggerAdvance, StatePendingPayment},
		{StatePendingPayment, TriggerBeginPayment, StateProcessingPayment},
		{StateProcessingPayment, TriggerCompletePayment, StatePaid},
	}

	for _, s := range steps {
		if err := m.Step(s.from, s.trigger, s.to); err != nil {
			t.Errorf("Step(%s, %s, %s) = %v, want nil", s.from, s.trigger, s.to, err)
		}
	}
}

func TestMachine_HighAmountPath(t *testing.T) {
	m := NewMachine()

	if err := m.Step(StatePendingManager, TriggerApprove, StatePendingExecutive); err != nil {
		t.Errorf("manager approval to executive stage should be permitted: %v", err)
	}
	if err := m.Step(StatePendingExecutive, TriggerApprove, StateApproved); err != nil {
		t.Errorf("executive approval should be permitted: %v", err)
	}
}

func TestMachine_QueryAndResubmit(t *testing.T) {
	m := NewMachine()

	for _, pending := range []State{StatePendingManager, StatePendingPlanning, StatePendingExecutive} {
		if err := m.Step(pending, TriggerQuery, StateQueried); err != nil {
			t.Errorf("query from %s should be permitted: %v", pending, err)
		}
		if err := m.Step(pending, TriggerDeny, StateDenied); err != nil {
			t.Errorf("deny from %s should be permitted: %v", pending, err)
		}
	}

	// Resubmission restarts at the first pipeline stage
	if err := m.Step(StateQueried, TriggerResubmit, StatePendingManager); err != nil {
		t.Errorf("resubmit should re-enter at the manager stage: %v", err)
	}
	if err := m.Step(StateQueried, TriggerResubmit, StatePendingPlanning); err == nil {
		t.Error("resubmit must not resume mid-pipeline")
	}
}

func TestMachine_RejectsIllegalTransitions(t *testing.T) {
	m := NewMachine()

	tests := []struct {
		from    State
		trigger Trigger
		to      State
	}{
		{StateDraft, TriggerApprove, StateApproved},
		{StatePaid, TriggerCancel, StateCancelled},
		{StateDenied, TriggerResubmit, StatePendingManager},
		{StateCancelled, TriggerSubmit, StatePendingManager},
		{StatePendingPayment, TriggerApprove, StatePaid},
		{StateProcessingPayment, TriggerCancel, StateCancelled},
		{StateQueried, TriggerApprove, StateApproved},
		{StatePendingManager, TriggerApprove, StateApproved}, // must pass a second stage first
	}

	for _, tt := range tests {
		err := m.Step(tt.from, tt.trigger, tt.to)
		if err == nil {
			t.Errorf("Step(%s, %s, %s) should be rejected", tt.from, tt.trigger, tt.to)
			continue
		}
		if !errors.Is(err, ErrInvalidTransition) && !errors.Is(err, ErrInvalidState) {
			t.Errorf("Step(%s, %s, %s) error = %v, want ErrInvalidTransition", tt.from, tt.trigger, tt.to, err)
		}
	}
}

func TestMachine_SubmittedIsRoutingStageOnly(t *testing.T) {
	m := NewMachine()

	// Submission lands directly in the first pending state; SUBMITTED exists
	// only as the router's entry stage and has no lifecycle edges.
	if got := m.PermittedTriggers(StateSubmitted); len(got) != 0 {
		t.Errorf("SUBMITTED has triggers %v, want none", got)
	}
	if err := m.Step(StateDraft, TriggerSubmit, StatePendingManager); err != nil {
		t.Errorf("submit should land in the manager stage: %v", err)
	}
}

func TestMachine_TerminalStatesHaveNoEdges(t *testing.T) {
	m := NewMachine()

	for _, s := range []State{StatePaid, StateDenied, StateCancelled} {
		if got := m.PermittedTriggers(s); len(got) != 0 {
			t.Errorf("terminal state %s has triggers %v", s, got)
		}
	}
}

func TestMachine_TransitionErrorDetail(t *testing.T) {
	m := NewMachine()

	err := m.Step(StatePendingManager, TriggerBeginPayment, StateProcessingPayment)
	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if te.From != StatePendingManager || te.Trigger != TriggerBeginPayment {
		t.Errorf("unexpected error detail: %+v", te)
	}
	if len(te.Allowed) == 0 {
		t.Error("TransitionError should list permitted triggers")
	}
}

func TestMachine_CanFire(t *testing.T) {
	m := NewMachine()

	if !m.CanFire(StateDraft, TriggerSubmit) {
		t.Error("CanFire(DRAFT, SUBMIT) should be true")
	}
	if m.CanFire(StateDraft, TriggerDeny) {
		t.Error("CanFire(DRAFT, DENY) should be false")
	}
}

func TestMachine_Targets(t *testing.T) {
	m := NewMachine()

	targets := m.Targets(StatePendingManager, TriggerApprove)
	if len(targets) != 2 {
		t.Fatalf("manager approval should fork to two stages, got %v", targets)
	}
}
