package routing

import (
	"errors"
	"testing"

	"github.com/openfin/budget-approval/internal/domain/entity"
	"github.com/openfin/budget-approval/internal/domain/workflow"
)

const thresholdCents = 500000 // 5000.00

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	r, err := NewRouter(DefaultRules(thresholdCents))
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return r
}

func TestRouter_FirstStageIsManager(t *testing.T) {
	r := newTestRouter(t)

	for _, amount := range []int64{1, thresholdCents, thresholdCents * 10} {
		hop, err := r.NextHop(amount, workflow.StateSubmitted)
		if err != nil {
			t.Fatalf("NextHop(%d, SUBMITTED): %v", amount, err)
		}
		if hop.Role != entity.RoleManager || hop.NextState != workflow.StatePendingManager {
			t.Errorf("NextHop(%d, SUBMITTED) = %+v, want manager review", amount, hop)
		}
	}
}

func TestRouter_ThresholdBoundary(t *testing.T) {
	r := newTestRouter(t)

	// 5000.00 belongs to the lower band, 5000.01 to the upper one.
	low, err := r.NextHop(thresholdCents, workflow.StatePendingManager)
	if err != nil {
		t.Fatalf("NextHop at threshold: %v", err)
	}
	high, err := r.NextHop(thresholdCents+1, workflow.StatePendingManager)
	if err != nil {
		t.Fatalf("NextHop above threshold: %v", err)
	}

	if low.Role != entity.RolePlanning || low.NextState != workflow.StatePendingPlanning {
		t.Errorf("amount at threshold routed to %+v, want planning", low)
	}
	if high.Role != entity.RoleExecutive || high.NextState != workflow.StatePendingExecutive {
		t.Errorf("amount above threshold routed to %+v, want executive", high)
	}
	if low.Role == high.Role {
		t.Error("boundary amounts must route to different roles")
	}
}

func TestRouter_TerminalHops(t *testing.T) {
	r := newTestRouter(t)

	for _, stage := range []workflow.State{workflow.StatePendingPlanning, workflow.StatePendingExecutive} {
		hop, err := r.NextHop(123456, stage)
		if err != nil {
			t.Fatalf("NextHop from %s: %v", stage, err)
		}
		if !hop.Terminal() {
			t.Errorf("hop from %s should exhaust the pipeline, got %+v", stage, hop)
		}
		if hop.Role != entity.RoleFinance {
			t.Errorf("payment leg owner = %s, want finance", hop.Role)
		}
	}
}

func TestRouter_NoRuleFound(t *testing.T) {
	r := newTestRouter(t)

	_, err := r.NextHop(100, workflow.StatePaid)
	if !errors.Is(err, ErrNoRule) {
		t.Fatalf("NextHop from PAID error = %v, want ErrNoRule", err)
	}

	var nre *NoRuleError
	if !errors.As(err, &nre) {
		t.Fatalf("expected NoRuleError, got %v", err)
	}
	if nre.State != workflow.StatePaid || nre.AmountCents != 100 {
		t.Errorf("unexpected error detail: %+v", nre)
	}
}

func TestRouter_Deterministic(t *testing.T) {
	r := newTestRouter(t)

	first, err := r.NextHop(250000, workflow.StatePendingManager)
	if err != nil {
		t.Fatalf("NextHop: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := r.NextHop(250000, workflow.StatePendingManager)
		if err != nil {
			t.Fatalf("NextHop: %v", err)
		}
		if again != first {
			t.Fatalf("NextHop is not deterministic: %+v vs %+v", first, again)
		}
	}
}

func TestNewRouter_RejectsGappyTable(t *testing.T) {
	tests := []struct {
		name  string
		rules []Rule
	}{
		{"empty", nil},
		{"gap between bands", []Rule{
			{Stage: workflow.StatePendingManager, MinCents: 0, MaxCents: 100, Role: entity.RolePlanning, NextState: workflow.StatePendingPlanning},
			{Stage: workflow.StatePendingManager, MinCents: 200, MaxCents: Unbounded, Role: entity.RoleExecutive, NextState: workflow.StatePendingExecutive},
		}},
		{"no unbounded band", []Rule{
			{Stage: workflow.StatePendingManager, MinCents: 0, MaxCents: 100, Role: entity.RolePlanning, NextState: workflow.StatePendingPlanning},
		}},
		{"missing role", []Rule{
			{Stage: workflow.StateSubmitted, MinCents: 0, MaxCents: Unbounded, NextState: workflow.StatePendingManager},
		}},
		{"unknown state", []Rule{
			{Stage: workflow.State("NOWHERE"), MinCents: 0, MaxCents: Unbounded, Role: entity.RoleManager, NextState: workflow.StatePendingManager},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRouter(tt.rules); err == nil {
				t.Error("NewRouter should reject the table")
			}
		})
	}
}
