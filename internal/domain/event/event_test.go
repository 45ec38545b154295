package event

import "testing"

func TestNew(t *testing.T) {
	evt := New(TypeRequestSubmitted, 42, "EXP-2026-000042")

	if evt.ID == "" {
		t.Error("ID should be generated")
	}
	if evt.CorrelationID == "" {
		t.Error("CorrelationID should be generated")
	}
	if evt.Type != TypeRequestSubmitted {
		t.Errorf("Type = %s, want %s", evt.Type, TypeRequestSubmitted)
	}
	if evt.RequestID != 42 || evt.RequestNumber != "EXP-2026-000042" {
		t.Errorf("request identity not set: %+v", evt)
	}
	if evt.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}

	other := New(TypeRequestSubmitted, 42, "EXP-2026-000042")
	if other.ID == evt.ID {
		t.Error("event IDs should be unique")
	}
}

func TestEvent_Addressing(t *testing.T) {
	evt := New(TypeApprovalRequested, 1, "EXP-2026-000001").ForRole("MANAGER")
	if evt.TargetRole != "MANAGER" || evt.TargetUserID != "" {
		t.Errorf("ForRole: %+v", evt)
	}

	evt.ForUser("u-100")
	if evt.TargetUserID != "u-100" || evt.TargetRole != "" {
		t.Errorf("ForUser must clear the role target: %+v", evt)
	}
}

func TestEvent_Builders(t *testing.T) {
	evt := New(TypeRequestQueried, 7, "EXP-2026-000007").
		WithAmount(2230000).
		WithTitle("Team workstations").
		WithComment("missing vendor quote")

	if evt.AmountCents != 2230000 || evt.Title != "Team workstations" || evt.Comment != "missing vendor quote" {
		t.Errorf("builder fields not applied: %+v", evt)
	}
}

func TestEvent_WithCorrelation(t *testing.T) {
	evt := New(TypeRequestApproved, 1, "EXP-2026-000001")
	original := evt.CorrelationID

	evt.WithCorrelation("")
	if evt.CorrelationID != original {
		t.Error("empty correlation ID must not overwrite the generated one")
	}

	evt.WithCorrelation("chain-1")
	if evt.CorrelationID != "chain-1" {
		t.Error("correlation ID should be replaced")
	}
}

func TestType_IsValid(t *testing.T) {
	valid := []Type{
		TypeRequestSubmitted, TypeApprovalRequested, TypeRequestQueried,
		TypeRequestDenied, TypeRequestApproved, TypeRequestPaid,
		TypeRequestCancelled, TypeRequestResubmitted,
	}
	for _, typ := range valid {
		if !typ.IsValid() {
			t.Errorf("%s should be valid", typ)
		}
	}
	if Type("request.unknown").IsValid() {
		t.Error("unknown type should be invalid")
	}
}
