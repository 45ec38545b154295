package utils

import "testing"

func TestValidateRequestNumber(t *testing.T) {
	valid := []string{"EXP-2026-000001", "CAP-2025-123456"}
	for _, n := range valid {
		if err := ValidateRequestNumber(n); err != nil {
			t.Errorf("ValidateRequestNumber(%q) = %v, want nil", n, err)
		}
	}

	invalid := []string{"", "EXP-26-000001", "exp-2026-000001", "EXP-2026-1", "EXP2026000001"}
	for _, n := range invalid {
		if err := ValidateRequestNumber(n); err == nil {
			t.Errorf("ValidateRequestNumber(%q) = nil, want error", n)
		}
	}
}

func TestValidateActorID(t *testing.T) {
	if err := ValidateActorID("u-100"); err != nil {
		t.Errorf("got %v, want nil", err)
	}
	if err := ValidateActorID(""); err == nil {
		t.Error("empty actor ID accepted")
	}

	long := make([]byte, 65)
	for i := range long {
		long[i] = 'a'
	}
	if err := ValidateActorID(string(long)); err == nil {
		t.Error("oversized actor ID accepted")
	}
}

func TestSanitizeString(t *testing.T) {
	got := SanitizeString("missing\x00 venue\x1f quote\n")
	want := "missing venue quote"
	if got != want {
		t.Errorf("SanitizeString = %q, want %q", got, want)
	}
}
