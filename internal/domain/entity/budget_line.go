package entity

import "time"

// BudgetLine is the funded bucket for one (cost centre, fiscal year, account code).
// ApprovedCents is the ceiling set once per fiscal period; CommittedCents and
// ActualCents are derived totals maintained by the ledger.
type BudgetLine struct {
	ID             int64     `json:"id"`
	CostCentre     string    `json:"cost_centre"`
	FiscalYear     int       `json:"fiscal_year"`
	AccountCode    string    `json:"account_code"`
	Description    string    `json:"description"`
	ApprovedCents  int64     `json:"approved_cents"`
	CommittedCents int64     `json:"committed_cents"`
	ActualCents    int64     `json:"actual_cents"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AvailableCents returns the amount still open for new commitments.
func (l *BudgetLine) AvailableCents() int64 {
	return l.ApprovedCents - l.CommittedCents - l.ActualCents
}
