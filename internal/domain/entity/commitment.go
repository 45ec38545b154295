package entity

import "time"

// Commitment is a reservation of funds against a budget line for one request.
// Once Released or Paid it is terminal and never mutated again.
type Commitment struct {
	ID          int64      `json:"id"`
	LineID      int64      `json:"line_id"`
	RequestID   int64      `json:"request_id"`
	AmountCents int64      `json:"amount_cents"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
}

// IsActive reports whether the commitment still holds funds.
func (c *Commitment) IsActive() bool {
	return c.Status == CommitmentStatusActive
}
