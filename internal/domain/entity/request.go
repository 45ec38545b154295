package entity

import "time"

// Request is an expenditure request moving through the approval workflow.
// It is mutated only through the workflow service; Version backs the
// optimistic concurrency check on every state change.
type Request struct {
	ID                  int64      `json:"id"`
	Number              string     `json:"number"`
	RequesterID         string     `json:"requester_id"`
	LineID              int64      `json:"line_id"`
	Title               string     `json:"title"`
	Justification       string     `json:"justification"`
	TotalCents          int64      `json:"total_cents"`
	Status              string     `json:"status"`
	CurrentApproverRole string     `json:"current_approver_role"`
	Version             int64      `json:"version"`
	SubmittedAt         *time.Time `json:"submitted_at,omitempty"`
	ApprovedAt          *time.Time `json:"approved_at,omitempty"`
	PaidAt              *time.Time `json:"paid_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`

	Items []*RequestItem `json:"items,omitempty"`
}

// RequestItem is one line item of an expenditure request.
type RequestItem struct {
	ID          int64     `json:"id"`
	RequestID   int64     `json:"request_id"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	CreatedAt   time.Time `json:"created_at"`
}

// TotalItemCents sums the line items. The request total is fixed to this sum
// at submission time.
func (r *Request) TotalItemCents() int64 {
	var total int64
	for _, item := range r.Items {
		total += item.AmountCents
	}
	return total
}
