package entity

import "time"

// ApprovalEvent is one append-only audit log entry for a request.
// Entries are never updated or deleted.
type ApprovalEvent struct {
	ID             int64     `json:"id"`
	RequestID      int64     `json:"request_id"`
	ActorID        string    `json:"actor_id"`
	Role           string    `json:"role"`
	Action         string    `json:"action"`
	Comment        string    `json:"comment"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Timestamp      time.Time `json:"timestamp"`
}
