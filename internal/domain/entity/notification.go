package entity

import "time"

// NotificationRecord is an outbox row for an emitted event descriptor.
// The core only inserts Pending rows; the external dispatcher drains them
// and maintains the delivery status.
type NotificationRecord struct {
	ID            int64      `json:"id"`
	EventID       string     `json:"event_id"`
	EventType     string     `json:"event_type"`
	RequestID     int64      `json:"request_id"`
	RequestNumber string     `json:"request_number"`
	TargetRole    string     `json:"target_role,omitempty"`
	TargetUserID  string     `json:"target_user_id,omitempty"`
	AmountCents   int64      `json:"amount_cents"`
	Title         string     `json:"title"`
	Status        string     `json:"status"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
}
