package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is the descriptor pushed to the notification dispatcher. The core does
// not know how notifications are delivered; it only says who should hear about
// what. Exactly one of TargetRole / TargetUserID is set.
type Event struct {
	ID            string    `json:"id"`
	Type          Type      `json:"type"`
	RequestID     int64     `json:"request_id"`
	RequestNumber string    `json:"request_number"`
	TargetRole    string    `json:"target_role,omitempty"`
	TargetUserID  string    `json:"target_user_id,omitempty"`
	AmountCents   int64     `json:"amount_cents"`
	Title         string    `json:"title"`
	Comment       string    `json:"comment,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID string    `json:"correlation_id"`
}

// New creates an event descriptor with a fresh ID and correlation ID.
func New(eventType Type, requestID int64, requestNumber string) *Event {
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		RequestID:     requestID,
		RequestNumber: requestNumber,
		Timestamp:     time.Now(),
		CorrelationID: uuid.NewString(),
	}
}

// ForRole addresses the event to every holder of an approver role.
func (e *Event) ForRole(role string) *Event {
	e.TargetRole = role
	e.TargetUserID = ""
	return e
}

// ForUser addresses the event to a single user, typically the requester.
func (e *Event) ForUser(userID string) *Event {
	e.TargetUserID = userID
	e.TargetRole = ""
	return e
}

// WithAmount attaches the request amount.
func (e *Event) WithAmount(cents int64) *Event {
	e.AmountCents = cents
	return e
}

// WithTitle attaches the request title.
func (e *Event) WithTitle(title string) *Event {
	e.Title = title
	return e
}

// WithComment attaches a free-text comment, e.g. a query or denial reason.
func (e *Event) WithComment(comment string) *Event {
	e.Comment = comment
	return e
}

// WithCorrelation links the event to an existing correlation chain.
func (e *Event) WithCorrelation(correlationID string) *Event {
	if correlationID != "" {
		e.CorrelationID = correlationID
	}
	return e
}
