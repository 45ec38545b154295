package event

// Type identifies the type of outbound event descriptor
type Type string

const (
	TypeRequestSubmitted   Type = "request.submitted"
	TypeApprovalRequested  Type = "request.approval_required"
	TypeRequestQueried     Type = "request.queried"
	TypeRequestDenied      Type = "request.denied"
	TypeRequestApproved    Type = "request.approved"
	TypeRequestPaid        Type = "request.paid"
	TypeRequestCancelled   Type = "request.cancelled"
	TypeRequestResubmitted Type = "request.resubmitted"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeRequestSubmitted,
		TypeApprovalRequested,
		TypeRequestQueried,
		TypeRequestDenied,
		TypeRequestApproved,
		TypeRequestPaid,
		TypeRequestCancelled,
		TypeRequestResubmitted:
		return true
	default:
		return false
	}
}
