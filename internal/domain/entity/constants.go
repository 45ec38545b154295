package entity

// Status constants for Request
const (
	StatusDraft             = "DRAFT"
	StatusSubmitted         = "SUBMITTED"
	StatusPendingManager    = "PENDING_MANAGER"
	StatusPendingPlanning   = "PENDING_PLANNING"
	StatusPendingExecutive  = "PENDING_EXECUTIVE"
	StatusQueried           = "QUERIED"
	StatusApproved          = "APPROVED"
	StatusPendingPayment    = "PENDING_PAYMENT"
	StatusProcessingPayment = "PROCESSING_PAYMENT"
	StatusPaid              = "PAID"
	StatusDenied            = "DENIED"
	StatusCancelled         = "CANCELLED"
)

// Status constants for Commitment
const (
	CommitmentStatusActive   = "ACTIVE"
	CommitmentStatusReleased = "RELEASED"
	CommitmentStatusPaid     = "PAID"
)

// Approver role constants. The identity resolver supplies the acting role per
// call; these are the roles the routing table knows about.
const (
	RoleRequester = "REQUESTER"
	RoleManager   = "MANAGER"
	RolePlanning  = "FINANCIAL_PLANNING"
	RoleExecutive = "EXECUTIVE"
	RoleFinance   = "FINANCE"
)

// Action constants for ApprovalEvent
const (
	ActionCreated        = "CREATED"
	ActionSubmitted      = "SUBMITTED"
	ActionApproved       = "APPROVED"
	ActionQueried        = "QUERIED"
	ActionDenied         = "DENIED"
	ActionResubmitted    = "RESUBMITTED"
	ActionPaymentStarted = "PAYMENT_STARTED"
	ActionPaid           = "PAID"
	ActionCancelled      = "CANCELLED"
)

// Notification status constants
const (
	NotificationStatusPending = "PENDING"
	NotificationStatusSent    = "SENT"
	NotificationStatusFailed  = "FAILED"
)

// DefaultRequestKind is the prefix of generated request numbers
// (KIND-YEAR-NNNNNN).
const DefaultRequestKind = "EXP"
