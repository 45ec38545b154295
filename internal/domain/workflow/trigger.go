package workflow

// Trigger represents an action that can cause a state transition
type Trigger string

const (
	TriggerSubmit          Trigger = "SUBMIT"
	TriggerAdvance         Trigger = "ADVANCE"
	TriggerApprove         Trigger = "APPROVE"
	TriggerQuery           Trigger = "QUERY"
	TriggerDeny            Trigger = "DENY"
	TriggerResubmit        Trigger = "RESUBMIT"
	TriggerBeginPayment    Trigger = "BEGIN_PAYMENT"
	TriggerCompletePayment Trigger = "COMPLETE_PAYMENT"
	TriggerCancel          Trigger = "CANCEL"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
