package workflow

// Trigger represents an action that can cause a status transition
type Trigger string

const (
	TriggerManagerApprove Trigger = "MANAGER_APPROVE"
	TriggerManagerReject  Trigger = "MANAGER_REJECT"
	TriggerFinanceApprove Trigger = "FINANCE_APPROVE"
	TriggerFinanceReject  Trigger = "FINANCE_REJECT"
	// TriggerEdit covers both in-place edits and the re-open of a rejected expense
	TriggerEdit Trigger = "EDIT"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
