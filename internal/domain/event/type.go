package event

// Type identifies the kind of notification event
type Type string

const (
	TypeExpenseSubmitted         Type = "expense.submitted"
	TypeExpenseApprovedByManager Type = "expense.approved_by_manager"
	TypeExpensePendingFinance    Type = "expense.pending_finance"
	TypeExpenseRejectedByManager Type = "expense.rejected_by_manager"
	TypeExpensePaid              Type = "expense.paid"
	TypeExpenseRejectedByFinance Type = "expense.rejected_by_finance"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeExpenseSubmitted,
		TypeExpenseApprovedByManager,
		TypeExpensePendingFinance,
		TypeExpenseRejectedByManager,
		TypeExpensePaid,
		TypeExpenseRejectedByFinance:
		return true
	default:
		return false
	}
}
