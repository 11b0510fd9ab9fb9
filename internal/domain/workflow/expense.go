package workflow

import (
	"strings"
)

// expenseTransitions is the single definition of legal status changes.
// Rejected expenses re-open through TriggerEdit; nothing leaves StatePaid.
var expenseTransitions = func() StateMachineBuilder {
	b := NewBuilder()

	b.Configure(StatePendingManager).
		Permit(TriggerManagerApprove, StatePendingFinance).
		Permit(TriggerManagerReject, StateRejectedManager).
		Permit(TriggerEdit, StatePendingManager)

	b.Configure(StatePendingFinance).
		Permit(TriggerFinanceApprove, StatePaid).
		Permit(TriggerFinanceReject, StateRejectedFinance)

	b.Configure(StateRejectedManager).
		Permit(TriggerEdit, StatePendingManager)

	b.Configure(StateRejectedFinance).
		Permit(TriggerEdit, StatePendingManager)

	b.Configure(StatePaid)

	return b
}()

// NewExpenseMachine returns a state machine positioned at the given status
func NewExpenseMachine(current State) StateMachine {
	return expenseTransitions.Build(current)
}

// IsEditable reports whether an expense in this status may be edited or deleted by its owner
func IsEditable(s State) bool {
	if !s.IsValid() {
		return false
	}
	return NewExpenseMachine(s).CanFire(TriggerEdit)
}

// RequiredStates lists the statuses from which the trigger is permitted
func RequiredStates(trigger Trigger) []State {
	return expenseTransitions.Sources(trigger)
}

// DescribeRequired renders RequiredStates for error messages, e.g. "PENDING_MANAGER"
// or "PENDING_MANAGER, REJECTED_FINANCE or REJECTED_MANAGER".
func DescribeRequired(trigger Trigger) string {
	states := RequiredStates(trigger)
	names := make([]string, len(states))
	for i, s := range states {
		names[i] = s.String()
	}
	switch len(names) {
	case 0:
		return "none"
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " or " + names[len(names)-1]
	}
}
