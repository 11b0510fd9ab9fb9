package event

import (
	"fmt"

	"github.com/garyjia/expense-approval/internal/domain/entity"
)

// Payload keys shared by all expense events
const (
	KeyExpenseTitle = "expenseTitle"
	KeyEmployeeName = "employeeName"
	KeyManagerName  = "managerName"
	KeyFinanceName  = "financeUserName"
	KeyAmount       = "amount"
	KeyReason       = "reason"
)

func ownerOf(e *entity.ExpenseRequest) Audience {
	return ToUser(entity.RoleEmployee, e.OwnerID)
}

// Submitted tells managers a new expense is waiting for them
func Submitted(e *entity.ExpenseRequest, owner entity.Actor) *Event {
	return NewEvent(TypeExpenseSubmitted, e.ID, ToRole(entity.RoleManager),
		"New Expense Submitted",
		fmt.Sprintf("%s submitted a new expense: %s", owner.FullName, e.Title),
		map[string]interface{}{
			KeyExpenseTitle: e.Title,
			KeyAmount:       e.Amount.StringFixed(2),
			KeyEmployeeName: owner.FullName,
		}).TriggeredBy(owner.UserID)
}

// ManagerApproved produces the owner notice and the finance hand-off for a manager approval
func ManagerApproved(e *entity.ExpenseRequest, manager entity.Actor) []*Event {
	owner := NewEvent(TypeExpenseApprovedByManager, e.ID, ownerOf(e),
		"Expense Approved by Manager",
		fmt.Sprintf("Your expense '%s' has been approved by %s and sent to Finance.", e.Title, manager.FullName),
		map[string]interface{}{
			KeyExpenseTitle: e.Title,
			KeyManagerName:  manager.FullName,
		}).TriggeredBy(manager.UserID)
	finance := NewEvent(TypeExpensePendingFinance, e.ID, ToRole(entity.RoleFinance),
		"New Expense Awaiting Finance Approval",
		fmt.Sprintf("Expense '%s' approved by manager %s awaits your review.", e.Title, manager.FullName),
		map[string]interface{}{
			KeyExpenseTitle: e.Title,
			KeyEmployeeName: e.OwnerName,
			KeyManagerName:  manager.FullName,
		}).TriggeredBy(manager.UserID).WithCorrelation(owner.CorrelationID)
	return []*Event{owner, finance}
}

// ManagerRejected tells the owner a manager rejected the expense
func ManagerRejected(e *entity.ExpenseRequest, manager entity.Actor, reason string) *Event {
	return NewEvent(TypeExpenseRejectedByManager, e.ID, ownerOf(e),
		"Expense Rejected by Manager",
		fmt.Sprintf("Your expense '%s' has been rejected by %s", e.Title, manager.FullName),
		map[string]interface{}{
			KeyExpenseTitle: e.Title,
			KeyManagerName:  manager.FullName,
			KeyReason:       reason,
		}).TriggeredBy(manager.UserID)
}

// Paid tells the owner finance approved the payment
func Paid(e *entity.ExpenseRequest, finance entity.Actor) *Event {
	return NewEvent(TypeExpensePaid, e.ID, ownerOf(e),
		"Expense Payment Approved",
		fmt.Sprintf("Your expense '%s' has been approved for payment by Finance.", e.Title),
		map[string]interface{}{
			KeyExpenseTitle: e.Title,
			KeyAmount:       e.Amount.StringFixed(2),
			KeyFinanceName:  finance.FullName,
		}).TriggeredBy(finance.UserID)
}

// FinanceRejected tells the owner finance rejected the payment
func FinanceRejected(e *entity.ExpenseRequest, finance entity.Actor, reason string) *Event {
	return NewEvent(TypeExpenseRejectedByFinance, e.ID, ownerOf(e),
		"Expense Payment Rejected",
		fmt.Sprintf("Your expense '%s' has been rejected by Finance.", e.Title),
		map[string]interface{}{
			KeyExpenseTitle: e.Title,
			KeyFinanceName:  finance.FullName,
			KeyReason:       reason,
		}).TriggeredBy(finance.UserID)
}
