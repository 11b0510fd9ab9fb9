package entity

import (
	"strings"
	"time"
)

// ActionKind is the decision recorded in an audit row
type ActionKind string

const (
	ActionApproved ActionKind = "APPROVED"
	ActionRejected ActionKind = "REJECTED"
)

// ManagerAction is an append-only record of a manager decision
type ManagerAction struct {
	ID        int64      `json:"id"`
	ExpenseID int64      `json:"expenseId"`
	ManagerID int64      `json:"managerId"`
	Action    ActionKind `json:"action"`
	Comment   string     `json:"comment,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// FinanceAction is an append-only record of a finance decision
type FinanceAction struct {
	ID               int64      `json:"id"`
	ExpenseID        int64      `json:"expenseId"`
	FinanceID        int64      `json:"financeId"`
	Action           ActionKind `json:"action"`
	Comment          string     `json:"comment,omitempty"`
	PaymentReference string     `json:"paymentReference,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// ExpenseHistory is the audit trail of one expense
type ExpenseHistory struct {
	ExpenseID      int64            `json:"expenseId"`
	ManagerActions []*ManagerAction `json:"managerActions"`
	FinanceActions []*FinanceAction `json:"financeActions"`
}

// PayoutDateLayout is the format used for the expected payout date
const PayoutDateLayout = "2006-01-02"

// BuildPaymentReference joins the supplied payment details as
// "Method: <m> | Expected Payout: <date>". Blank methods and nil dates are skipped;
// the result is empty when neither is present. A non-blank method is kept verbatim.
func BuildPaymentReference(method string, payout *time.Time) string {
	parts := make([]string, 0, 2)
	if strings.TrimSpace(method) != "" {
		parts = append(parts, "Method: "+method)
	}
	if payout != nil {
		parts = append(parts, "Expected Payout: "+payout.Format(PayoutDateLayout))
	}
	return strings.Join(parts, " | ")
}
