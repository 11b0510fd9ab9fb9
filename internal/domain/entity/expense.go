package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/expense-approval/internal/domain/workflow"
)

// ExpenseRequest is a reimbursement claim moving through the approval pipeline
type ExpenseRequest struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	ReceiptURL  string          `json:"receiptUrl,omitempty"`
	Status      workflow.State  `json:"status"`
	OwnerID     int64           `json:"employeeId"`
	OwnerName   string          `json:"employeeName,omitempty"`
	OwnerEmail  string          `json:"employeeEmail,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ExpenseDraft carries the owner-editable fields of an expense
type ExpenseDraft struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	ReceiptURL  string          `json:"receiptUrl"`
}

// Apply overwrites the editable fields of e with the draft
func (d ExpenseDraft) Apply(e *ExpenseRequest) {
	e.Title = d.Title
	e.Description = d.Description
	e.Amount = d.Amount
	e.ReceiptURL = d.ReceiptURL
}

// SortOrder controls creation-time ordering of list queries
type SortOrder int

const (
	SortAscending SortOrder = iota
	SortDescending
)
