package entity

import "time"

// Notification is one inbox entry for one recipient
type Notification struct {
	ID          int64 `json:"id"`
	RecipientID int64 `json:"recipientId"`
	// ExpenseID is zero once the expense has been deleted
	ExpenseID     int64     `json:"expenseId,omitempty"`
	TriggeredByID int64     `json:"triggeredById,omitempty"`
	Type          string    `json:"type"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	Read          bool      `json:"read"`
	CreatedAt     time.Time `json:"createdAt"`
}
