package workflow

import (
	"context"
	"time"

	"github.com/garyjia/expense-approval/internal/domain/entity"
)

// FinanceApproval carries the optional payment details of a finance approval
type FinanceApproval struct {
	Note                string
	ReimbursementMethod string
	ExpectedPayoutDate  *time.Time
}

// Engine applies role-gated status transitions to expense requests. Every
// operation reports failures as *apperr.Error values, checked in the order
// not found, access denied, invalid transition, validation failed.
type Engine interface {
	// Create submits a new expense owned by the actor in the initial status
	Create(ctx context.Context, actor entity.Actor, draft entity.ExpenseDraft) (*entity.ExpenseRequest, error)

	// Get returns a single expense if the actor may view it
	Get(ctx context.Context, actor entity.Actor, id int64) (*entity.ExpenseRequest, error)

	// History returns the manager and finance audit rows of an expense
	History(ctx context.Context, actor entity.Actor, id int64) (*entity.ExpenseHistory, error)

	// Update overwrites the owner-editable fields; rejected expenses re-open to PENDING_MANAGER
	Update(ctx context.Context, actor entity.Actor, id int64, draft entity.ExpenseDraft) (*entity.ExpenseRequest, error)

	// Delete removes an editable expense together with its audit rows
	Delete(ctx context.Context, actor entity.Actor, id int64) (*entity.ExpenseRequest, error)

	ManagerApprove(ctx context.Context, actor entity.Actor, id int64, comment string) (*entity.ExpenseRequest, error)
	ManagerReject(ctx context.Context, actor entity.Actor, id int64, comment string) (*entity.ExpenseRequest, error)
	FinanceApprove(ctx context.Context, actor entity.Actor, id int64, approval FinanceApproval) (*entity.ExpenseRequest, error)
	FinanceReject(ctx context.Context, actor entity.Actor, id int64, comment string) (*entity.ExpenseRequest, error)
}
