package port

import (
	"context"
	"errors"

	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/workflow"
)

// ErrStaleStatus is returned by conditional writes whose expected status no longer matches
var ErrStaleStatus = errors.New("expense status changed concurrently")

// ExpenseRepository defines persistence operations for ExpenseRequest
type ExpenseRepository interface {
	// Create assigns ID and timestamps and stores the expense
	Create(ctx context.Context, expense *entity.ExpenseRequest) error

	// GetByID returns nil, nil when the expense does not exist
	GetByID(ctx context.Context, id int64) (*entity.ExpenseRequest, error)

	// Update overwrites the expense only if its stored status still equals expected.
	// It returns ErrStaleStatus when another writer changed the status first.
	Update(ctx context.Context, expense *entity.ExpenseRequest, expected workflow.State) error

	// Delete removes the expense if its stored status still equals expected; audit rows cascade.
	// It returns ErrStaleStatus when the status changed first.
	Delete(ctx context.Context, id int64, expected workflow.State) error

	// ListByOwner returns the owner's expenses in any of the statuses, ordered by creation time
	ListByOwner(ctx context.Context, ownerID int64, statuses []workflow.State, order entity.SortOrder) ([]*entity.ExpenseRequest, error)

	// ListByStatus returns all expenses in any of the statuses, ordered by creation time
	ListByStatus(ctx context.Context, statuses []workflow.State, order entity.SortOrder) ([]*entity.ExpenseRequest, error)
}

// ActionRepository defines append-only persistence for audit rows
type ActionRepository interface {
	CreateManagerAction(ctx context.Context, action *entity.ManagerAction) error
	CreateFinanceAction(ctx context.Context, action *entity.FinanceAction) error
	ListManagerActions(ctx context.Context, expenseID int64) ([]*entity.ManagerAction, error)
	ListFinanceActions(ctx context.Context, expenseID int64) ([]*entity.FinanceAction, error)
}

// UserRepository defines read access to seeded users
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	ListByRole(ctx context.Context, role entity.Role) ([]*entity.User, error)
}

// NotificationRepository defines persistence for per-recipient inbox rows
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	ListByRecipient(ctx context.Context, recipientID int64, unreadOnly bool) ([]*entity.Notification, error)
	CountUnread(ctx context.Context, recipientID int64) (int, error)
	// MarkRead returns false when no row with that id belongs to the recipient
	MarkRead(ctx context.Context, id, recipientID int64) (bool, error)
	MarkAllRead(ctx context.Context, recipientID int64) (int64, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
