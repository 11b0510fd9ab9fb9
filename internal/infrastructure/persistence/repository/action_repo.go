package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/infrastructure/persistence/sqlite"
)

// ActionRepository implements port.ActionRepository over manager_actions and finance_actions
type ActionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewActionRepository creates a new audit action repository
func NewActionRepository(db *sql.DB, logger *zap.Logger) *ActionRepository {
	return &ActionRepository{
		db:     db,
		logger: logger,
	}
}

// CreateManagerAction appends a manager decision
func (r *ActionRepository) CreateManagerAction(ctx context.Context, action *entity.ManagerAction) error {
	if action.CreatedAt.IsZero() {
		action.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO manager_actions (expense_request_id, manager_id, action, comment, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query,
		action.ExpenseID,
		action.ManagerID,
		string(action.Action),
		action.Comment,
		action.CreatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create manager action",
			zap.Int64("expense_id", action.ExpenseID), zap.Error(err))
		return fmt.Errorf("failed to create manager action: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	action.ID = id
	return nil
}

// CreateFinanceAction appends a finance decision
func (r *ActionRepository) CreateFinanceAction(ctx context.Context, action *entity.FinanceAction) error {
	if action.CreatedAt.IsZero() {
		action.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO finance_actions (expense_request_id, finance_id, action, comment, payment_reference, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query,
		action.ExpenseID,
		action.FinanceID,
		string(action.Action),
		action.Comment,
		action.PaymentReference,
		action.CreatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create finance action",
			zap.Int64("expense_id", action.ExpenseID), zap.Error(err))
		return fmt.Errorf("failed to create finance action: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	action.ID = id
	return nil
}

// ListManagerActions returns an expense's manager decisions, oldest first
func (r *ActionRepository) ListManagerActions(ctx context.Context, expenseID int64) ([]*entity.ManagerAction, error) {
	query := `
		SELECT id, expense_request_id, manager_id, action, comment, created_at
		FROM manager_actions
		WHERE expense_request_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx, query, expenseID)
	if err != nil {
		r.logger.Error("Failed to list manager actions", zap.Int64("expense_id", expenseID), zap.Error(err))
		return nil, fmt.Errorf("failed to list manager actions: %w", err)
	}
	defer rows.Close()

	actions := make([]*entity.ManagerAction, 0)
	for rows.Next() {
		var a entity.ManagerAction
		var kind string
		if err := rows.Scan(&a.ID, &a.ExpenseID, &a.ManagerID, &kind, &a.Comment, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan manager action: %w", err)
		}
		a.Action = entity.ActionKind(kind)
		actions = append(actions, &a)
	}

	return actions, rows.Err()
}

// ListFinanceActions returns an expense's finance decisions, oldest first
func (r *ActionRepository) ListFinanceActions(ctx context.Context, expenseID int64) ([]*entity.FinanceAction, error) {
	query := `
		SELECT id, expense_request_id, finance_id, action, comment, payment_reference, created_at
		FROM finance_actions
		WHERE expense_request_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx, query, expenseID)
	if err != nil {
		r.logger.Error("Failed to list finance actions", zap.Int64("expense_id", expenseID), zap.Error(err))
		return nil, fmt.Errorf("failed to list finance actions: %w", err)
	}
	defer rows.Close()

	actions := make([]*entity.FinanceAction, 0)
	for rows.Next() {
		var a entity.FinanceAction
		var kind string
		if err := rows.Scan(&a.ID, &a.ExpenseID, &a.FinanceID, &kind, &a.Comment, &a.PaymentReference, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan finance action: %w", err)
		}
		a.Action = entity.ActionKind(kind)
		actions = append(actions, &a)
	}

	return actions, rows.Err()
}

// Verify interface compliance
var _ port.ActionRepository = (*ActionRepository)(nil)
