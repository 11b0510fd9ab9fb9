package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/workflow"
	"github.com/garyjia/expense-approval/internal/infrastructure/persistence/sqlite"
)

// ExpenseRepository implements port.ExpenseRepository
type ExpenseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *sql.DB, logger *zap.Logger) *ExpenseRepository {
	return &ExpenseRepository{
		db:     db,
		logger: logger,
	}
}

const expenseColumns = `
	e.id, e.title, e.description, e.amount, e.receipt_url, e.status, e.employee_id,
	u.full_name, u.email, e.created_at, e.updated_at`

const expenseFrom = `
	FROM expense_requests e
	JOIN users u ON u.id = e.employee_id`

// Create creates a new expense request
func (r *ExpenseRepository) Create(ctx context.Context, expense *entity.ExpenseRequest) error {
	now := time.Now().UTC()
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = now
	}
	if expense.UpdatedAt.IsZero() {
		expense.UpdatedAt = expense.CreatedAt
	}

	query := `
		INSERT INTO expense_requests (
			title, description, amount, receipt_url, status, employee_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query,
		expense.Title,
		expense.Description,
		expense.Amount.String(),
		expense.ReceiptURL,
		string(expense.Status),
		expense.OwnerID,
		expense.CreatedAt.UTC(),
		expense.UpdatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create expense", zap.Int64("employee_id", expense.OwnerID), zap.Error(err))
		return fmt.Errorf("failed to create expense: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	expense.ID = id
	return nil
}

// GetByID retrieves an expense with its owner's name and email
func (r *ExpenseRepository) GetByID(ctx context.Context, id int64) (*entity.ExpenseRequest, error) {
	query := `SELECT ` + expenseColumns + expenseFrom + ` WHERE e.id = ?`

	expense, err := scanExpense(sqlite.Executor(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get expense by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	return expense, nil
}

// Update overwrites the mutable columns if the stored status still equals expected
func (r *ExpenseRepository) Update(ctx context.Context, expense *entity.ExpenseRequest, expected workflow.State) error {
	if expense.UpdatedAt.IsZero() {
		expense.UpdatedAt = time.Now().UTC()
	}

	query := `
		UPDATE expense_requests
		SET title = ?, description = ?, amount = ?, receipt_url = ?, status = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`

	result, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query,
		expense.Title,
		expense.Description,
		expense.Amount.String(),
		expense.ReceiptURL,
		string(expense.Status),
		expense.UpdatedAt.UTC(),
		expense.ID,
		string(expected),
	)
	if err != nil {
		r.logger.Error("Failed to update expense", zap.Int64("id", expense.ID), zap.Error(err))
		return fmt.Errorf("failed to update expense: %w", err)
	}

	return checkAffected(result, expense.ID)
}

// Delete removes the expense if its stored status still equals expected
func (r *ExpenseRepository) Delete(ctx context.Context, id int64, expected workflow.State) error {
	result, err := sqlite.Executor(ctx, r.db).ExecContext(ctx,
		`DELETE FROM expense_requests WHERE id = ? AND status = ?`, id, string(expected))
	if err != nil {
		r.logger.Error("Failed to delete expense", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	return checkAffected(result, id)
}

// ListByOwner lists an employee's expenses in the given statuses
func (r *ExpenseRepository) ListByOwner(ctx context.Context, ownerID int64, statuses []workflow.State, order entity.SortOrder) ([]*entity.ExpenseRequest, error) {
	where, args := statusFilter(statuses)
	query := `SELECT ` + expenseColumns + expenseFrom +
		` WHERE e.employee_id = ?` + where + orderBy(order)

	return r.list(ctx, query, append([]interface{}{ownerID}, args...)...)
}

// ListByStatus lists all expenses in the given statuses
func (r *ExpenseRepository) ListByStatus(ctx context.Context, statuses []workflow.State, order entity.SortOrder) ([]*entity.ExpenseRequest, error) {
	where, args := statusFilter(statuses)
	query := `SELECT ` + expenseColumns + expenseFrom + ` WHERE 1 = 1` + where + orderBy(order)

	return r.list(ctx, query, args...)
}

func (r *ExpenseRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.ExpenseRequest, error) {
	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list expenses", zap.Error(err))
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]*entity.ExpenseRequest, 0)
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}

	return expenses, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanExpense(row rowScanner) (*entity.ExpenseRequest, error) {
	var e entity.ExpenseRequest
	var status string

	err := row.Scan(
		&e.ID,
		&e.Title,
		&e.Description,
		&e.Amount,
		&e.ReceiptURL,
		&status,
		&e.OwnerID,
		&e.OwnerName,
		&e.OwnerEmail,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	st, err := workflow.ParseState(status)
	if err != nil {
		return nil, fmt.Errorf("expense %d has unknown status %q: %w", e.ID, status, err)
	}
	e.Status = st

	return &e, nil
}

func statusFilter(statuses []workflow.State) (string, []interface{}) {
	if len(statuses) == 0 {
		return "", nil
	}
	placeholders := make([]string, len(statuses))
	args := make([]interface{}, len(statuses))
	for i, s := range statuses {
		placeholders[i] = "?"
		args[i] = string(s)
	}
	return ` AND e.status IN (` + strings.Join(placeholders, ", ") + `)`, args
}

// Ties on created_at fall back to id in the same direction
func orderBy(order entity.SortOrder) string {
	if order == entity.SortDescending {
		return ` ORDER BY e.created_at DESC, e.id DESC`
	}
	return ` ORDER BY e.created_at ASC, e.id ASC`
}

func checkAffected(result sql.Result, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense %d: %w", id, port.ErrStaleStatus)
	}
	return nil
}

// Verify interface compliance
var _ port.ExpenseRepository = (*ExpenseRepository)(nil)
