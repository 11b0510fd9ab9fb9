package service

import (
	"context"

	"github.com/garyjia/expense-approval/internal/application/workflow"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/event"
)

// CreateExpense submits a new expense for the calling employee
func (s *WorkflowService) CreateExpense(ctx context.Context, draft entity.ExpenseDraft) (*entity.ExpenseRequest, error) {
	return run(ctx, s, "create", func(ctx context.Context, actor entity.Actor) (*entity.ExpenseRequest, error) {
		expense, err := s.engine.Create(ctx, actor, draft)
		if err != nil {
			return nil, err
		}
		s.logger.Info("Expense submitted", "expense_id", expense.ID, "employee_id", actor.UserID)
		s.emit(ctx, event.Submitted(expense, actor))
		return expense, nil
	})
}

// GetByID returns one expense if the caller may view it
func (s *WorkflowService) GetByID(ctx context.Context, id int64) (*entity.ExpenseRequest, error) {
	return run(ctx, s, "get", func(ctx context.Context, actor entity.Actor) (*entity.ExpenseRequest, error) {
		return s.engine.Get(ctx, actor, id)
	})
}

// GetHistory returns the manager and finance actions recorded for an expense
func (s *WorkflowService) GetHistory(ctx context.Context, id int64) (*entity.ExpenseHistory, error) {
	return run(ctx, s, "history", func(ctx context.Context, actor entity.Actor) (*entity.ExpenseHistory, error) {
		return s.engine.History(ctx, actor, id)
	})
}

// UpdateExpense edits an own expense. A rejected expense goes back to the manager queue.
func (s *WorkflowService) UpdateExpense(ctx context.Context, id int64, draft entity.ExpenseDraft) (*entity.ExpenseRequest, error) {
	return run(ctx, s, "update", func(ctx context.Context, actor entity.Actor) (*entity.ExpenseRequest, error) {
		expense, err := s.engine.Update(ctx, actor, id, draft)
		if err != nil {
			return nil, err
		}
		s.logger.Info("Expense updated", "expense_id", id, "status", expense.Status)
		return expense, nil
	})
}

// DeleteExpense removes an own editable expense
func (s *WorkflowService) DeleteExpense(ctx context.Context, id int64) error {
	_, err := run(ctx, s, "delete", func(ctx context.Context, actor entity.Actor) (*entity.ExpenseRequest, error) {
		expense, err := s.engine.Delete(ctx, actor, id)
		if err != nil {
			return nil, err
		}
		s.logger.Info("Expense deleted", "expense_id", id, "employee_id", actor.UserID)
		return expense, nil
	})
	return err
}

// ManagerApprove forwards a pending expense to finance
func (s *WorkflowService) ManagerApprove(ctx context.Context, id int64, comment string) (*entity.ExpenseRequest, error) {
	return run(ctx, s, "manager_approve", func(ctx context.Context, actor entity.Actor) (*entity.ExpenseRequest, error) {
		expense, err := s.engine.ManagerApprove(ctx, actor, id, comment)
		if err != nil {
			return nil, err
		}
		s.logger.Info("Expense approved by manager", "expense_id", id, "manager_id", actor.UserID)
		s.emit(ctx, event.ManagerApproved(expense, actor)...)
		return expense, nil
	})
}

// ManagerReject returns a pending expense to its owner
func (s *WorkflowService) ManagerReject(ctx context.Context, id int64, comment string) (*entity.ExpenseRequest, error) {
	return run(ctx, s, "manager_reject", func(ctx context.Context, actor entity.Actor) (*entity.ExpenseRequest, error) {
		expense, err := s.engine.ManagerReject(ctx, actor, id, comment)
		if err != nil {
			return nil, err
		}
		s.logger.Info("Expense rejected by manager", "expense_id", id, "manager_id", actor.UserID)
		s.emit(ctx, event.ManagerRejected(expense, actor, comment))
		return expense, nil
	})
}

// FinanceApprove marks a manager-approved expense as paid
func (s *WorkflowService) FinanceApprove(ctx context.Context, id int64, approval workflow.FinanceApproval) (*entity.ExpenseRequest, error) {
	return run(ctx, s, "finance_approve", func(ctx context.Context, actor entity.Actor) (*entity.ExpenseRequest, error) {
		expense, err := s.engine.FinanceApprove(ctx, actor, id, approval)
		if err != nil {
			return nil, err
		}
		s.logger.Info("Expense paid", "expense_id", id, "finance_id", actor.UserID)
		s.emit(ctx, event.Paid(expense, actor))
		return expense, nil
	})
}

// FinanceReject returns a manager-approved expense to its owner
func (s *WorkflowService) FinanceReject(ctx context.Context, id int64, comment string) (*entity.ExpenseRequest, error) {
	return run(ctx, s, "finance_reject", func(ctx context.Context, actor entity.Actor) (*entity.ExpenseRequest, error) {
		expense, err := s.engine.FinanceReject(ctx, actor, id, comment)
		if err != nil {
			return nil, err
		}
		s.logger.Info("Expense rejected by finance", "expense_id", id, "finance_id", actor.UserID)
		s.emit(ctx, event.FinanceRejected(expense, actor, comment))
		return expense, nil
	})
}
