package service

import (
	"context"
	"fmt"
	"io"

	"github.com/garyjia/expense-approval/internal/application/projector"
	"github.com/garyjia/expense-approval/internal/domain/entity"
)

// FinanceHistorySheet is the worksheet name of the finance export
const FinanceHistorySheet = "Finance History"

func (s *WorkflowService) list(ctx context.Context, view projector.View) ([]*entity.ExpenseRequest, error) {
	return run(ctx, s, "list_"+string(view), func(ctx context.Context, actor entity.Actor) ([]*entity.ExpenseRequest, error) {
		return s.projector.List(ctx, actor, view)
	})
}

// ListOwn returns every expense of the calling employee, newest first
func (s *WorkflowService) ListOwn(ctx context.Context) ([]*entity.ExpenseRequest, error) {
	return s.list(ctx, projector.ViewOwnAll)
}

// ListOwnPending returns the caller's expenses awaiting a manager
func (s *WorkflowService) ListOwnPending(ctx context.Context) ([]*entity.ExpenseRequest, error) {
	return s.list(ctx, projector.ViewOwnPending)
}

// ListOwnRejected returns the caller's manager rejections followed by finance rejections
func (s *WorkflowService) ListOwnRejected(ctx context.Context) ([]*entity.ExpenseRequest, error) {
	return s.list(ctx, projector.ViewOwnRejected)
}

func (s *WorkflowService) ListPendingForManager(ctx context.Context) ([]*entity.ExpenseRequest, error) {
	return s.list(ctx, projector.ViewManagerPending)
}

func (s *WorkflowService) ListApprovedByManager(ctx context.Context) ([]*entity.ExpenseRequest, error) {
	return s.list(ctx, projector.ViewManagerApproved)
}

func (s *WorkflowService) ListManagerHistory(ctx context.Context) ([]*entity.ExpenseRequest, error) {
	return s.list(ctx, projector.ViewManagerHistory)
}

func (s *WorkflowService) ListPendingForFinance(ctx context.Context) ([]*entity.ExpenseRequest, error) {
	return s.list(ctx, projector.ViewFinancePending)
}

func (s *WorkflowService) ListApprovedByFinance(ctx context.Context) ([]*entity.ExpenseRequest, error) {
	return s.list(ctx, projector.ViewFinanceApproved)
}

func (s *WorkflowService) ListFinanceHistory(ctx context.Context) ([]*entity.ExpenseRequest, error) {
	return s.list(ctx, projector.ViewFinanceHistory)
}

// ExportFinanceHistory writes the finance history view as a spreadsheet to w
func (s *WorkflowService) ExportFinanceHistory(ctx context.Context, w io.Writer) error {
	_, err := run(ctx, s, "export_finance_history", func(ctx context.Context, actor entity.Actor) (int, error) {
		expenses, err := s.projector.List(ctx, actor, projector.ViewFinanceHistory)
		if err != nil {
			return 0, err
		}
		if err := s.reports.WriteExpenses(w, FinanceHistorySheet, expenses); err != nil {
			return 0, fmt.Errorf("failed to write finance history report: %w", err)
		}
		return len(expenses), nil
	})
	return err
}
