// Package projector builds the per-role expense lists.
package projector

import (
	"context"
	"fmt"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/policy"
	"github.com/garyjia/expense-approval/internal/domain/workflow"
)

// View names one projection
type View string

const (
	ViewOwnAll          View = "own_all"
	ViewOwnPending      View = "own_pending"
	ViewOwnRejected     View = "own_rejected"
	ViewManagerPending  View = "manager_pending"
	ViewManagerApproved View = "manager_approved"
	ViewManagerHistory  View = "manager_history"
	ViewFinancePending  View = "finance_pending"
	ViewFinanceApproved View = "finance_approved"
	ViewFinanceHistory  View = "finance_history"
)

// Employee views list newest first; queue views list oldest first.
var views = map[View]struct {
	op       policy.Operation
	statuses []workflow.State
	order    entity.SortOrder
	own      bool
}{
	ViewOwnAll:     {policy.OpEmployeeViews, nil, entity.SortDescending, true},
	ViewOwnPending: {policy.OpEmployeeViews, []workflow.State{workflow.StatePendingManager}, entity.SortDescending, true},
	ViewManagerPending: {policy.OpManagerViews,
		[]workflow.State{workflow.StatePendingManager}, entity.SortAscending, false},
	ViewManagerApproved: {policy.OpManagerViews,
		[]workflow.State{workflow.StatePendingFinance, workflow.StatePaid}, entity.SortAscending, false},
	ViewManagerHistory: {policy.OpManagerViews,
		[]workflow.State{workflow.StatePendingFinance, workflow.StateRejectedManager, workflow.StateRejectedFinance, workflow.StatePaid},
		entity.SortAscending, false},
	ViewFinancePending: {policy.OpFinanceViews,
		[]workflow.State{workflow.StatePendingFinance}, entity.SortAscending, false},
	ViewFinanceApproved: {policy.OpFinanceViews,
		[]workflow.State{workflow.StatePaid}, entity.SortAscending, false},
	ViewFinanceHistory: {policy.OpFinanceViews,
		[]workflow.State{workflow.StatePaid, workflow.StateRejectedFinance}, entity.SortAscending, false},
}

// Projector answers list queries for the acting role
type Projector struct {
	expenses port.ExpenseRepository
}

// New creates a projector over the expense repository
func New(expenses port.ExpenseRepository) *Projector {
	return &Projector{expenses: expenses}
}

// List returns the named view for the actor, or AccessDenied if the actor's role has no such view
func (p *Projector) List(ctx context.Context, actor entity.Actor, view View) ([]*entity.ExpenseRequest, error) {
	if view == ViewOwnRejected {
		return p.ownRejected(ctx, actor)
	}

	v, ok := views[view]
	if !ok {
		return nil, fmt.Errorf("unknown view %q", view)
	}
	if err := policy.Authorize(v.op, actor, 0); err != nil {
		return nil, err
	}

	var (
		list []*entity.ExpenseRequest
		err  error
	)
	if v.own {
		list, err = p.expenses.ListByOwner(ctx, actor.UserID, v.statuses, v.order)
	} else {
		list, err = p.expenses.ListByStatus(ctx, v.statuses, v.order)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", view, err)
	}
	return list, nil
}

// ownRejected concatenates manager rejections and finance rejections, each newest
// first. The combined list is not globally ordered.
func (p *Projector) ownRejected(ctx context.Context, actor entity.Actor) ([]*entity.ExpenseRequest, error) {
	if err := policy.Authorize(policy.OpEmployeeViews, actor, 0); err != nil {
		return nil, err
	}

	byManager, err := p.expenses.ListByOwner(ctx, actor.UserID,
		[]workflow.State{workflow.StateRejectedManager}, entity.SortDescending)
	if err != nil {
		return nil, fmt.Errorf("failed to list manager rejections: %w", err)
	}
	byFinance, err := p.expenses.ListByOwner(ctx, actor.UserID,
		[]workflow.State{workflow.StateRejectedFinance}, entity.SortDescending)
	if err != nil {
		return nil, fmt.Errorf("failed to list finance rejections: %w", err)
	}

	return append(byManager, byFinance...), nil
}
