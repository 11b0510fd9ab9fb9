package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/apperr"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/policy"
	domainwf "github.com/garyjia/expense-approval/internal/domain/workflow"
)

// engineImpl is the concrete implementation of Engine
type engineImpl struct {
	expenses  port.ExpenseRepository
	actions   port.ActionRepository
	txManager port.TransactionManager

	locks keyedMutex
	now   func() time.Time
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithClock overrides the time source used for timestamps
func WithClock(now func() time.Time) EngineOption {
	return func(e *engineImpl) {
		e.now = now
	}
}

// NewEngine creates a new workflow engine
func NewEngine(
	expenses port.ExpenseRepository,
	actions port.ActionRepository,
	txManager port.TransactionManager,
	opts ...EngineOption,
) Engine {
	e := &engineImpl{
		expenses:  expenses,
		actions:   actions,
		txManager: txManager,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// step describes one transition operation
type step struct {
	op      policy.Operation
	trigger domainwf.Trigger
	label   string
	// validate runs after the transition is known to be legal
	validate func() error
	// apply mutates the loaded expense before it is saved
	apply func(expense *entity.ExpenseRequest)
	// record appends audit rows inside the save transaction
	record func(ctx context.Context, expense *entity.ExpenseRequest, at time.Time) error
}

func (e *engineImpl) Create(ctx context.Context, actor entity.Actor, draft entity.ExpenseDraft) (*entity.ExpenseRequest, error) {
	if err := policy.Authorize(policy.OpCreate, actor, 0); err != nil {
		return nil, err
	}
	if err := validateDraft(&draft); err != nil {
		return nil, err
	}

	now := e.now().UTC()
	expense := &entity.ExpenseRequest{
		Status:     domainwf.InitialState,
		OwnerID:    actor.UserID,
		OwnerName:  actor.FullName,
		OwnerEmail: actor.Email,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	draft.Apply(expense)

	if err := e.expenses.Create(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}

	return expense, nil
}

func (e *engineImpl) Get(ctx context.Context, actor entity.Actor, id int64) (*entity.ExpenseRequest, error) {
	expense, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(policy.OpView, actor, expense.OwnerID); err != nil {
		return nil, err
	}
	return expense, nil
}

func (e *engineImpl) History(ctx context.Context, actor entity.Actor, id int64) (*entity.ExpenseHistory, error) {
	if _, err := e.Get(ctx, actor, id); err != nil {
		return nil, err
	}

	managerActions, err := e.actions.ListManagerActions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load manager actions: %w", err)
	}
	financeActions, err := e.actions.ListFinanceActions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load finance actions: %w", err)
	}

	return &entity.ExpenseHistory{
		ExpenseID:      id,
		ManagerActions: managerActions,
		FinanceActions: financeActions,
	}, nil
}

func (e *engineImpl) Update(ctx context.Context, actor entity.Actor, id int64, draft entity.ExpenseDraft) (*entity.ExpenseRequest, error) {
	return e.transition(ctx, actor, id, step{
		op:       policy.OpUpdate,
		trigger:  domainwf.TriggerEdit,
		label:    "editing",
		validate: func() error { return validateDraft(&draft) },
		apply:    func(expense *entity.ExpenseRequest) { draft.Apply(expense) },
	})
}

func (e *engineImpl) Delete(ctx context.Context, actor entity.Actor, id int64) (*entity.ExpenseRequest, error) {
	unlock := e.locks.lock(id)
	defer unlock()

	expense, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(policy.OpDelete, actor, expense.OwnerID); err != nil {
		return nil, err
	}
	if !domainwf.IsEditable(expense.Status) {
		return nil, invalidTransition(expense, domainwf.TriggerEdit, "deletion")
	}

	if err := e.expenses.Delete(ctx, id, expense.Status); err != nil {
		if errors.Is(err, port.ErrStaleStatus) {
			return nil, e.lostRace(ctx, id, domainwf.TriggerEdit, "deletion")
		}
		return nil, fmt.Errorf("failed to delete expense: %w", err)
	}

	return expense, nil
}

func (e *engineImpl) ManagerApprove(ctx context.Context, actor entity.Actor, id int64, comment string) (*entity.ExpenseRequest, error) {
	return e.transition(ctx, actor, id, step{
		op:       policy.OpManagerApprove,
		trigger:  domainwf.TriggerManagerApprove,
		label:    "manager approval",
		validate: func() error { return validateLength("comment", comment, entity.MaxCommentLength) },
		record: func(ctx context.Context, expense *entity.ExpenseRequest, at time.Time) error {
			return e.actions.CreateManagerAction(ctx, &entity.ManagerAction{
				ExpenseID: expense.ID,
				ManagerID: actor.UserID,
				Action:    entity.ActionApproved,
				Comment:   comment,
				CreatedAt: at,
			})
		},
	})
}

func (e *engineImpl) ManagerReject(ctx context.Context, actor entity.Actor, id int64, comment string) (*entity.ExpenseRequest, error) {
	return e.transition(ctx, actor, id, step{
		op:       policy.OpManagerReject,
		trigger:  domainwf.TriggerManagerReject,
		label:    "manager rejection",
		validate: func() error { return validateLength("comment", comment, entity.MaxCommentLength) },
		record: func(ctx context.Context, expense *entity.ExpenseRequest, at time.Time) error {
			return e.actions.CreateManagerAction(ctx, &entity.ManagerAction{
				ExpenseID: expense.ID,
				ManagerID: actor.UserID,
				Action:    entity.ActionRejected,
				Comment:   comment,
				CreatedAt: at,
			})
		},
	})
}

func (e *engineImpl) FinanceApprove(ctx context.Context, actor entity.Actor, id int64, approval FinanceApproval) (*entity.ExpenseRequest, error) {
	return e.transition(ctx, actor, id, step{
		op:      policy.OpFinanceApprove,
		trigger: domainwf.TriggerFinanceApprove,
		label:   "payment approval",
		validate: func() error {
			if err := validateLength("note", approval.Note, entity.MaxNoteLength); err != nil {
				return err
			}
			return validateLength("reimbursement method", approval.ReimbursementMethod, entity.MaxMethodLength)
		},
		record: func(ctx context.Context, expense *entity.ExpenseRequest, at time.Time) error {
			return e.actions.CreateFinanceAction(ctx, &entity.FinanceAction{
				ExpenseID:        expense.ID,
				FinanceID:        actor.UserID,
				Action:           entity.ActionApproved,
				Comment:          approval.Note,
				PaymentReference: entity.BuildPaymentReference(approval.ReimbursementMethod, approval.ExpectedPayoutDate),
				CreatedAt:        at,
			})
		},
	})
}

func (e *engineImpl) FinanceReject(ctx context.Context, actor entity.Actor, id int64, comment string) (*entity.ExpenseRequest, error) {
	return e.transition(ctx, actor, id, step{
		op:      policy.OpFinanceReject,
		trigger: domainwf.TriggerFinanceReject,
		label:   "payment rejection",
		validate: func() error {
			if strings.TrimSpace(comment) == "" {
				return apperr.ValidationFailed("a comment is required when rejecting payment")
			}
			return validateLength("comment", comment, entity.MaxCommentLength)
		},
		record: func(ctx context.Context, expense *entity.ExpenseRequest, at time.Time) error {
			return e.actions.CreateFinanceAction(ctx, &entity.FinanceAction{
				ExpenseID: expense.ID,
				FinanceID: actor.UserID,
				Action:    entity.ActionRejected,
				Comment:   comment,
				CreatedAt: at,
			})
		},
	})
}

// transition runs the shared load, authorize, fire, validate, save sequence
// while holding the expense's lock.
func (e *engineImpl) transition(ctx context.Context, actor entity.Actor, id int64, s step) (*entity.ExpenseRequest, error) {
	unlock := e.locks.lock(id)
	defer unlock()

	expense, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(s.op, actor, expense.OwnerID); err != nil {
		return nil, err
	}

	from := expense.Status
	machine := domainwf.NewExpenseMachine(from)
	if err := machine.Fire(ctx, s.trigger); err != nil {
		return nil, invalidTransition(expense, s.trigger, s.label)
	}
	if s.validate != nil {
		if err := s.validate(); err != nil {
			return nil, err
		}
	}

	now := e.now().UTC()
	if s.apply != nil {
		s.apply(expense)
	}
	expense.Status = machine.State()
	expense.UpdatedAt = now

	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.expenses.Update(txCtx, expense, from); err != nil {
			return err
		}
		if s.record != nil {
			return s.record(txCtx, expense, now)
		}
		return nil
	})
	if errors.Is(err, port.ErrStaleStatus) {
		return nil, e.lostRace(ctx, id, s.trigger, s.label)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save %s of expense %d: %w", s.label, id, err)
	}

	return expense, nil
}

func (e *engineImpl) load(ctx context.Context, id int64) (*entity.ExpenseRequest, error) {
	expense, err := e.expenses.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load expense %d: %w", id, err)
	}
	if expense == nil {
		return nil, apperr.NotFound("expense %d not found", id)
	}
	return expense, nil
}

// lostRace reports the status another writer committed first
func (e *engineImpl) lostRace(ctx context.Context, id int64, trigger domainwf.Trigger, label string) error {
	current, err := e.load(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.InvalidTransition("expense %d was removed before %s", id, label)
		}
		return err
	}
	return invalidTransition(current, trigger, label)
}

func invalidTransition(expense *entity.ExpenseRequest, trigger domainwf.Trigger, label string) error {
	return apperr.InvalidTransition("expense %d must be %s for %s, current status is %s",
		expense.ID, domainwf.DescribeRequired(trigger), label, expense.Status)
}
