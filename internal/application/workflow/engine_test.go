package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/application/port/porttest"
	"github.com/garyjia/expense-approval/internal/domain/apperr"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	domainwf "github.com/garyjia/expense-approval/internal/domain/workflow"
)

const (
	employeeID    = int64(1)
	coworkerID    = int64(2)
	managerID     = int64(5)
	financeUserID = int64(7)
)

func newTestEngine(t *testing.T) (Engine, *porttest.Store) {
	t.Helper()
	store := porttest.NewStore(porttest.DefaultUsers()...)
	fixed := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	engine := NewEngine(store.Expenses(), store.Actions(), store, WithClock(func() time.Time { return fixed }))
	return engine, store
}

func draft(title, amount string) entity.ExpenseDraft {
	return entity.ExpenseDraft{Title: title, Amount: decimal.RequireFromString(amount)}
}

func submit(t *testing.T, engine Engine, store *porttest.Store) *entity.ExpenseRequest {
	t.Helper()
	e, err := engine.Create(context.Background(), store.Actor(employeeID), draft("Client dinner", "84.20"))
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	return e
}

func wantKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if got := apperr.KindOf(err); got != kind {
		t.Fatalf("error kind = %q (%v), want %q", got, err, kind)
	}
}

func TestCreate(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	e := submit(t, engine, store)
	if e.ID == 0 {
		t.Error("Create() should assign an id")
	}
	if e.Status != domainwf.StatePendingManager {
		t.Errorf("Status = %v, want %v", e.Status, domainwf.StatePendingManager)
	}
	if e.OwnerID != employeeID {
		t.Errorf("OwnerID = %d, want %d", e.OwnerID, employeeID)
	}

	tests := []struct {
		name  string
		actor entity.Actor
		draft entity.ExpenseDraft
		kind  apperr.Kind
	}{
		{"manager cannot submit", store.Actor(managerID), draft("Lunch", "10"), apperr.KindAccessDenied},
		{"finance cannot submit", store.Actor(financeUserID), draft("Lunch", "10"), apperr.KindAccessDenied},
		{"blank title", store.Actor(employeeID), draft("   ", "10"), apperr.KindValidationFailed},
		{"title too long", store.Actor(employeeID), draft(strings.Repeat("x", 256), "10"), apperr.KindValidationFailed},
		{"zero amount", store.Actor(employeeID), draft("Lunch", "0"), apperr.KindValidationFailed},
		{"negative amount", store.Actor(employeeID), draft("Lunch", "-5"), apperr.KindValidationFailed},
		{"fractional cents", store.Actor(employeeID), draft("Lunch", "1.005"), apperr.KindValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Create(ctx, tt.actor, tt.draft)
			wantKind(t, err, tt.kind)
		})
	}
}

func TestChecksNotFoundFirst(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	employee := store.Actor(employeeID)

	_, err := engine.ManagerApprove(ctx, employee, 404, "")
	wantKind(t, err, apperr.KindNotFound)
	_, err = engine.Get(ctx, employee, 404)
	wantKind(t, err, apperr.KindNotFound)
	_, err = engine.Delete(ctx, employee, 404)
	wantKind(t, err, apperr.KindNotFound)
}

func TestEmployeeCannotApproveOwnExpense(t *testing.T) {
	engine, store := newTestEngine(t)
	e := submit(t, engine, store)

	_, err := engine.ManagerApprove(context.Background(), store.Actor(employeeID), e.ID, "")
	wantKind(t, err, apperr.KindAccessDenied)

	if got := store.Status(e.ID); got != domainwf.StatePendingManager {
		t.Errorf("Status = %v, want unchanged %v", got, domainwf.StatePendingManager)
	}
	if rows := store.ManagerRows(e.ID); len(rows) != 0 {
		t.Errorf("expected no manager actions, got %d", len(rows))
	}
}

func TestAccessDeniedRegardlessOfState(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	paid := store.Put(entity.ExpenseRequest{Title: "x", Amount: decimal.NewFromInt(1), OwnerID: employeeID, Status: domainwf.StatePaid})

	_, err := engine.FinanceApprove(ctx, store.Actor(managerID), paid, FinanceApproval{})
	wantKind(t, err, apperr.KindAccessDenied)

	// role check wins over a missing rejection comment
	_, err = engine.FinanceReject(ctx, store.Actor(managerID), paid, "")
	wantKind(t, err, apperr.KindAccessDenied)
}

func TestInvalidTransitionNamesRequiredStatus(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	paid := store.Put(entity.ExpenseRequest{Title: "x", Amount: decimal.NewFromInt(1), OwnerID: employeeID, Status: domainwf.StatePaid})

	_, err := engine.ManagerApprove(ctx, store.Actor(managerID), paid, "")
	wantKind(t, err, apperr.KindInvalidTransition)
	if !strings.Contains(err.Error(), "PENDING_MANAGER") {
		t.Errorf("error %q should name the required status", err)
	}

	_, err = engine.FinanceReject(ctx, store.Actor(financeUserID), paid, "late")
	wantKind(t, err, apperr.KindInvalidTransition)
	if !strings.Contains(err.Error(), "PENDING_FINANCE") {
		t.Errorf("error %q should name the required status", err)
	}
}

func TestFinanceRejectRequiresComment(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	e := submit(t, engine, store)
	if _, err := engine.ManagerApprove(ctx, store.Actor(managerID), e.ID, ""); err != nil {
		t.Fatalf("ManagerApprove() failed: %v", err)
	}

	for _, comment := range []string{"", "   "} {
		_, err := engine.FinanceReject(ctx, store.Actor(financeUserID), e.ID, comment)
		wantKind(t, err, apperr.KindValidationFailed)
	}

	if got := store.Status(e.ID); got != domainwf.StatePendingFinance {
		t.Errorf("Status = %v, want unchanged %v", got, domainwf.StatePendingFinance)
	}
	if rows := store.FinanceRows(e.ID); len(rows) != 0 {
		t.Errorf("expected no finance actions, got %d", len(rows))
	}

	_, err := engine.FinanceReject(ctx, store.Actor(financeUserID), e.ID, strings.Repeat("a", 1001))
	wantKind(t, err, apperr.KindValidationFailed)
}

func TestHappyPathToPaid(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	e := submit(t, engine, store)

	approved, err := engine.ManagerApprove(ctx, store.Actor(managerID), e.ID, "fine")
	if err != nil {
		t.Fatalf("ManagerApprove() failed: %v", err)
	}
	if approved.Status != domainwf.StatePendingFinance {
		t.Errorf("Status = %v, want %v", approved.Status, domainwf.StatePendingFinance)
	}

	payout := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	paid, err := engine.FinanceApprove(ctx, store.Actor(financeUserID), e.ID, FinanceApproval{
		ReimbursementMethod: "ACH",
		ExpectedPayoutDate:  &payout,
	})
	if err != nil {
		t.Fatalf("FinanceApprove() failed: %v", err)
	}
	if paid.Status != domainwf.StatePaid {
		t.Errorf("Status = %v, want %v", paid.Status, domainwf.StatePaid)
	}

	managerRows := store.ManagerRows(e.ID)
	if len(managerRows) != 1 || managerRows[0].Action != entity.ActionApproved || managerRows[0].ManagerID != managerID {
		t.Errorf("manager actions = %+v", managerRows)
	}
	financeRows := store.FinanceRows(e.ID)
	if len(financeRows) != 1 {
		t.Fatalf("expected one finance action, got %d", len(financeRows))
	}
	if want := "Method: ACH | Expected Payout: 2024-01-15"; financeRows[0].PaymentReference != want {
		t.Errorf("PaymentReference = %q, want %q", financeRows[0].PaymentReference, want)
	}

	history, err := engine.History(ctx, store.Actor(employeeID), e.ID)
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if len(history.ManagerActions) != 1 || len(history.FinanceActions) != 1 {
		t.Errorf("History() = %+v", history)
	}

	// Nothing leaves PAID
	_, err = engine.Update(ctx, store.Actor(employeeID), e.ID, draft("again", "1"))
	wantKind(t, err, apperr.KindInvalidTransition)
	_, err = engine.Delete(ctx, store.Actor(employeeID), e.ID)
	wantKind(t, err, apperr.KindInvalidTransition)
}

func TestFinanceApproveWithoutDetailsLeavesReferenceEmpty(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	id := store.Put(entity.ExpenseRequest{Title: "x", Amount: decimal.NewFromInt(3), OwnerID: employeeID, Status: domainwf.StatePendingFinance})

	if _, err := engine.FinanceApprove(ctx, store.Actor(financeUserID), id, FinanceApproval{Note: "ok"}); err != nil {
		t.Fatalf("FinanceApprove() failed: %v", err)
	}
	rows := store.FinanceRows(id)
	if len(rows) != 1 || rows[0].PaymentReference != "" || rows[0].Comment != "ok" {
		t.Errorf("finance actions = %+v", rows)
	}
}

func TestRejectedEditReopensAndKeepsAudit(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	e := submit(t, engine, store)

	if _, err := engine.ManagerReject(ctx, store.Actor(managerID), e.ID, "missing receipt"); err != nil {
		t.Fatalf("ManagerReject() failed: %v", err)
	}

	updated, err := engine.Update(ctx, store.Actor(employeeID), e.ID, entity.ExpenseDraft{
		Title: "  Client dinner (receipt attached) ", Amount: decimal.RequireFromString("84.20"), ReceiptURL: "receipts/42.pdf",
	})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if updated.Status != domainwf.StatePendingManager {
		t.Errorf("Status = %v, want %v", updated.Status, domainwf.StatePendingManager)
	}
	if updated.Title != "Client dinner (receipt attached)" {
		t.Errorf("Title = %q, want trimmed title", updated.Title)
	}

	rows := store.ManagerRows(e.ID)
	if len(rows) != 1 || rows[0].Action != entity.ActionRejected || rows[0].Comment != "missing receipt" {
		t.Errorf("manager actions = %+v", rows)
	}
}

func TestFinanceRejectedEditReopens(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	id := store.Put(entity.ExpenseRequest{Title: "x", Amount: decimal.NewFromInt(3), OwnerID: employeeID, Status: domainwf.StatePendingFinance})

	if _, err := engine.FinanceReject(ctx, store.Actor(financeUserID), id, "duplicate"); err != nil {
		t.Fatalf("FinanceReject() failed: %v", err)
	}
	updated, err := engine.Update(ctx, store.Actor(employeeID), id, draft("x", "3"))
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if updated.Status != domainwf.StatePendingManager {
		t.Errorf("Status = %v, want %v", updated.Status, domainwf.StatePendingManager)
	}
}

func TestUpdatePermissions(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	e := submit(t, engine, store)

	_, err := engine.Update(ctx, store.Actor(coworkerID), e.ID, draft("mine now", "1"))
	wantKind(t, err, apperr.KindAccessDenied)
	_, err = engine.Update(ctx, store.Actor(managerID), e.ID, draft("edited", "1"))
	wantKind(t, err, apperr.KindAccessDenied)
	_, err = engine.Get(ctx, store.Actor(coworkerID), e.ID)
	wantKind(t, err, apperr.KindAccessDenied)

	// Pending edits keep the status
	updated, err := engine.Update(ctx, store.Actor(employeeID), e.ID, draft("Client dinner", "90"))
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if updated.Status != domainwf.StatePendingManager || !updated.Amount.Equal(decimal.NewFromInt(90)) {
		t.Errorf("Update() = %+v", updated)
	}

	_, err = engine.Update(ctx, store.Actor(employeeID), e.ID, draft("Client dinner", "0"))
	wantKind(t, err, apperr.KindValidationFailed)

	if _, err := engine.ManagerApprove(ctx, store.Actor(managerID), e.ID, ""); err != nil {
		t.Fatalf("ManagerApprove() failed: %v", err)
	}
	_, err = engine.Update(ctx, store.Actor(employeeID), e.ID, draft("late edit", "1"))
	wantKind(t, err, apperr.KindInvalidTransition)
}

func TestDeleteCascades(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	e := submit(t, engine, store)
	if _, err := engine.ManagerReject(ctx, store.Actor(managerID), e.ID, "no"); err != nil {
		t.Fatalf("ManagerReject() failed: %v", err)
	}

	_, err := engine.Delete(ctx, store.Actor(coworkerID), e.ID)
	wantKind(t, err, apperr.KindAccessDenied)

	if _, err := engine.Delete(ctx, store.Actor(employeeID), e.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	_, err = engine.Get(ctx, store.Actor(employeeID), e.ID)
	wantKind(t, err, apperr.KindNotFound)
	if rows := store.ManagerRows(e.ID); len(rows) != 0 {
		t.Errorf("manager actions should cascade, got %d", len(rows))
	}
}

func TestAuditFailureRollsBackStatus(t *testing.T) {
	engine, store := newTestEngine(t)
	e := submit(t, engine, store)
	store.OnCreateManagerAction = func(*entity.ManagerAction) error { return errors.New("disk full") }

	_, err := engine.ManagerApprove(context.Background(), store.Actor(managerID), e.ID, "")
	if err == nil || apperr.KindOf(err) != "" {
		t.Fatalf("expected unclassified storage error, got %v", err)
	}
	if got := store.Status(e.ID); got != domainwf.StatePendingManager {
		t.Errorf("Status = %v, want rolled back %v", got, domainwf.StatePendingManager)
	}
}

func TestLostRaceReportsInvalidTransition(t *testing.T) {
	engine, store := newTestEngine(t)
	e := submit(t, engine, store)

	// Another process rejects between our read and our conditional write
	store.OnUpdate = func(*entity.ExpenseRequest, domainwf.State) error {
		store.OnUpdate = nil
		store.Put(entity.ExpenseRequest{ID: e.ID, Title: e.Title, Amount: e.Amount, OwnerID: e.OwnerID,
			Status: domainwf.StateRejectedManager, CreatedAt: e.CreatedAt})
		return nil
	}

	_, err := engine.ManagerApprove(context.Background(), store.Actor(managerID), e.ID, "")
	wantKind(t, err, apperr.KindInvalidTransition)
	if !strings.Contains(err.Error(), string(domainwf.StateRejectedManager)) {
		t.Errorf("error %q should report the winning status", err)
	}
	if got := store.Status(e.ID); got != domainwf.StateRejectedManager {
		t.Errorf("Status = %v, want %v", got, domainwf.StateRejectedManager)
	}
}

func TestConcurrentApproveAndReject(t *testing.T) {
	for i := 0; i < 25; i++ {
		engine, store := newTestEngine(t)
		e := submit(t, engine, store)
		manager := store.Actor(managerID)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, errs[0] = engine.ManagerApprove(context.Background(), manager, e.ID, "")
		}()
		go func() {
			defer wg.Done()
			_, errs[1] = engine.ManagerReject(context.Background(), manager, e.ID, "")
		}()
		wg.Wait()

		successes := 0
		for _, err := range errs {
			switch {
			case err == nil:
				successes++
			case errors.Is(err, apperr.ErrInvalidTransition):
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if successes != 1 {
			t.Fatalf("iteration %d: %d successes, want exactly 1", i, successes)
		}
		if rows := store.ManagerRows(e.ID); len(rows) != 1 {
			t.Fatalf("iteration %d: %d manager actions, want 1", i, len(rows))
		}
	}
}

var _ port.TransactionManager = (*porttest.Store)(nil)
