// Package porttest provides in-memory implementations of the repository ports
// for use in tests.
package porttest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/workflow"
)

// Store keeps expenses, audit rows, users and notifications in memory.
// WithTransaction snapshots the whole store and restores it when fn fails.
type Store struct {
	mu            sync.Mutex
	nextID        int64
	expenses      map[int64]entity.ExpenseRequest
	managerRows   []entity.ManagerAction
	financeRows   []entity.FinanceAction
	users         map[int64]entity.User
	notifications []entity.Notification
	txMu          sync.Mutex
	// pending holds the pre-transaction expenses while a transaction runs
	pending       map[int64]entity.ExpenseRequest

	// Hooks let tests inject failures
	OnUpdate              func(e *entity.ExpenseRequest, expected workflow.State) error
	OnCreateManagerAction func(a *entity.ManagerAction) error
	OnCreateFinanceAction func(a *entity.FinanceAction) error
}

// NewStore returns a store seeded with the given users
func NewStore(users ...entity.User) *Store {
	s := &Store{
		expenses: make(map[int64]entity.ExpenseRequest),
		users:    make(map[int64]entity.User),
	}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

// DefaultUsers mirrors the seeded accounts
func DefaultUsers() []entity.User {
	return []entity.User{
		{ID: 1, FullName: "John Smith", Email: "john.smith@company.com", Role: entity.RoleEmployee},
		{ID: 2, FullName: "Emily Davis", Email: "emily.davis@company.com", Role: entity.RoleEmployee},
		{ID: 5, FullName: "Robert Taylor", Email: "robert.taylor@company.com", Role: entity.RoleManager},
		{ID: 6, FullName: "Linda Martinez", Email: "linda.martinez@company.com", Role: entity.RoleManager},
		{ID: 7, FullName: "David Brown", Email: "david.brown@company.com", Role: entity.RoleFinance},
	}
}

// Actor returns the actor for a seeded user id
func (s *Store) Actor(id int64) entity.Actor {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[id]
	return entity.ActorFromUser(&u)
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Expenses returns the repository view of the store
func (s *Store) Expenses() port.ExpenseRepository { return expenseRepo{s} }

// Actions returns the audit repository view of the store
func (s *Store) Actions() port.ActionRepository { return actionRepo{s} }

// Users returns the user repository view of the store
func (s *Store) Users() port.UserRepository { return userRepo{s} }

// Notifications returns the inbox repository view of the store
func (s *Store) Notifications() port.NotificationRepository { return notificationRepo{s} }

// WithTransaction implements port.TransactionManager
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	expenses := make(map[int64]entity.ExpenseRequest, len(s.expenses))
	for k, v := range s.expenses {
		expenses[k] = v
	}
	s.pending = expenses
	managerRows := append([]entity.ManagerAction(nil), s.managerRows...)
	financeRows := append([]entity.FinanceAction(nil), s.financeRows...)
	s.mu.Unlock()

	err := fn(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.expenses, s.managerRows, s.financeRows = s.pending, managerRows, financeRows
	}
	s.pending = nil
	return err
}

// Put stores an expense directly, bypassing the engine. It behaves like a
// write committed by another process, so it survives a rolled back transaction.
func (s *Store) Put(e entity.ExpenseRequest) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == 0 {
		e.ID = s.id()
	} else if e.ID > s.nextID {
		s.nextID = e.ID
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	s.expenses[e.ID] = e
	if s.pending != nil {
		s.pending[e.ID] = e
	}
	return e.ID
}

// Status returns the stored status of an expense
func (s *Store) Status(id int64) workflow.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expenses[id].Status
}

// ManagerRows returns the stored manager actions for an expense
func (s *Store) ManagerRows(expenseID int64) []entity.ManagerAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.ManagerAction
	for _, a := range s.managerRows {
		if a.ExpenseID == expenseID {
			out = append(out, a)
		}
	}
	return out
}

// FinanceRows returns the stored finance actions for an expense
func (s *Store) FinanceRows(expenseID int64) []entity.FinanceAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.FinanceAction
	for _, a := range s.financeRows {
		if a.ExpenseID == expenseID {
			out = append(out, a)
		}
	}
	return out
}

type expenseRepo struct{ s *Store }

func (r expenseRepo) Create(_ context.Context, e *entity.ExpenseRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e.ID = r.s.id()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	r.s.expenses[e.ID] = *e
	return nil
}

func (r expenseRepo) GetByID(_ context.Context, id int64) (*entity.ExpenseRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.expenses[id]
	if !ok {
		return nil, nil
	}
	r.s.decorate(&e)
	return &e, nil
}

func (r expenseRepo) Update(_ context.Context, e *entity.ExpenseRequest, expected workflow.State) error {
	if r.s.OnUpdate != nil {
		if err := r.s.OnUpdate(e, expected); err != nil {
			return err
		}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.expenses[e.ID]
	if !ok || stored.Status != expected {
		return port.ErrStaleStatus
	}
	r.s.expenses[e.ID] = *e
	return nil
}

func (r expenseRepo) Delete(_ context.Context, id int64, expected workflow.State) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.expenses[id]
	if !ok || stored.Status != expected {
		return port.ErrStaleStatus
	}
	delete(r.s.expenses, id)

	managerRows := r.s.managerRows[:0]
	for _, a := range r.s.managerRows {
		if a.ExpenseID != id {
			managerRows = append(managerRows, a)
		}
	}
	r.s.managerRows = managerRows

	financeRows := r.s.financeRows[:0]
	for _, a := range r.s.financeRows {
		if a.ExpenseID != id {
			financeRows = append(financeRows, a)
		}
	}
	r.s.financeRows = financeRows

	for i := range r.s.notifications {
		if r.s.notifications[i].ExpenseID == id {
			r.s.notifications[i].ExpenseID = 0
		}
	}
	return nil
}

func (r expenseRepo) ListByOwner(_ context.Context, ownerID int64, statuses []workflow.State, order entity.SortOrder) ([]*entity.ExpenseRequest, error) {
	return r.s.filter(func(e entity.ExpenseRequest) bool { return e.OwnerID == ownerID }, statuses, order), nil
}

func (r expenseRepo) ListByStatus(_ context.Context, statuses []workflow.State, order entity.SortOrder) ([]*entity.ExpenseRequest, error) {
	return r.s.filter(func(entity.ExpenseRequest) bool { return true }, statuses, order), nil
}

func (s *Store) decorate(e *entity.ExpenseRequest) {
	if u, ok := s.users[e.OwnerID]; ok {
		e.OwnerName = u.FullName
		e.OwnerEmail = u.Email
	}
}

func (s *Store) filter(keep func(entity.ExpenseRequest) bool, statuses []workflow.State, order entity.SortOrder) []*entity.ExpenseRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[workflow.State]bool, len(statuses))
	for _, st := range statuses {
		wanted[st] = true
	}

	out := make([]*entity.ExpenseRequest, 0)
	for _, e := range s.expenses {
		if !keep(e) || (len(wanted) > 0 && !wanted[e.Status]) {
			continue
		}
		cp := e
		s.decorate(&cp)
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if order == entity.SortDescending {
			a, b = b, a
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out
}

type actionRepo struct{ s *Store }

func (r actionRepo) CreateManagerAction(_ context.Context, a *entity.ManagerAction) error {
	if r.s.OnCreateManagerAction != nil {
		if err := r.s.OnCreateManagerAction(a); err != nil {
			return err
		}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a.ID = r.s.id()
	r.s.managerRows = append(r.s.managerRows, *a)
	return nil
}

func (r actionRepo) CreateFinanceAction(_ context.Context, a *entity.FinanceAction) error {
	if r.s.OnCreateFinanceAction != nil {
		if err := r.s.OnCreateFinanceAction(a); err != nil {
			return err
		}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a.ID = r.s.id()
	r.s.financeRows = append(r.s.financeRows, *a)
	return nil
}

func (r actionRepo) ListManagerActions(_ context.Context, expenseID int64) ([]*entity.ManagerAction, error) {
	rows := r.s.ManagerRows(expenseID)
	out := make([]*entity.ManagerAction, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out, nil
}

func (r actionRepo) ListFinanceActions(_ context.Context, expenseID int64) ([]*entity.FinanceAction, error) {
	rows := r.s.FinanceRows(expenseID)
	out := make([]*entity.FinanceAction, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out, nil
}

type userRepo struct{ s *Store }

func (r userRepo) GetByID(_ context.Context, id int64) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r userRepo) ListByRole(_ context.Context, role entity.Role) ([]*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.User, 0)
	for _, u := range r.s.users {
		if u.Role == role {
			cp := u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type notificationRepo struct{ s *Store }

func (r notificationRepo) Create(_ context.Context, n *entity.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n.ID = r.s.id()
	if _, ok := r.s.expenses[n.ExpenseID]; !ok {
		n.ExpenseID = 0
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	r.s.notifications = append(r.s.notifications, *n)
	return nil
}

func (r notificationRepo) ListByRecipient(_ context.Context, recipientID int64, unreadOnly bool) ([]*entity.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.Notification, 0)
	for i := len(r.s.notifications) - 1; i >= 0; i-- {
		n := r.s.notifications[i]
		if n.RecipientID != recipientID || (unreadOnly && n.Read) {
			continue
		}
		out = append(out, &n)
	}
	return out, nil
}

func (r notificationRepo) CountUnread(_ context.Context, recipientID int64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	count := 0
	for _, n := range r.s.notifications {
		if n.RecipientID == recipientID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (r notificationRepo) MarkRead(_ context.Context, id, recipientID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.notifications {
		if r.s.notifications[i].ID == id && r.s.notifications[i].RecipientID == recipientID {
			r.s.notifications[i].Read = true
			return true, nil
		}
	}
	return false, nil
}

func (r notificationRepo) MarkAllRead(_ context.Context, recipientID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for i := range r.s.notifications {
		if r.s.notifications[i].RecipientID == recipientID && !r.s.notifications[i].Read {
			r.s.notifications[i].Read = true
			n++
		}
	}
	return n, nil
}

var (
	_ port.ExpenseRepository      = expenseRepo{}
	_ port.ActionRepository       = actionRepo{}
	_ port.UserRepository         = userRepo{}
	_ port.NotificationRepository = notificationRepo{}
	_ port.TransactionManager     = (*Store)(nil)
)
