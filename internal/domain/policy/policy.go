// Package policy holds the role permission table for expense operations.
package policy

import (
	"github.com/garyjia/expense-approval/internal/domain/apperr"
	"github.com/garyjia/expense-approval/internal/domain/entity"
)

// Operation names a permission-checked action
type Operation string

const (
	OpCreate         Operation = "create"
	OpView           Operation = "view"
	OpUpdate         Operation = "update"
	OpDelete         Operation = "delete"
	OpManagerApprove Operation = "manager_approve"
	OpManagerReject  Operation = "manager_reject"
	OpFinanceApprove Operation = "finance_approve"
	OpFinanceReject  Operation = "finance_reject"
	OpEmployeeViews  Operation = "employee_views"
	OpManagerViews   Operation = "manager_views"
	OpFinanceViews   Operation = "finance_views"
)

// Scope limits which expenses a permitted role may touch
type Scope int

const (
	// ScopeAny allows the operation on any expense
	ScopeAny Scope = iota + 1
	// ScopeOwn allows the operation only on expenses the actor owns
	ScopeOwn
)

type rule struct {
	scopes map[entity.Role]Scope
	denied string
}

var permissions = map[Operation]rule{
	OpCreate: {
		scopes: map[entity.Role]Scope{entity.RoleEmployee: ScopeAny},
		denied: "only employees can create expenses",
	},
	OpView: {
		scopes: map[entity.Role]Scope{
			entity.RoleEmployee: ScopeOwn,
			entity.RoleManager:  ScopeAny,
			entity.RoleFinance:  ScopeAny,
		},
		denied: "you can only view your own expenses",
	},
	OpUpdate: {
		scopes: map[entity.Role]Scope{entity.RoleEmployee: ScopeOwn},
		denied: "you can only update your own expenses",
	},
	OpDelete: {
		scopes: map[entity.Role]Scope{entity.RoleEmployee: ScopeOwn},
		denied: "you can only delete your own expenses",
	},
	OpManagerApprove: {
		scopes: map[entity.Role]Scope{entity.RoleManager: ScopeAny},
		denied: "only managers can approve expenses",
	},
	OpManagerReject: {
		scopes: map[entity.Role]Scope{entity.RoleManager: ScopeAny},
		denied: "only managers can reject expenses",
	},
	OpFinanceApprove: {
		scopes: map[entity.Role]Scope{entity.RoleFinance: ScopeAny},
		denied: "only finance can approve payment",
	},
	OpFinanceReject: {
		scopes: map[entity.Role]Scope{entity.RoleFinance: ScopeAny},
		denied: "only finance can reject payment",
	},
	OpEmployeeViews: {
		scopes: map[entity.Role]Scope{entity.RoleEmployee: ScopeAny},
		denied: "only employees have personal expense views",
	},
	OpManagerViews: {
		scopes: map[entity.Role]Scope{entity.RoleManager: ScopeAny},
		denied: "only managers can view manager queues",
	},
	OpFinanceViews: {
		scopes: map[entity.Role]Scope{entity.RoleFinance: ScopeAny},
		denied: "only finance can view finance queues",
	},
}

// Authorize returns an AccessDenied error unless the actor may perform op on an
// expense owned by ownerID. Pass ownerID 0 for operations not bound to an expense.
func Authorize(op Operation, actor entity.Actor, ownerID int64) error {
	r, ok := permissions[op]
	if !ok {
		return apperr.AccessDenied("operation %s is not permitted", op)
	}

	switch r.scopes[actor.Role] {
	case ScopeAny:
		return nil
	case ScopeOwn:
		if ownerID != 0 && ownerID == actor.UserID {
			return nil
		}
	}
	return apperr.AccessDenied("%s", r.denied)
}

// AuthorizeRole is Authorize without an expense: it fails only when the actor's
// role holds no scope at all for op.
func AuthorizeRole(op Operation, actor entity.Actor) error {
	r, ok := permissions[op]
	if !ok {
		return apperr.AccessDenied("operation %s is not permitted", op)
	}
	if _, ok := r.scopes[actor.Role]; !ok {
		return apperr.AccessDenied("%s", r.denied)
	}
	return nil
}

// Operations lists every operation in the table
func Operations() []Operation {
	ops := make([]Operation, 0, len(permissions))
	for op := range permissions {
		ops = append(ops, op)
	}
	return ops
}
