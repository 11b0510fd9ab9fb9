package policy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/garyjia/expense-approval/internal/domain/apperr"
	"github.com/garyjia/expense-approval/internal/domain/entity"
)

var (
	alice   = entity.Actor{UserID: 1, Role: entity.RoleEmployee}
	bob     = entity.Actor{UserID: 2, Role: entity.RoleEmployee}
	manager = entity.Actor{UserID: 5, Role: entity.RoleManager}
	finance = entity.Actor{UserID: 7, Role: entity.RoleFinance}
	nobody  = entity.Actor{UserID: 9, Role: entity.Role("AUDITOR")}
)

func TestAuthorize(t *testing.T) {
	const aliceOwns = int64(1)

	tests := []struct {
		name    string
		op      Operation
		actor   entity.Actor
		owner   int64
		allowed bool
	}{
		{"employee creates", OpCreate, alice, 0, true},
		{"manager cannot create", OpCreate, manager, 0, false},
		{"owner views", OpView, alice, aliceOwns, true},
		{"other employee cannot view", OpView, bob, aliceOwns, false},
		{"manager views any", OpView, manager, aliceOwns, true},
		{"finance views any", OpView, finance, aliceOwns, true},
		{"unknown role cannot view", OpView, nobody, aliceOwns, false},
		{"owner updates", OpUpdate, alice, aliceOwns, true},
		{"other employee cannot update", OpUpdate, bob, aliceOwns, false},
		{"manager cannot update", OpUpdate, manager, aliceOwns, false},
		{"owner deletes", OpDelete, alice, aliceOwns, true},
		{"finance cannot delete", OpDelete, finance, aliceOwns, false},
		{"manager approves", OpManagerApprove, manager, aliceOwns, true},
		{"employee cannot manager-approve own", OpManagerApprove, alice, aliceOwns, false},
		{"finance cannot manager-reject", OpManagerReject, finance, aliceOwns, false},
		{"finance approves", OpFinanceApprove, finance, aliceOwns, true},
		{"manager cannot finance-approve", OpFinanceApprove, manager, aliceOwns, false},
		{"finance rejects", OpFinanceReject, finance, aliceOwns, true},
		{"employee views", OpEmployeeViews, alice, 0, true},
		{"manager has no employee views", OpEmployeeViews, manager, 0, false},
		{"manager views queue", OpManagerViews, manager, 0, true},
		{"finance cannot view manager queue", OpManagerViews, finance, 0, false},
		{"finance views queue", OpFinanceViews, finance, 0, true},
		{"employee cannot view finance queue", OpFinanceViews, alice, 0, false},
		{"own scope needs an owner", OpUpdate, alice, 0, false},
		{"unknown operation", Operation("bogus"), manager, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.op, tt.actor, tt.owner)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, apperr.ErrAccessDenied), "got %v", err)
		})
	}
}

func TestOperations_AllHaveDeniedMessage(t *testing.T) {
	for _, op := range Operations() {
		assert.NotEmpty(t, permissions[op].denied, op)
		assert.NotEmpty(t, permissions[op].scopes, op)
	}
}

func TestAuthorizeRole(t *testing.T) {
	assert.NoError(t, AuthorizeRole(OpUpdate, alice))
	assert.NoError(t, AuthorizeRole(OpView, manager))
	assert.NoError(t, AuthorizeRole(OpManagerApprove, manager))
	assert.ErrorIs(t, AuthorizeRole(OpManagerApprove, alice), apperr.ErrAccessDenied)
	assert.ErrorIs(t, AuthorizeRole(OpFinanceReject, manager), apperr.ErrAccessDenied)
	assert.ErrorIs(t, AuthorizeRole(Operation("bogus"), manager), apperr.ErrAccessDenied)
}
