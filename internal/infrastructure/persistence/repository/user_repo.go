package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/infrastructure/persistence/sqlite"
)

// UserRepository implements port.UserRepository
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID returns nil, nil for unknown users
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	return r.getOne(ctx, `SELECT id, full_name, email, role, created_at FROM users WHERE id = ?`, id)
}

// GetByEmail returns nil, nil for unknown emails
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT id, full_name, email, role, created_at FROM users WHERE email = ?`, email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg interface{}) (*entity.User, error) {
	var u entity.User
	var role string

	err := sqlite.Executor(ctx, r.db).QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.FullName, &u.Email, &role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user", zap.Any("key", arg), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u.Role = entity.Role(role)
	return &u, nil
}

// ListByRole returns every user holding the role, by id
func (r *UserRepository) ListByRole(ctx context.Context, role entity.Role) ([]*entity.User, error) {
	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx,
		`SELECT id, full_name, email, role, created_at FROM users WHERE role = ? ORDER BY id`, string(role))
	if err != nil {
		r.logger.Error("Failed to list users by role", zap.String("role", string(role)), zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*entity.User, 0)
	for rows.Next() {
		var u entity.User
		var roleName string
		if err := rows.Scan(&u.ID, &u.FullName, &u.Email, &roleName, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.Role = entity.Role(roleName)
		users = append(users, &u)
	}

	return users, rows.Err()
}

// Verify interface compliance
var _ port.UserRepository = (*UserRepository)(nil)
