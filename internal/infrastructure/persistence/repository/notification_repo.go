package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/infrastructure/persistence/sqlite"
)

// NotificationRepository implements port.NotificationRepository
type NotificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB, logger *zap.Logger) *NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores one inbox row. An expense deleted before delivery is stored as a
// NULL reference instead of failing the foreign key.
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO notifications
			(recipient_id, expense_request_id, triggered_by_id, type, title, message, is_read, created_at)
		VALUES (?, (SELECT id FROM expense_requests WHERE id = ?), ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query,
		n.RecipientID, nullID(n.ExpenseID), nullID(n.TriggeredByID), n.Type, n.Title, n.Message, n.Read, n.CreatedAt.UTC())
	if err != nil {
		r.logger.Error("Failed to create notification",
			zap.Int64("recipient_id", n.RecipientID), zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	n.ID = id

	// reflect what was stored
	var stored sql.NullInt64
	if err := sqlite.Executor(ctx, r.db).QueryRowContext(ctx,
		`SELECT expense_request_id FROM notifications WHERE id = ?`, id).Scan(&stored); err != nil {
		return fmt.Errorf("failed to read back notification: %w", err)
	}
	if n.ExpenseID != 0 && !stored.Valid {
		r.logger.Info("Notification stored without its deleted expense",
			zap.Int64("expense_id", n.ExpenseID), zap.Int64("recipient_id", n.RecipientID))
	}
	n.ExpenseID = stored.Int64
	return nil
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

// ListByRecipient returns the recipient's notifications, newest first
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID int64, unreadOnly bool) ([]*entity.Notification, error) {
	query := `
		SELECT id, recipient_id, expense_request_id, triggered_by_id, type, title, message, is_read, created_at
		FROM notifications
		WHERE recipient_id = ?
	`
	if unreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx, query, recipientID)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.Int64("recipient_id", recipientID), zap.Error(err))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]*entity.Notification, 0)
	for rows.Next() {
		var n entity.Notification
		var expenseID, triggeredBy sql.NullInt64
		if err := rows.Scan(&n.ID, &n.RecipientID, &expenseID, &triggeredBy, &n.Type, &n.Title, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.ExpenseID = expenseID.Int64
		n.TriggeredByID = triggeredBy.Int64
		notifications = append(notifications, &n)
	}

	return notifications, rows.Err()
}

// CountUnread returns the number of unread notifications for the recipient
func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID int64) (int, error) {
	var count int
	err := sqlite.Executor(ctx, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = ? AND is_read = 0`, recipientID).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count unread notifications", zap.Int64("recipient_id", recipientID), zap.Error(err))
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

// MarkRead flags one of the recipient's notifications as read
func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID int64) (bool, error) {
	result, err := sqlite.Executor(ctx, r.db).ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND recipient_id = ?`, id, recipientID)
	if err != nil {
		r.logger.Error("Failed to mark notification read", zap.Int64("id", id), zap.Error(err))
		return false, fmt.Errorf("failed to mark notification read: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// MarkAllRead flags every unread notification of the recipient
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID int64) (int64, error) {
	result, err := sqlite.Executor(ctx, r.db).ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE recipient_id = ? AND is_read = 0`, recipientID)
	if err != nil {
		r.logger.Error("Failed to mark notifications read", zap.Int64("recipient_id", recipientID), zap.Error(err))
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return result.RowsAffected()
}

// Verify interface compliance
var _ port.NotificationRepository = (*NotificationRepository)(nil)
