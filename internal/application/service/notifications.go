package service

import (
	"context"
	"fmt"

	"github.com/garyjia/expense-approval/internal/domain/apperr"
	"github.com/garyjia/expense-approval/internal/domain/entity"
)

// ListNotifications returns the caller's inbox, newest first
func (s *WorkflowService) ListNotifications(ctx context.Context, unreadOnly bool) ([]*entity.Notification, error) {
	return run(ctx, s, "list_notifications", func(ctx context.Context, actor entity.Actor) ([]*entity.Notification, error) {
		list, err := s.notifications.ListByRecipient(ctx, actor.UserID, unreadOnly)
		if err != nil {
			return nil, fmt.Errorf("failed to list notifications: %w", err)
		}
		return list, nil
	})
}

// UnreadCount returns how many of the caller's notifications are unread
func (s *WorkflowService) UnreadCount(ctx context.Context) (int, error) {
	return run(ctx, s, "unread_count", func(ctx context.Context, actor entity.Actor) (int, error) {
		n, err := s.notifications.CountUnread(ctx, actor.UserID)
		if err != nil {
			return 0, fmt.Errorf("failed to count unread notifications: %w", err)
		}
		return n, nil
	})
}

// MarkRead marks one of the caller's notifications as read. Other users'
// notifications are reported as not found.
func (s *WorkflowService) MarkRead(ctx context.Context, id int64) error {
	_, err := run(ctx, s, "mark_read", func(ctx context.Context, actor entity.Actor) (bool, error) {
		ok, err := s.notifications.MarkRead(ctx, id, actor.UserID)
		if err != nil {
			return false, fmt.Errorf("failed to mark notification %d read: %w", id, err)
		}
		if !ok {
			return false, apperr.NotFound("notification %d not found", id)
		}
		return true, nil
	})
	return err
}

// MarkAllRead marks every unread notification of the caller as read
func (s *WorkflowService) MarkAllRead(ctx context.Context) (int64, error) {
	return run(ctx, s, "mark_all_read", func(ctx context.Context, actor entity.Actor) (int64, error) {
		n, err := s.notifications.MarkAllRead(ctx, actor.UserID)
		if err != nil {
			return 0, fmt.Errorf("failed to mark notifications read: %w", err)
		}
		return n, nil
	})
}
