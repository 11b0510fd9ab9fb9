package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/event"
)

// LarkSink messages each recipient on Lark, addressed by their email
type LarkSink struct {
	users  port.UserRepository
	sender port.LarkMessageSender
	logger *zap.Logger
}

// NewLarkSink creates a new LarkSink
func NewLarkSink(users port.UserRepository, sender port.LarkMessageSender, logger *zap.Logger) *LarkSink {
	return &LarkSink{users: users, sender: sender, logger: logger}
}

func (s *LarkSink) Name() string { return "lark" }

func (s *LarkSink) Emit(ctx context.Context, evt *event.Event) error {
	to, err := recipients(ctx, s.users, evt.Audience)
	if err != nil {
		return err
	}

	text := evt.Title + "\n" + evt.Message
	var errs []error
	for _, u := range to {
		if u.Email == "" {
			s.logger.Warn("Skipping Lark message, recipient has no email", zap.Int64("user_id", u.ID))
			continue
		}
		if err := s.sender.SendText(ctx, u.Email, text); err != nil {
			errs = append(errs, fmt.Errorf("lark message to user %d: %w", u.ID, err))
		}
	}
	return errors.Join(errs...)
}
