package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/garyjia/expense-approval/internal/domain/event"
)

// LogSink writes one structured line per event
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a new LogSink
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Emit(_ context.Context, evt *event.Event) error {
	s.logger.Info("Notification event",
		zap.String("event_id", evt.ID),
		zap.String("event_type", evt.Type.String()),
		zap.Int64("expense_id", evt.ExpenseID),
		zap.String("target_role", string(evt.Audience.Role)),
		zap.Int64("target_user_id", evt.Audience.UserID),
		zap.String("title", evt.Title),
		zap.String("correlation_id", evt.CorrelationID),
	)
	return nil
}
