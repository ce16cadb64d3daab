package notify

import (
	"context"

	"github.com/angelmondragon/cakeshop-backend/pkg/logger"
)

// LogSink writes notifications to the structured log instead of delivering them.
type LogSink struct {
	logg *logger.Logger
}

func NewLogSink(logg *logger.Logger) *LogSink {
	if logg == nil {
		logg = logger.Nop()
	}
	return &LogSink{logg: logg}
}

func (s *LogSink) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"kind":    msg.Kind,
		"to":      msg.To,
		"subject": msg.Subject,
	})
	s.logg.Info(ctx, "notification.dispatch")
	return nil
}
