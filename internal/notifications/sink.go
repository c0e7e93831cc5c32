package notifications

import (
	"context"
	"errors"

	"itemshare/pkg/logger"
)

// LogSink writes every event to the structured log.
type LogSink struct {
	log *logger.Logger
}

func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Deliver(_ context.Context, events []Event) error {
	for _, e := range events {
		s.log.Info("Notification",
			"recipient", e.Recipient,
			"category", e.Category,
			"item_id", e.ItemID,
			"message", e.Message,
		)
	}
	return nil
}

// FanoutSink delivers to every sink and joins their errors.
type FanoutSink []Sink

func (f FanoutSink) Deliver(ctx context.Context, events []Event) error {
	var errs []error
	for _, s := range f {
		if err := s.Deliver(ctx, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
