package kafka_middleware

import (
	"context"
	"time"

	"itemshare/pkg/kafka"
	"itemshare/pkg/logger"
)

// LoggingProducerMiddleware logs every message handed to the producer.
func LoggingProducerMiddleware(log *logger.Logger) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()

		err := next(ctx, msg)

		attrs := []any{
			"topic", msg.Topic,
			"key", msg.Key,
			"event_id", msg.GetEventID(),
			"event_type", msg.GetEventType(),
			"duration", time.Since(start),
		}
		if err != nil {
			log.Error("Failed to publish message", append(attrs, "error", err)...)
			return err
		}
		log.Debug("Message queued for publish", attrs...)
		return nil
	}
}
