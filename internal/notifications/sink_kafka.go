package notifications

import (
	"context"
	"fmt"

	"itemshare/pkg/kafka"
)

const (
	eventSource   = "itemshare"
	schemaVersion = "1"
)

type Publisher interface {
	PublishBatch(ctx context.Context, messages []kafka.Message) error
}

// KafkaSink publishes one message per event keyed by recipient, so each
// recipient's notifications stay ordered within a partition.
type KafkaSink struct {
	publisher Publisher
}

func NewKafkaSink(publisher Publisher) *KafkaSink {
	return &KafkaSink{publisher: publisher}
}

func (s *KafkaSink) Deliver(ctx context.Context, events []Event) error {
	messages := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		msg, err := kafka.NewMessage().
			WithKey(e.Recipient).
			WithValue(e).
			WithEventID(e.ID).
			WithEventType(string(e.Category)).
			WithSchemaVersion(schemaVersion).
			WithSource(eventSource).
			WithTimestamp(e.At).
			Build()
		if err != nil {
			return fmt.Errorf("build notification message: %w", err)
		}
		messages = append(messages, msg)
	}
	return s.publisher.PublishBatch(ctx, messages)
}
