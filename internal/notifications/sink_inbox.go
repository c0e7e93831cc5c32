package notifications

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const InboxCollectionName = "notifications"

// InboxSink appends events to a per-recipient document. Each document keeps
// parallel arrays: notifications and timestamps share an index, and every
// message is also pushed to its category array (reserveNotification,
// releaseNotification, cancelNotification).
type InboxSink struct {
	collection *mongo.Collection
	timeout    time.Duration
}

func NewInboxSink(db *mongo.Database, timeout time.Duration) *InboxSink {
	return &InboxSink{collection: db.Collection(InboxCollectionName), timeout: timeout}
}

func (s *InboxSink) Deliver(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	updates := inboxUpdates(events)
	models := make([]mongo.WriteModel, 0, len(updates))
	for _, u := range updates {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": u.recipient}).
			SetUpdate(u.update).
			SetUpsert(true))
	}

	if _, err := s.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("write notification inbox: %w", err)
	}
	return nil
}

// DeleteInbox removes everything stored for recipient.
func (s *InboxSink) DeleteInbox(ctx context.Context, recipient string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": recipient}); err != nil {
		return fmt.Errorf("delete notification inbox: %w", err)
	}
	return nil
}

type inboxUpdate struct {
	recipient string
	update    bson.M
}

// inboxUpdates groups events by recipient, keeping first-seen order.
func inboxUpdates(events []Event) []inboxUpdate {
	var order []string
	byRecipient := map[string][]Event{}
	for _, e := range events {
		if _, ok := byRecipient[e.Recipient]; !ok {
			order = append(order, e.Recipient)
		}
		byRecipient[e.Recipient] = append(byRecipient[e.Recipient], e)
	}

	out := make([]inboxUpdate, 0, len(order))
	for _, recipient := range order {
		var messages bson.A
		var timestamps bson.A
		perCategory := map[string]bson.A{}
		for _, e := range byRecipient[recipient] {
			messages = append(messages, e.Message)
			timestamps = append(timestamps, e.At)
			field := string(e.Category) + "Notification"
			perCategory[field] = append(perCategory[field], e.Message)
		}

		push := bson.M{
			"notifications": bson.M{"$each": messages},
			"timestamps":    bson.M{"$each": timestamps},
		}
		for field, msgs := range perCategory {
			push[field] = bson.M{"$each": msgs}
		}
		out = append(out, inboxUpdate{recipient: recipient, update: bson.M{"$push": push}})
	}
	return out
}
