package repository

import (
	"context"
	"errors"
	"fmt"
	itemserrors "itemshare/internal/items/errors"
	"itemshare/pkg/config"
	mongotx "itemshare/pkg/db/mongo"
	"itemshare/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoItemRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoItemRepository(cfg *config.Config) ItemRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoItemRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout leaves session contexts alone; wrapping one would detach the
// operation from its transaction.
func (r *mongoItemRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoItemRepository) Create(ctx context.Context, item *model.Item) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, ToDocument(item)); err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

func (r *mongoItemRepository) FindByID(ctx context.Context, id string) (*model.Item, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.findByID(ctx, id)
}

func (r *mongoItemRepository) findByID(ctx context.Context, id string) (*model.Item, error) {
	var doc model.ItemDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, itemserrors.ErrItemNotFound
		}
		return nil, r.storeError("failed to find item", err)
	}
	return FromDocument(&doc)
}

func (r *mongoItemRepository) FindByIdentity(ctx context.Context, identity string) ([]*model.Item, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"$or": bson.A{
		bson.M{"createdBy": identity},
		bson.M{"sharedWith": identity},
		bson.M{"inUseBy": identity},
		bson.M{"scheduledBy": identity},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, r.storeError("failed to find items", err)
	}
	defer cursor.Close(ctx)

	var docs []model.ItemDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}

	items := make([]*model.Item, 0, len(docs))
	for i := range docs {
		item, err := FromDocument(&docs[i])
		if err != nil {
			r.cfg.Log.Warn("Skipping item with unreadable timeline", "id", docs[i].ID, "error", err)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *mongoItemRepository) FindCreatedBy(ctx context.Context, identity string) ([]string, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.findIDs(ctx, bson.M{"createdBy": identity}, 0)
}

// FindDue matches the derived wake-up time and, for documents written by
// older clients that never set it, the three legacy flags.
func (r *mongoItemRepository) FindDue(ctx context.Context, now time.Time, limit int, exclude []string) ([]string, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"$or": bson.A{
		bson.M{"nextWakeAt": bson.M{"$lte": now}},
		bson.M{"needsImmediateUpdate": true, "availabilityChangeTime": bson.M{"$lte": now}},
		bson.M{"needsScheduledEndUpdate": true, "nextAvailabilityScheduledChangeTime": bson.M{"$lte": now}},
		bson.M{"needsScheduledStartUpdate": true, "availabilityStartTime.0": bson.M{"$lte": now}},
	}}
	if len(exclude) > 0 {
		filter["_id"] = bson.M{"$nin": exclude}
	}
	return r.findIDs(ctx, filter, limit)
}

func (r *mongoItemRepository) findIDs(ctx context.Context, filter bson.M, limit int) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, r.storeError("failed to scan items", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode item ids: %w", err)
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

// Update reads, mutates and replaces the document inside one transaction.
// The replace is conditioned on the version that was read, so a writer that
// slipped in between is detected even outside snapshot isolation.
func (r *mongoItemRepository) Update(ctx context.Context, id string, fn UpdateFunc) (*model.Item, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	var updated *model.Item
	err := r.txManager.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		item, err := r.findByID(sessCtx, id)
		if err != nil {
			return err
		}
		readVersion := item.Version

		if err := fn(item); err != nil {
			return err
		}

		item.Version = readVersion + 1
		result, err := r.collection.ReplaceOne(sessCtx,
			bson.M{"_id": id, "version": readVersion},
			ToDocument(item),
		)
		if err != nil {
			return r.storeError("failed to update item", err)
		}
		if result.MatchedCount == 0 {
			return itemserrors.ErrConcurrentModification
		}

		updated = item
		return nil
	})
	if err != nil {
		if mongotx.IsTransient(err) && !errors.Is(err, itemserrors.ErrConcurrentModification) {
			return nil, fmt.Errorf("%w: %v", itemserrors.ErrConcurrentModification, err)
		}
		return nil, err
	}
	return updated, nil
}

func (r *mongoItemRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return r.storeError("failed to delete item", err)
	}
	if result.DeletedCount == 0 {
		return itemserrors.ErrItemNotFound
	}
	return nil
}

func (r *mongoItemRepository) storeError(msg string, err error) error {
	if mongotx.IsTransient(err) {
		return fmt.Errorf("%s: %w: %v", msg, itemserrors.ErrConcurrentModification, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
