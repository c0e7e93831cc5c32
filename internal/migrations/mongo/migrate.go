package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"itemshare/internal/items/repository"
	"itemshare/internal/migrations/mongo/validators"
	"itemshare/internal/notifications"
	"itemshare/pkg/logger"
)

var (
	// ItemsIndexes back the advancer scan and the per-identity lookups used
	// by listing and account cleanup.
	ItemsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "nextWakeAt", Value: 1}}},
		{Keys: bson.D{{Key: "createdBy", Value: 1}}},
		{Keys: bson.D{{Key: "sharedWith", Value: 1}}},
		{Keys: bson.D{{Key: "inUseBy", Value: 1}}},
		{Keys: bson.D{{Key: "scheduledBy", Value: 1}}},
	}

	UsersIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
)

type collectionDef struct {
	Name      string
	Indexes   []mongo.IndexModel
	Validator bson.M
}

func collections() []collectionDef {
	return []collectionDef{
		{Name: repository.CollectionName, Indexes: ItemsIndexes, Validator: validators.ItemValidator},
		{Name: notifications.InboxCollectionName, Validator: validators.NotificationValidator},
		{Name: notifications.UsersCollectionName, Indexes: UsersIndexes},
	}
}

func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("Running Mongo migrations", "database", dbName)

	for _, def := range collections() {
		if err := ensureCollection(ctx, db, def.Name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", def.Name, err)
		}
		if err := ensureIndexes(ctx, db, def.Name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", def.Name, err)
		}
	}

	log.Info("All migrations applied successfully", "database", dbName)
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection()
		if validator != nil {
			opts.SetValidator(validator)
		}
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	if validator == nil {
		return nil
	}
	log.Info("Collection already exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if len(models) == 0 {
		return nil
	}
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
