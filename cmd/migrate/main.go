package main

import (
	"context"
	"time"

	mongoMigration "itemshare/internal/migrations/mongo"
	"itemshare/pkg/config"
)

const JobName = "items-migration"

func main() {
	cfg := config.Load(JobName)
	if cfg.StoreBackend != config.BackendMongo {
		cfg.Log.Info("Store backend needs no migration", "backend", cfg.StoreBackend)
		return
	}

	if err := migrate(cfg); err != nil {
		cfg.Log.Fatal("Migration failed", "error", err)
	}
	cfg.Log.Info("Migration completed successfully")
}

func migrate(cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Mongo migration job", "database", cfg.MongoDatabaseName)
	return mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.Log)
}
