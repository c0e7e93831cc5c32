package client

import (
	"context"
	"itemshare/pkg/logger"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoOptions builds the driver options shared by every service. Item
// updates run in transactions, so retryable writes stay on and reads go to
// the primary.
func MongoOptions(appName, uri string, timeout time.Duration) *options.ClientOptions {
	opts := options.Client().
		ApplyURI(uri).
		SetRetryWrites(true).
		SetReadPreference(readpref.Primary()).
		SetServerSelectionTimeout(timeout)
	if appName != "" {
		opts.SetAppName(appName)
	}
	return opts
}

func (c *Client) SetMongo(log *logger.Logger, appName, uri string, connTimeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), connTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, MongoOptions(appName, uri, connTimeout))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", "error", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		log.Fatal("Failed to ping MongoDB", "error", err)
	}

	log.Info("Connected to MongoDB", "app_name", appName)
	c.Mongo = client
	c.log = log
}
