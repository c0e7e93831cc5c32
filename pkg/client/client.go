package client

import (
	"context"
	"itemshare/pkg/logger"
	"time"

	"cloud.google.com/go/firestore"
	"firebase.google.com/go/v4/auth"
	"go.mongodb.org/mongo-driver/mongo"
)

type Client struct {
	Mongo     *mongo.Client
	Firestore *firestore.Client
	Auth      *auth.Client

	log *logger.Logger
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) GracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if c.Mongo != nil {
		if err := c.Mongo.Disconnect(ctx); err != nil && c.log != nil {
			c.log.Error("Failed to disconnect from MongoDB", "error", err)
		}
	}
	if c.Firestore != nil {
		if err := c.Firestore.Close(); err != nil && c.log != nil {
			c.log.Error("Failed to close Firestore client", "error", err)
		}
	}
}
