package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const UsersCollectionName = "users"

// MongoResolver reads givenName from the users collection, keyed by email.
type MongoResolver struct {
	collection *mongo.Collection
	timeout    time.Duration
}

func NewMongoResolver(db *mongo.Database, timeout time.Duration) *MongoResolver {
	return &MongoResolver{collection: db.Collection(UsersCollectionName), timeout: timeout}
}

func (r *MongoResolver) DisplayName(ctx context.Context, identity string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var user struct {
		GivenName string `bson:"givenName"`
	}
	opts := options.FindOne().SetProjection(bson.M{"givenName": 1})
	err := r.collection.FindOne(ctx, bson.M{"email": identity}, opts).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return identity, nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup user %s: %w", identity, err)
	}
	if user.GivenName == "" {
		return identity, nil
	}
	return user.GivenName, nil
}
