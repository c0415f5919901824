// Package mongodb implements the storage interfaces on top of MongoDB.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	clientsCollection      = "clients"
	accessTokensCollection = "access_tokens"
)

// Connect opens a connection to the MongoDB deployment at uri and returns
// the database named name.
func Connect(
	ctx context.Context,
	uri string,
	name string,
) (
	*mongo.Database,
	error,
) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("could not connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("could not reach mongodb: %w", err)
	}

	return client.Database(name), nil
}

// EnsureIndexes creates the TTL index that lets MongoDB remove expired access
// tokens.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	_, err := database.Collection(accessTokensCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return fmt.Errorf("could not create the access token ttl index: %w", err)
	}

	return nil
}
