package mongodb

import (
	"context"
	"errors"

	"github.com/luikyv/go-introspect/pkg/goidc"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type clientDocument struct {
	ID           string `bson:"_id"`
	HashedSecret string `bson:"hashed_secret"`
	ServiceID    string `bson:"service_id"`
	Name         string `bson:"name,omitempty"`
	Disabled     bool   `bson:"disabled,omitempty"`
}

type ClientManager struct {
	Collection *mongo.Collection
}

func NewClientManager(database *mongo.Database) ClientManager {
	return ClientManager{
		Collection: database.Collection(clientsCollection),
	}
}

func (manager ClientManager) Save(
	ctx context.Context,
	client *goidc.Client,
) error {
	doc := clientDocument{
		ID:           client.ID,
		HashedSecret: client.HashedSecret,
		ServiceID:    client.ServiceID,
		Name:         client.Name,
		Disabled:     client.Disabled,
	}
	filter := bson.D{{Key: "_id", Value: client.ID}}
	if _, err := manager.Collection.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true)); err != nil {
		return err
	}

	return nil
}

func (manager ClientManager) Client(
	ctx context.Context,
	id string,
) (
	*goidc.Client,
	error,
) {
	filter := bson.D{{Key: "_id", Value: id}}

	var doc clientDocument
	if err := manager.Collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, goidc.ErrNotFound
		}
		return nil, err
	}

	return &goidc.Client{
		ID:           doc.ID,
		HashedSecret: doc.HashedSecret,
		ServiceID:    doc.ServiceID,
		Name:         doc.Name,
		Disabled:     doc.Disabled,
	}, nil
}

func (manager ClientManager) Delete(
	ctx context.Context,
	id string,
) error {
	filter := bson.D{{Key: "_id", Value: id}}
	if _, err := manager.Collection.DeleteOne(ctx, filter); err != nil {
		return err
	}

	return nil
}
