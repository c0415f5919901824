package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/luikyv/go-introspect/internal/hashutil"
	"github.com/luikyv/go-introspect/internal/timeutil"
	"github.com/luikyv/go-introspect/pkg/goidc"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// accessTokenDocument is keyed by the token thumbprint. The token value
// itself is not persisted.
type accessTokenDocument struct {
	ID           string    `bson:"_id"`
	Subject      string    `bson:"subject"`
	ClientID     string    `bson:"client_id"`
	GrantType    string    `bson:"grant_type,omitempty"`
	AuthMethods  []string  `bson:"auth_methods,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
	LifetimeSecs int       `bson:"lifetime_secs"`
	ExpiresAt    time.Time `bson:"expires_at"`
}

type AccessTokenManager struct {
	Collection *mongo.Collection
	// Now is used to evaluate token expiry. It defaults to [timeutil.Now].
	Now func() time.Time
}

func NewAccessTokenManager(database *mongo.Database) AccessTokenManager {
	return AccessTokenManager{
		Collection: database.Collection(accessTokensCollection),
		Now:        timeutil.Now,
	}
}

func (manager AccessTokenManager) Save(
	ctx context.Context,
	token *goidc.AccessToken,
) error {
	id := hashutil.Thumbprint(token.ID)
	doc := accessTokenDocument{
		ID:           id,
		Subject:      token.Subject,
		ClientID:     token.ClientID,
		GrantType:    token.GrantType,
		AuthMethods:  token.AuthMethods,
		CreatedAt:    token.CreatedAt,
		LifetimeSecs: token.LifetimeSecs,
		ExpiresAt:    token.ExpiresAt(),
	}
	filter := bson.D{{Key: "_id", Value: id}}
	if _, err := manager.Collection.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true)); err != nil {
		return err
	}

	return nil
}

// AccessToken filters out expired tokens in the query itself since the TTL
// monitor only runs periodically.
func (manager AccessTokenManager) AccessToken(
	ctx context.Context,
	id string,
) (
	*goidc.AccessToken,
	error,
) {
	filter := bson.D{
		{Key: "_id", Value: hashutil.Thumbprint(id)},
		{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: manager.Now()}}},
	}

	var doc accessTokenDocument
	if err := manager.Collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, goidc.ErrNotFound
		}
		return nil, err
	}

	return &goidc.AccessToken{
		ID:           id,
		Subject:      doc.Subject,
		ClientID:     doc.ClientID,
		GrantType:    doc.GrantType,
		AuthMethods:  doc.AuthMethods,
		CreatedAt:    doc.CreatedAt,
		LifetimeSecs: doc.LifetimeSecs,
	}, nil
}

func (manager AccessTokenManager) Delete(
	ctx context.Context,
	id string,
) error {
	filter := bson.D{{Key: "_id", Value: hashutil.Thumbprint(id)}}
	if _, err := manager.Collection.DeleteOne(ctx, filter); err != nil {
		return err
	}

	return nil
}
