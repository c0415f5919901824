package bolt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/luikyv/go-introspect/internal/hashutil"
	"github.com/luikyv/go-introspect/internal/timeutil"
	"github.com/luikyv/go-introspect/pkg/goidc"
	"go.etcd.io/bbolt"
)

type accessTokenRecord struct {
	Subject      string    `json:"subject"`
	ClientID     string    `json:"client_id"`
	GrantType    string    `json:"grant_type,omitempty"`
	AuthMethods  []string  `json:"auth_methods,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	LifetimeSecs int       `json:"lifetime_secs"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type AccessTokenManager struct {
	db *bbolt.DB
	// Now is used to evaluate token expiry. It defaults to [timeutil.Now].
	Now func() time.Time
}

func NewAccessTokenManager(db *bbolt.DB) AccessTokenManager {
	return AccessTokenManager{
		db:  db,
		Now: timeutil.Now,
	}
}

func (m AccessTokenManager) Save(
	_ context.Context,
	token *goidc.AccessToken,
) error {
	data, err := json.Marshal(accessTokenRecord{
		Subject:      token.Subject,
		ClientID:     token.ClientID,
		GrantType:    token.GrantType,
		AuthMethods:  token.AuthMethods,
		CreatedAt:    token.CreatedAt,
		LifetimeSecs: token.LifetimeSecs,
		ExpiresAt:    token.ExpiresAt(),
	})
	if err != nil {
		return fmt.Errorf("could not encode the access token: %w", err)
	}

	return m.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(accessTokensBucket)).Put(tokenKey(token.ID), data)
	})
}

// AccessToken returns the token identified by id. Expired tokens are removed
// and reported as [goidc.ErrNotFound].
func (m AccessTokenManager) AccessToken(
	_ context.Context,
	id string,
) (
	*goidc.AccessToken,
	error,
) {
	key := tokenKey(id)

	var data []byte
	if err := m.db.View(func(tx *bbolt.Tx) error {
		// Values returned by Get are only valid during the transaction.
		data = bytes.Clone(tx.Bucket([]byte(accessTokensBucket)).Get(key))
		return nil
	}); err != nil {
		return nil, err
	}

	if data == nil {
		return nil, goidc.ErrNotFound
	}

	var record accessTokenRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("could not decode the access token: %w", err)
	}

	if !m.Now().Before(record.ExpiresAt) {
		if err := m.deleteIfUnchanged(key, data); err != nil {
			return nil, err
		}
		return nil, goidc.ErrNotFound
	}

	return &goidc.AccessToken{
		ID:           id,
		Subject:      record.Subject,
		ClientID:     record.ClientID,
		GrantType:    record.GrantType,
		AuthMethods:  record.AuthMethods,
		CreatedAt:    record.CreatedAt,
		LifetimeSecs: record.LifetimeSecs,
	}, nil
}

func (m AccessTokenManager) Delete(
	_ context.Context,
	id string,
) error {
	return m.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(accessTokensBucket)).Delete(tokenKey(id))
	})
}

// deleteIfUnchanged removes the entry under key unless it was rewritten after
// data was read.
func (m AccessTokenManager) deleteIfUnchanged(key, data []byte) error {
	return m.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(accessTokensBucket))
		if !bytes.Equal(bucket.Get(key), data) {
			return nil
		}
		return bucket.Delete(key)
	})
}

func tokenKey(id string) []byte {
	return []byte(hashutil.Thumbprint(id))
}
