package bolt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/luikyv/go-introspect/pkg/goidc"
	"go.etcd.io/bbolt"
)

type ClientManager struct {
	db *bbolt.DB
}

func NewClientManager(db *bbolt.DB) ClientManager {
	return ClientManager{db: db}
}

func (m ClientManager) Save(
	_ context.Context,
	client *goidc.Client,
) error {
	data, err := json.Marshal(client)
	if err != nil {
		return fmt.Errorf("could not encode the client: %w", err)
	}

	return m.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(clientsBucket)).Put([]byte(client.ID), data)
	})
}

func (m ClientManager) Client(
	_ context.Context,
	id string,
) (
	*goidc.Client,
	error,
) {
	var client goidc.Client
	err := m.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(clientsBucket)).Get([]byte(id))
		if data == nil {
			return goidc.ErrNotFound
		}
		return json.Unmarshal(data, &client)
	})
	if err != nil {
		return nil, err
	}

	return &client, nil
}

func (m ClientManager) Delete(
	_ context.Context,
	id string,
) error {
	return m.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(clientsBucket)).Delete([]byte(id))
	})
}
