package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/luikyv/go-introspect/pkg/goidc"
)

const (
	upsertClientQuery = `
		INSERT INTO clients (id, hashed_secret, service_id, name, disabled)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			hashed_secret = VALUES(hashed_secret),
			service_id = VALUES(service_id),
			name = VALUES(name),
			disabled = VALUES(disabled)`
	selectClientQuery = `
		SELECT id, hashed_secret, service_id, name, disabled
		FROM clients
		WHERE id = ?`
	deleteClientQuery = `DELETE FROM clients WHERE id = ?`
)

type ClientManager struct {
	db *sql.DB
}

func NewClientManager(db *sql.DB) ClientManager {
	return ClientManager{db: db}
}

func (m ClientManager) Save(
	ctx context.Context,
	client *goidc.Client,
) error {
	_, err := m.db.ExecContext(ctx, upsertClientQuery,
		client.ID, client.HashedSecret, client.ServiceID, client.Name, client.Disabled)
	return err
}

func (m ClientManager) Client(
	ctx context.Context,
	id string,
) (
	*goidc.Client,
	error,
) {
	var client goidc.Client
	err := m.db.QueryRowContext(ctx, selectClientQuery, id).Scan(
		&client.ID,
		&client.HashedSecret,
		&client.ServiceID,
		&client.Name,
		&client.Disabled,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goidc.ErrNotFound
		}
		return nil, err
	}

	return &client, nil
}

func (m ClientManager) Delete(
	ctx context.Context,
	id string,
) error {
	_, err := m.db.ExecContext(ctx, deleteClientQuery, id)
	return err
}
