package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/luikyv/go-introspect/internal/hashutil"
	"github.com/luikyv/go-introspect/internal/timeutil"
	"github.com/luikyv/go-introspect/pkg/goidc"
)

const (
	upsertAccessTokenQuery = `
		INSERT INTO access_tokens
			(thumbprint, subject, client_id, grant_type, auth_methods, created_at, lifetime_secs, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			subject = VALUES(subject),
			client_id = VALUES(client_id),
			grant_type = VALUES(grant_type),
			auth_methods = VALUES(auth_methods),
			created_at = VALUES(created_at),
			lifetime_secs = VALUES(lifetime_secs),
			expires_at = VALUES(expires_at)`
	selectAccessTokenQuery = `
		SELECT subject, client_id, grant_type, auth_methods, created_at, lifetime_secs
		FROM access_tokens
		WHERE thumbprint = ? AND expires_at > ?`
	deleteAccessTokenQuery        = `DELETE FROM access_tokens WHERE thumbprint = ?`
	deleteExpiredAccessTokenQuery = `DELETE FROM access_tokens WHERE expires_at <= ?`
)

type AccessTokenManager struct {
	db *sql.DB
	// Now is used to evaluate token expiry. It defaults to [timeutil.Now].
	Now func() time.Time
}

func NewAccessTokenManager(db *sql.DB) AccessTokenManager {
	return AccessTokenManager{
		db:  db,
		Now: timeutil.Now,
	}
}

func (m AccessTokenManager) Save(
	ctx context.Context,
	token *goidc.AccessToken,
) error {
	authMethods := token.AuthMethods
	if authMethods == nil {
		authMethods = []string{}
	}
	encodedMethods, err := json.Marshal(authMethods)
	if err != nil {
		return fmt.Errorf("could not encode the auth methods: %w", err)
	}

	_, err = m.db.ExecContext(ctx, upsertAccessTokenQuery,
		hashutil.Thumbprint(token.ID),
		token.Subject,
		token.ClientID,
		token.GrantType,
		encodedMethods,
		token.CreatedAt.UTC(),
		token.LifetimeSecs,
		token.ExpiresAt().UTC(),
	)
	return err
}

func (m AccessTokenManager) AccessToken(
	ctx context.Context,
	id string,
) (
	*goidc.AccessToken,
	error,
) {
	token := goidc.AccessToken{ID: id}
	var encodedMethods []byte
	err := m.db.QueryRowContext(ctx, selectAccessTokenQuery, hashutil.Thumbprint(id), m.Now().UTC()).Scan(
		&token.Subject,
		&token.ClientID,
		&token.GrantType,
		&encodedMethods,
		&token.CreatedAt,
		&token.LifetimeSecs,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goidc.ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(encodedMethods, &token.AuthMethods); err != nil {
		return nil, fmt.Errorf("could not decode the auth methods: %w", err)
	}
	if len(token.AuthMethods) == 0 {
		token.AuthMethods = nil
	}

	return &token, nil
}

func (m AccessTokenManager) Delete(
	ctx context.Context,
	id string,
) error {
	_, err := m.db.ExecContext(ctx, deleteAccessTokenQuery, hashutil.Thumbprint(id))
	return err
}

// DeleteExpired removes every token whose lifetime has elapsed and returns
// how many were removed.
func (m AccessTokenManager) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := m.db.ExecContext(ctx, deleteExpiredAccessTokenQuery, m.Now().UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
