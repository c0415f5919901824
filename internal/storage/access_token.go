package storage

import (
	"context"
	"sync"
	"time"

	"github.com/luikyv/go-introspect/internal/timeutil"
	"github.com/luikyv/go-introspect/pkg/goidc"
)

type AccessTokenManager struct {
	Tokens map[string]*goidc.AccessToken
	// Now is used to evaluate token expiry. It defaults to [timeutil.Now].
	Now func() time.Time
	mu  sync.RWMutex
}

func NewAccessTokenManager() *AccessTokenManager {
	return &AccessTokenManager{
		Tokens: make(map[string]*goidc.AccessToken),
		Now:    timeutil.Now,
	}
}

func (m *AccessTokenManager) Save(
	_ context.Context,
	token *goidc.AccessToken,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Tokens[token.ID] = token
	return nil
}

// AccessToken returns the token identified by id. Expired tokens are removed
// and reported as [goidc.ErrNotFound].
func (m *AccessTokenManager) AccessToken(
	_ context.Context,
	id string,
) (
	*goidc.AccessToken,
	error,
) {
	m.mu.RLock()
	token, exists := m.Tokens[id]
	m.mu.RUnlock()
	if !exists {
		return nil, goidc.ErrNotFound
	}

	if token.IsExpired(m.Now()) {
		m.mu.Lock()
		// The token may have been replaced in the meantime.
		if current := m.Tokens[id]; current == token {
			delete(m.Tokens, id)
		}
		m.mu.Unlock()
		return nil, goidc.ErrNotFound
	}

	return token, nil
}

func (m *AccessTokenManager) Delete(
	_ context.Context,
	id string,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.Tokens, id)
	return nil
}
