package storage

import (
	"context"
	"sync"

	"github.com/luikyv/go-introspect/pkg/goidc"
)

type ClientManager struct {
	Clients map[string]*goidc.Client
	mu      sync.RWMutex
}

func NewClientManager() *ClientManager {
	return &ClientManager{
		Clients: make(map[string]*goidc.Client),
	}
}

func (m *ClientManager) Save(
	_ context.Context,
	client *goidc.Client,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Clients[client.ID] = client
	return nil
}

func (m *ClientManager) Client(
	_ context.Context,
	id string,
) (
	*goidc.Client,
	error,
) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	client, exists := m.Clients[id]
	if !exists {
		return nil, goidc.ErrNotFound
	}

	return client, nil
}

func (m *ClientManager) Delete(
	_ context.Context,
	id string,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.Clients, id)
	return nil
}
