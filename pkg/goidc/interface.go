package goidc

import (
	"context"
)

// ClientManager is the directory of registered clients.
// Implementations must be safe for concurrent use.
type ClientManager interface {
	Save(ctx context.Context, client *Client) error
	// Client returns [ErrNotFound] if no client is registered under id.
	Client(ctx context.Context, id string) (*Client, error)
	Delete(ctx context.Context, id string) error
}

// AccessTokenManager stores issued access tokens.
// Implementations must be safe for concurrent use.
type AccessTokenManager interface {
	Save(ctx context.Context, token *AccessToken) error
	// AccessToken returns [ErrNotFound] if the token doesn't exist or its
	// lifetime has elapsed. The two cases must be indistinguishable.
	AccessToken(ctx context.Context, id string) (*AccessToken, error)
	Delete(ctx context.Context, id string) error
}
