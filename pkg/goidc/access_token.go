package goidc

import (
	"time"
)

// AccessToken is an access token previously issued to a principal.
type AccessToken struct {
	// ID is the value used to look the token up. For opaque tokens this is
	// the token itself, for JWTs it is the "jti" claim.
	ID       string `json:"id"`
	Subject  string `json:"sub"`
	ClientID string `json:"client_id"`
	// GrantType is the grant type as recorded at issuance. It may be in any
	// case and may be empty.
	GrantType string `json:"grant_type,omitempty"`
	// AuthMethods lists, in order, how the principal authenticated.
	AuthMethods  []string  `json:"auth_methods,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	LifetimeSecs int       `json:"lifetime_secs"`
}

func (t *AccessToken) ExpiresAt() time.Time {
	return t.CreatedAt.Add(time.Duration(t.LifetimeSecs) * time.Second)
}

func (t *AccessToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt())
}
