package goidc

// Client is a registered service allowed to introspect tokens.
type Client struct {
	ID string `json:"client_id"`
	// HashedSecret is the bcrypt hash of the client secret. The plain secret
	// is never stored.
	HashedSecret string `json:"hashed_secret"`
	// ServiceID identifies the service the client represents. It is returned
	// as the audience of introspected tokens.
	ServiceID string `json:"service_id"`
	Name      string `json:"name,omitempty"`
	// Disabled clients cannot authenticate.
	Disabled bool `json:"disabled,omitempty"`
}

// IsUsable returns whether the client registration is complete and enabled.
func (c *Client) IsUsable() bool {
	return !c.Disabled && c.HashedSecret != "" && c.ServiceID != ""
}
