package goidc

// IntrospectionResponse is the body returned for an active token.
// Every field is always present, including empty strings.
type IntrospectionResponse struct {
	Active             bool   `json:"active"`
	ClientID           string `json:"client_id"`
	Subject            string `json:"sub"`
	UniqueSecurityName string `json:"unique_security_name"`
	// Expiry holds the token lifetime in seconds, not an absolute instant.
	Expiry int `json:"exp"`
	// IssuedAt is in milliseconds since the epoch.
	IssuedAt  int64     `json:"iat"`
	RealmName string    `json:"realm_name"`
	TokenType TokenType `json:"token_type"`
	GrantType string    `json:"grant_type"`
	Scope     string    `json:"scope"`
	Audience  string    `json:"aud"`
	Issuer    string    `json:"iss"`
}

// InactiveResponse is the body returned whenever a token is not active.
type InactiveResponse struct {
	Active bool `json:"active"`
}
