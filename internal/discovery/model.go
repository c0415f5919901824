package discovery

import (
	"github.com/go-jose/go-jose/v4"
)

// metadata is the subset of RFC 8414 authorization server metadata that
// concerns token introspection.
type metadata struct {
	Issuer                           string                    `json:"issuer"`
	IntrospectionEndpoint            string                    `json:"introspection_endpoint"`
	IntrospectionEndpointAuthMethods []string                  `json:"introspection_endpoint_auth_methods_supported"`
	ScopesSupported                  []string                  `json:"scopes_supported"`
	AccessTokenSigAlgs               []jose.SignatureAlgorithm `json:"access_token_signing_alg_values_supported,omitempty"`
}
