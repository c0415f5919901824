package discovery

import (
	"github.com/luikyv/go-introspect/internal/oidc"
	"github.com/luikyv/go-introspect/pkg/goidc"
)

func serverMetadata(ctx oidc.Context) metadata {
	config := metadata{
		Issuer:                           ctx.Issuer,
		IntrospectionEndpoint:            ctx.BaseURL() + ctx.EndpointIntrospection,
		IntrospectionEndpointAuthMethods: []string{goidc.ClientAuthnSecretBasic},
		ScopesSupported:                  []string{goidc.ScopeOpenID},
	}

	if len(ctx.JWKS.Keys) != 0 {
		config.AccessTokenSigAlgs = ctx.JWTSigAlgs
	}

	return config
}
