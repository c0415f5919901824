package oidc

import (
	"github.com/go-jose/go-jose/v4"
	"github.com/luikyv/go-introspect/internal/metrics"
	"github.com/luikyv/go-introspect/pkg/goidc"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Configuration struct {
	ClientManager      goidc.ClientManager
	AccessTokenManager goidc.AccessTokenManager

	// Issuer is the authorization server issuer. It is returned as the "iss"
	// of every active token.
	Issuer        string
	StaticClients []*goidc.Client

	EndpointPrefix        string
	EndpointIntrospection string

	// JWKS contains the keys used to verify access tokens issued as JWTs.
	// When empty, every token is treated as opaque.
	JWKS       jose.JSONWebKeySet
	JWTSigAlgs []jose.SignatureAlgorithm

	// MissingCredentialsRejected makes requests without usable client
	// credentials fail with invalid_client instead of an inactive response.
	// Wrong secrets and unknown clients always result in inactive responses.
	MissingCredentialsRejected bool

	Logger  *zap.Logger
	Metrics *metrics.Introspection
	Tracer  trace.Tracer
}
