package provider

import (
	"errors"

	"github.com/go-jose/go-jose/v4"
	"github.com/luikyv/go-introspect/internal/metrics"
	"github.com/luikyv/go-introspect/pkg/goidc"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ProviderOption func(p *Provider) error

// WithClientStorage replaces the default client storage which keeps the clients
// stored in memory.
func WithClientStorage(
	storage goidc.ClientManager,
) ProviderOption {
	return func(p *Provider) error {
		p.config.ClientManager = storage
		return nil
	}
}

// WithAccessTokenStorage replaces the default access token storage which keeps
// the tokens stored in memory.
// The storage is only read by the provider.
func WithAccessTokenStorage(
	storage goidc.AccessTokenManager,
) ProviderOption {
	return func(p *Provider) error {
		p.config.AccessTokenManager = storage
		return nil
	}
}

// WithPathPrefix defines a shared prefix for all endpoints.
//
//	op, err := provider.New(
//		"http://example.com",
//		provider.WithPathPrefix("/auth"),
//	)
//	// The introspection endpoint is now /auth/oidc/introspect.
func WithPathPrefix(prefix string) ProviderOption {
	return func(p *Provider) error {
		p.config.EndpointPrefix = prefix
		return nil
	}
}

// WithIntrospectionEndpoint overrides the default value for the introspection
// endpoint which is [goidc.EndpointIntrospection].
func WithIntrospectionEndpoint(endpoint string) ProviderOption {
	return func(p *Provider) error {
		p.config.EndpointIntrospection = endpoint
		return nil
	}
}

// WithStaticClient adds a static client to the provider.
// Static clients take precedence over the ones in the client storage and are
// never written to it.
func WithStaticClient(client *goidc.Client) ProviderOption {
	return func(p *Provider) error {
		if client == nil {
			return errors.New("the static client must not be nil")
		}
		p.config.StaticClients = append(p.config.StaticClients, client)
		return nil
	}
}

// WithJWKS sets the public keys used to verify access tokens issued as JWTs.
// Signed tokens are looked up by their "jti" claim. The accepted signature
// algorithms default to RS256, PS256 and ES256 and can be overridden with
// algs.
func WithJWKS(
	jwks jose.JSONWebKeySet,
	algs ...jose.SignatureAlgorithm,
) ProviderOption {
	return func(p *Provider) error {
		p.config.JWKS = jwks
		if len(algs) != 0 {
			p.config.JWTSigAlgs = algs
		}
		return nil
	}
}

// WithLogger sets the logger used by the provider. By default nothing is
// logged.
func WithLogger(logger *zap.Logger) ProviderOption {
	return func(p *Provider) error {
		p.config.Logger = logger
		return nil
	}
}

// WithMetrics registers the introspection request counter and duration
// histogram with registerer.
func WithMetrics(registerer prometheus.Registerer) ProviderOption {
	return func(p *Provider) error {
		m, err := metrics.NewIntrospection(registerer)
		if err != nil {
			return err
		}
		p.config.Metrics = m
		return nil
	}
}

// WithTracer replaces the tracer obtained from the global OpenTelemetry
// tracer provider.
func WithTracer(tracer trace.Tracer) ProviderOption {
	return func(p *Provider) error {
		p.config.Tracer = tracer
		return nil
	}
}

// WithMissingCredentialsRejected makes requests without usable client
// credentials fail with 401 invalid_client instead of an inactive response.
// Unknown clients and wrong secrets are still answered with an inactive
// response.
func WithMissingCredentialsRejected() ProviderOption {
	return func(p *Provider) error {
		p.config.MissingCredentialsRejected = true
		return nil
	}
}
