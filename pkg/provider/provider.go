package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-jose/go-jose/v4"
	"github.com/luikyv/go-introspect/internal/discovery"
	"github.com/luikyv/go-introspect/internal/oidc"
	"github.com/luikyv/go-introspect/internal/storage"
	"github.com/luikyv/go-introspect/internal/token"
	"github.com/luikyv/go-introspect/pkg/goidc"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

type Provider struct {
	config *oidc.Configuration
}

// New creates a new introspection provider for the authorization server
// identified by issuer.
// By default, clients and access tokens are stored in memory and every token
// is treated as opaque.
func New(
	issuer string,
	opts ...ProviderOption,
) (
	*Provider,
	error,
) {
	p := &Provider{
		config: &oidc.Configuration{
			Issuer: issuer,
		},
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	p.setDefaults()

	if err := p.validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// Handler returns an HTTP handler serving the introspection endpoint and the
// authorization server metadata describing it.
// This may be used to add the introspection logic to an existing HTTP server.
//
//	server := http.NewServeMux()
//	server.Handle("/", op.Handler())
func (p *Provider) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(goidc.CacheControlMiddleware)

	discovery.RegisterHandlers(router, p.config)
	token.RegisterHandlers(router, p.config)

	return router
}

// Client is a shortcut to fetch clients using the client storage.
func (p *Provider) Client(
	ctx context.Context,
	id string,
) (
	*goidc.Client,
	error,
) {
	for _, staticClient := range p.config.StaticClients {
		if staticClient.ID == id {
			return staticClient, nil
		}
	}

	return p.config.ClientManager.Client(ctx, id)
}

func (p *Provider) setDefaults() {
	p.config.ClientManager = nonNilOrDefault(
		p.config.ClientManager,
		goidc.ClientManager(storage.NewClientManager()),
	)
	p.config.AccessTokenManager = nonNilOrDefault(
		p.config.AccessTokenManager,
		goidc.AccessTokenManager(storage.NewAccessTokenManager()),
	)
	p.config.EndpointIntrospection = nonEmptyOrDefault(
		p.config.EndpointIntrospection,
		goidc.EndpointIntrospection,
	)
	p.config.Logger = nonNilOrDefault(
		p.config.Logger,
		zap.NewNop(),
	)
	if p.config.Tracer == nil {
		p.config.Tracer = otel.Tracer(tracerName)
	}

	if len(p.config.JWKS.Keys) != 0 {
		p.config.JWTSigAlgs = nonNilOrDefault(
			p.config.JWTSigAlgs,
			defaultJWTSigAlgs,
		)
	}
}

func (p *Provider) validate() error {
	return runValidations(
		*p.config,
		validateIssuer,
		validateEndpoints,
		validateJWKS,
		validateStaticClients,
	)
}

func runValidations(
	config oidc.Configuration,
	validators ...func(oidc.Configuration) error,
) error {
	for _, validator := range validators {
		if err := validator(config); err != nil {
			return err
		}
	}
	return nil
}

func validateIssuer(config oidc.Configuration) error {
	u, err := url.Parse(config.Issuer)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("the issuer %q must be an absolute url", config.Issuer)
	}
	return nil
}

func validateEndpoints(config oidc.Configuration) error {
	if config.EndpointPrefix != "" && !strings.HasPrefix(config.EndpointPrefix, "/") {
		return errors.New("the path prefix must start with '/'")
	}

	if strings.HasSuffix(config.EndpointPrefix, "/") {
		return errors.New("the path prefix must not end with '/'")
	}

	if !strings.HasPrefix(config.EndpointIntrospection, "/") {
		return errors.New("the introspection endpoint must start with '/'")
	}

	return nil
}

func validateJWKS(config oidc.Configuration) error {
	for _, key := range config.JWKS.Keys {
		if !key.IsPublic() {
			return fmt.Errorf("the key %s in the jwks must be public", key.KeyID)
		}

		if !key.Valid() {
			return fmt.Errorf("the key %s in the jwks is invalid", key.KeyID)
		}

		if key.Use != "" && key.Use != "sig" {
			return fmt.Errorf("the key %s in the jwks must be used for signing", key.KeyID)
		}
	}

	for _, alg := range config.JWTSigAlgs {
		if alg == jose.SignatureAlgorithm("none") || strings.HasPrefix(string(alg), "HS") {
			return fmt.Errorf("the signature algorithm %s is not allowed for access tokens", alg)
		}
	}

	return nil
}

func validateStaticClients(config oidc.Configuration) error {
	ids := make(map[string]struct{}, len(config.StaticClients))
	for _, client := range config.StaticClients {
		if client.ID == "" {
			return errors.New("static clients must have an id")
		}

		if _, ok := ids[client.ID]; ok {
			return fmt.Errorf("the static client %s is declared more than once", client.ID)
		}
		ids[client.ID] = struct{}{}
	}
	return nil
}

func nonEmptyOrDefault[T any](s1 T, s2 T) T {
	if reflect.ValueOf(s1).String() == "" {
		return s2
	}

	return s1
}

func nonNilOrDefault[T any](s1 T, s2 T) T {
	if v := reflect.ValueOf(s1); !v.IsValid() || v.IsNil() {
		return s2
	}

	return s1
}
