// Package oidctest contains fixtures shared by the tests of the internal
// packages.
package oidctest

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/luikyv/go-introspect/internal/oidc"
	"github.com/luikyv/go-introspect/internal/storage"
	"github.com/luikyv/go-introspect/pkg/goidc"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

const (
	Issuer          string = "https://example.com"
	ClientID        string = "svc1"
	ClientSecret    string = "s3cr3t"
	ClientServiceID string = "https://svc1.example.com"
)

// NewClient returns a usable client whose secret is [ClientSecret].
func NewClient(t *testing.T) *goidc.Client {
	t.Helper()

	hashedSecret, err := bcrypt.GenerateFromPassword([]byte(ClientSecret), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("could not hash the client secret: %v", err)
	}

	return &goidc.Client{
		ID:           ClientID,
		HashedSecret: string(hashedSecret),
		ServiceID:    ClientServiceID,
	}
}

// NewAccessToken returns a token issued for [ClientID] one minute ago with a
// two hours lifetime.
func NewAccessToken(_ *testing.T, id string) *goidc.AccessToken {
	return &goidc.AccessToken{
		ID:           id,
		Subject:      "alice",
		ClientID:     ClientID,
		GrantType:    "authorization_code",
		AuthMethods:  []string{"password"},
		CreatedAt:    time.Now().Add(-time.Minute).Truncate(time.Millisecond),
		LifetimeSecs: 7200,
	}
}

func NewContext(t *testing.T) oidc.Context {
	t.Helper()

	config := &oidc.Configuration{
		ClientManager:         storage.NewClientManager(),
		AccessTokenManager:    storage.NewAccessTokenManager(),
		Issuer:                Issuer,
		EndpointIntrospection: goidc.EndpointIntrospection,
		Logger:                zaptest.NewLogger(t),
		Tracer:                noop.NewTracerProvider().Tracer("oidctest"),
	}

	return oidc.NewContext(
		httptest.NewRecorder(),
		httptest.NewRequest(http.MethodPost, goidc.EndpointIntrospection, nil),
		config,
	)
}

// Recorder returns the response recorder behind ctx.
func Recorder(t *testing.T, ctx oidc.Context) *httptest.ResponseRecorder {
	t.Helper()

	recorder, ok := ctx.Response.(*httptest.ResponseRecorder)
	if !ok {
		t.Fatal("the context response is not a recorder")
	}
	return recorder
}
