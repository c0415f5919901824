package token

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/luikyv/go-introspect/internal/client"
	"github.com/luikyv/go-introspect/internal/joseutil"
	"github.com/luikyv/go-introspect/internal/metrics"
	"github.com/luikyv/go-introspect/internal/oidc"
	"github.com/luikyv/go-introspect/internal/oidctest"
	"github.com/luikyv/go-introspect/pkg/goidc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inactiveBody = `{"active":false}`

func TestIntrospection_ActiveToken(t *testing.T) {
	// Given.
	config, token := setUpIntrospection(t)

	// When.
	resp := doIntrospection(t, config, http.MethodPost, validCreds(), url.Values{"token": {token.ID}})

	// Then.
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "application/json", resp.Header().Get("Content-Type"))
	want := fmt.Sprintf(`{
		"active": true,
		"client_id": "svc1",
		"sub": "alice",
		"unique_security_name": "alice",
		"exp": 7200,
		"iat": %d,
		"realm_name": "password",
		"token_type": "Bearer",
		"grant_type": "authorization_code",
		"scope": "openid",
		"aud": "https://svc1.example.com",
		"iss": "https://example.com"
	}`, token.CreatedAt.UnixMilli())
	assert.JSONEq(t, want, resp.Body.String())
}

func TestIntrospection_GETAndPOSTAreEquivalent(t *testing.T) {
	// Given.
	config, token := setUpIntrospection(t)
	params := url.Values{"token": {token.ID}}

	// When.
	getResp := doIntrospection(t, config, http.MethodGet, validCreds(), params)
	postResp := doIntrospection(t, config, http.MethodPost, validCreds(), params)

	// Then.
	assert.Equal(t, http.StatusOK, getResp.Code)
	assert.Equal(t, postResp.Code, getResp.Code)
	assert.JSONEq(t, postResp.Body.String(), getResp.Body.String())
}

func TestIntrospection_IsIdempotent(t *testing.T) {
	// Given.
	config, token := setUpIntrospection(t)
	params := url.Values{"token": {token.ID}}

	// When.
	first := doIntrospection(t, config, http.MethodPost, validCreds(), params)
	second := doIntrospection(t, config, http.MethodPost, validCreds(), params)

	// Then.
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestIntrospection_AccessTokenParamFallback(t *testing.T) {
	// Given.
	config, token := setUpIntrospection(t)

	// When.
	resp := doIntrospection(t, config, http.MethodPost, validCreds(), url.Values{"access_token": {token.ID}})

	// Then.
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"active":true`)
}

func TestIntrospection_InactiveOutcomes(t *testing.T) {
	testCases := []struct {
		name   string
		creds  *client.Credentials
		params url.Values
	}{
		{
			name:   "unknown token",
			creds:  validCreds(),
			params: url.Values{"token": {"tok-unknown"}},
		},
		{
			name:   "expired token",
			creds:  validCreds(),
			params: url.Values{"token": {"tok-expired"}},
		},
		{
			name:   "wrong secret",
			creds:  &client.Credentials{ID: oidctest.ClientID, Secret: "wrong"},
			params: url.Values{"token": {"tok-abc123"}},
		},
		{
			name:   "unknown client",
			creds:  &client.Credentials{ID: "svc2", Secret: oidctest.ClientSecret},
			params: url.Values{"token": {"tok-abc123"}},
		},
		{
			name:   "missing token parameter",
			creds:  validCreds(),
			params: url.Values{},
		},
		{
			name:   "missing credentials",
			creds:  nil,
			params: url.Values{"token": {"tok-abc123"}},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			// Given.
			config, _ := setUpIntrospection(t)

			// When.
			resp := doIntrospection(t, config, http.MethodPost, testCase.creds, testCase.params)

			// Then.
			assert.Equal(t, http.StatusOK, resp.Code)
			assert.JSONEq(t, inactiveBody, resp.Body.String())
			assert.Empty(t, resp.Header().Get("WWW-Authenticate"))
		})
	}
}

func TestIntrospection_DisabledClient(t *testing.T) {
	// Given.
	config, _ := setUpIntrospection(t)
	c, err := config.ClientManager.Client(context.Background(), oidctest.ClientID)
	require.NoError(t, err)
	c.Disabled = true

	// When.
	resp := doIntrospection(t, config, http.MethodPost, validCreds(), url.Values{"token": {"tok-abc123"}})

	// Then.
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, inactiveBody, resp.Body.String())
}

func TestIntrospection_MissingCredentialsRejected(t *testing.T) {
	// Given.
	config, _ := setUpIntrospection(t)
	config.MissingCredentialsRejected = true

	// When.
	resp := doIntrospection(t, config, http.MethodPost, nil, url.Values{"token": {"tok-abc123"}})

	// Then.
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.NotEmpty(t, resp.Header().Get("WWW-Authenticate"))
	assert.JSONEq(t, `{"error":"invalid_client","error_description":"client credentials are required"}`, resp.Body.String())

	// A wrong secret must still not be distinguishable.
	resp = doIntrospection(t, config, http.MethodPost, &client.Credentials{ID: oidctest.ClientID, Secret: "wrong"}, url.Values{"token": {"tok-abc123"}})
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, inactiveBody, resp.Body.String())
}

func TestIntrospection_StoreFailure(t *testing.T) {
	// Given.
	config, _ := setUpIntrospection(t)
	config.AccessTokenManager = failingTokenManager{err: errors.New("connection refused")}

	// When.
	resp := doIntrospection(t, config, http.MethodPost, validCreds(), url.Values{"token": {"tok-abc123"}})

	// Then.
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Empty(t, resp.Body.String())
}

func TestIntrospection_DirectoryFailure(t *testing.T) {
	// Given.
	config, _ := setUpIntrospection(t)
	config.ClientManager = failingClientManager{err: errors.New("connection refused")}

	// When.
	resp := doIntrospection(t, config, http.MethodPost, validCreds(), url.Values{"token": {"tok-abc123"}})

	// Then.
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Empty(t, resp.Body.String())
}

func TestIntrospection_JWTAccessToken(t *testing.T) {
	// Given.
	config, token := setUpIntrospection(t)
	jwk := newSigningJWK(t, "key1")
	config.JWKS = jose.JSONWebKeySet{Keys: []jose.JSONWebKey{jwk.Public()}}
	config.JWTSigAlgs = []jose.SignatureAlgorithm{jose.RS256}

	signed := signJWT(t, jwk, jwt.Claims{ID: token.ID})

	// When.
	resp := doIntrospection(t, config, http.MethodPost, validCreds(), url.Values{"token": {signed}})

	// Then.
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"sub":"alice"`)
}

func TestIntrospection_JWTAccessTokenWithUnknownKey(t *testing.T) {
	// Given.
	config, token := setUpIntrospection(t)
	trusted := newSigningJWK(t, "key1")
	config.JWKS = jose.JSONWebKeySet{Keys: []jose.JSONWebKey{trusted.Public()}}
	config.JWTSigAlgs = []jose.SignatureAlgorithm{jose.RS256}

	signed := signJWT(t, newSigningJWK(t, "key1"), jwt.Claims{ID: token.ID})

	// When.
	resp := doIntrospection(t, config, http.MethodPost, validCreds(), url.Values{"token": {signed}})

	// Then.
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, inactiveBody, resp.Body.String())
}

func TestIntrospection_JWTWithoutID(t *testing.T) {
	// Given.
	config, _ := setUpIntrospection(t)
	jwk := newSigningJWK(t, "key1")
	config.JWKS = jose.JSONWebKeySet{Keys: []jose.JSONWebKey{jwk.Public()}}
	config.JWTSigAlgs = []jose.SignatureAlgorithm{jose.RS256}

	signed := signJWT(t, jwk, jwt.Claims{Subject: "alice"})

	// When.
	resp := doIntrospection(t, config, http.MethodPost, validCreds(), url.Values{"token": {signed}})

	// Then.
	assert.JSONEq(t, inactiveBody, resp.Body.String())
}

func TestIntrospection_RecordsOutcomeMetrics(t *testing.T) {
	// Given.
	config, token := setUpIntrospection(t)
	registry := prometheus.NewRegistry()
	m, err := metrics.NewIntrospection(registry)
	require.NoError(t, err)
	config.Metrics = m

	// When.
	doIntrospection(t, config, http.MethodPost, validCreds(), url.Values{"token": {token.ID}})
	doIntrospection(t, config, http.MethodPost, validCreds(), url.Values{"token": {"tok-unknown"}})
	doIntrospection(t, config, http.MethodPost, validCreds(), url.Values{"token": {"tok-unknown"}})

	// Then.
	want := `
# HELP introspect_requests_total Total number of token introspection requests by outcome
# TYPE introspect_requests_total counter
introspect_requests_total{outcome="active"} 1
introspect_requests_total{outcome="token_not_found"} 2
`
	if err := testutil.GatherAndCompare(registry, strings.NewReader(want), "introspect_requests_total"); err != nil {
		t.Error(err)
	}
}

func TestIntrospect_InactiveReasons(t *testing.T) {
	testCases := []struct {
		name       string
		setUp      func(r *http.Request)
		wantReason inactiveReason
	}{
		{
			name:       "no credentials",
			setUp:      func(r *http.Request) {},
			wantReason: reasonMalformedCredentials,
		},
		{
			name: "bad secret",
			setUp: func(r *http.Request) {
				r.SetBasicAuth(oidctest.ClientID, "wrong")
			},
			wantReason: reasonUnauthorizedClient,
		},
		{
			name: "no token",
			setUp: func(r *http.Request) {
				r.SetBasicAuth(oidctest.ClientID, oidctest.ClientSecret)
			},
			wantReason: reasonMissingToken,
		},
		{
			name: "unknown token",
			setUp: func(r *http.Request) {
				r.SetBasicAuth(oidctest.ClientID, oidctest.ClientSecret)
				r.URL.RawQuery = "token=tok-unknown"
			},
			wantReason: reasonTokenNotFound,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			// Given.
			config, _ := setUpIntrospection(t)
			req := httptest.NewRequest(http.MethodGet, goidc.EndpointIntrospection, nil)
			testCase.setUp(req)
			ctx := oidc.NewContext(httptest.NewRecorder(), req, config)

			// When.
			res := introspect(ctx)

			// Then.
			inactive, ok := res.(inactiveResult)
			require.True(t, ok, "got %T, want inactiveResult", res)
			assert.Equal(t, testCase.wantReason, inactive.reason)
		})
	}
}

func setUpIntrospection(t *testing.T) (*oidc.Configuration, *goidc.AccessToken) {
	t.Helper()

	ctx := oidctest.NewContext(t)
	require.NoError(t, ctx.ClientManager.Save(context.Background(), oidctest.NewClient(t)))

	token := oidctest.NewAccessToken(t, "tok-abc123")
	require.NoError(t, ctx.AccessTokenManager.Save(context.Background(), token))

	expired := oidctest.NewAccessToken(t, "tok-expired")
	expired.CreatedAt = time.Now().Add(-3 * time.Hour)
	require.NoError(t, ctx.AccessTokenManager.Save(context.Background(), expired))

	return ctx.Configuration, token
}

func validCreds() *client.Credentials {
	return &client.Credentials{ID: oidctest.ClientID, Secret: oidctest.ClientSecret}
}

func doIntrospection(
	t *testing.T,
	config *oidc.Configuration,
	method string,
	creds *client.Credentials,
	params url.Values,
) *httptest.ResponseRecorder {
	t.Helper()

	router := chi.NewRouter()
	RegisterHandlers(router, config)

	var req *http.Request
	if method == http.MethodGet {
		req = httptest.NewRequest(method, goidc.EndpointIntrospection+"?"+params.Encode(), nil)
	} else {
		req = httptest.NewRequest(method, goidc.EndpointIntrospection, strings.NewReader(params.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	if creds != nil {
		req.SetBasicAuth(creds.ID, creds.Secret)
	}

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func newSigningJWK(t *testing.T, kid string) jose.JSONWebKey {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return jose.JSONWebKey{
		Key:       key,
		KeyID:     kid,
		Algorithm: string(jose.RS256),
		Use:       "sig",
	}
}

func signJWT(t *testing.T, jwk jose.JSONWebKey, claims jwt.Claims) string {
	t.Helper()

	signed, err := joseutil.Sign(jwk, (&jose.SignerOptions{}).WithType("at+jwt"), claims)
	require.NoError(t, err)
	return signed
}

type failingTokenManager struct {
	goidc.AccessTokenManager
	err error
}

func (m failingTokenManager) AccessToken(context.Context, string) (*goidc.AccessToken, error) {
	return nil, m.err
}

type failingClientManager struct {
	goidc.ClientManager
	err error
}

func (m failingClientManager) Client(context.Context, string) (*goidc.Client, error) {
	return nil, m.err
}
