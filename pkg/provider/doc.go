// Package provider implements a customizable OAuth 2.0 token introspection
// endpoint.
//
// A new provider can be configured with [ProviderOption]s and instantiated
// using [New]. By default clients and access tokens are stored in memory.
//
// It is highly recommended to change the default storage with implementations
// of [goidc.ClientManager] and [goidc.AccessTokenManager] backed by a
// database. See [WithClientStorage] and [WithAccessTokenStorage].
package provider
