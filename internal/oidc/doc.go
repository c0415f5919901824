// Package oidc holds the provider configuration and the per request context
// shared by the endpoint implementations. It is not meant to be accessible to
// users of goidc.
package oidc
