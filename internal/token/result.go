package token

import (
	"github.com/luikyv/go-introspect/pkg/goidc"
)

// result is the outcome of an introspection request. It is one of
// [activeResult], [inactiveResult], [clientErrorResult] or [faultResult].
type result interface {
	outcome() string
}

type activeResult struct {
	resp goidc.IntrospectionResponse
}

func (activeResult) outcome() string {
	return "active"
}

// inactiveResult carries why the token was reported inactive. The reason is
// used for logs and metrics only and never reaches the response.
type inactiveResult struct {
	reason   inactiveReason
	clientID string
	cause    error
}

func (r inactiveResult) outcome() string {
	return r.reason.String()
}

type clientErrorResult struct {
	err goidc.Error
}

func (clientErrorResult) outcome() string {
	return "client_error"
}

type faultResult struct {
	err error
}

func (faultResult) outcome() string {
	return "fault"
}

type inactiveReason int

const (
	reasonMalformedCredentials inactiveReason = iota + 1
	reasonUnauthorizedClient
	reasonMissingToken
	reasonTokenNotFound
)

func (r inactiveReason) String() string {
	switch r {
	case reasonMalformedCredentials:
		return "malformed_credentials"
	case reasonUnauthorizedClient:
		return "unauthorized_client"
	case reasonMissingToken:
		return "missing_token"
	case reasonTokenNotFound:
		return "token_not_found"
	default:
		return "unknown"
	}
}
