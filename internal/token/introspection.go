package token

import (
	"errors"

	"github.com/luikyv/go-introspect/internal/client"
	"github.com/luikyv/go-introspect/internal/oidc"
	"github.com/luikyv/go-introspect/pkg/goidc"
)

func introspect(ctx oidc.Context) result {
	creds, ok := client.ExtractCredentials(ctx.Request)
	if !ok {
		if ctx.MissingCredentialsRejected {
			return clientErrorResult{
				err: goidc.NewError(goidc.ErrorCodeInvalidClient, "client credentials are required"),
			}
		}
		return inactiveResult{reason: reasonMalformedCredentials}
	}

	c, err := client.Authenticate(ctx, creds)
	if err != nil {
		if errors.Is(err, client.ErrAuthentication) {
			return inactiveResult{reason: reasonUnauthorizedClient, clientID: creds.ID, cause: err}
		}
		return faultResult{err: err}
	}

	value := tokenParam(ctx)
	if value == "" {
		return inactiveResult{reason: reasonMissingToken, clientID: c.ID}
	}

	token, err := resolve(ctx, value)
	if err != nil {
		if errors.Is(err, errTokenNotFound) {
			return inactiveResult{reason: reasonTokenNotFound, clientID: c.ID}
		}
		return faultResult{err: err}
	}

	return activeResult{resp: newIntrospectionResponse(token, c, ctx.Issuer)}
}

func tokenParam(ctx oidc.Context) string {
	if token := ctx.FormParam(goidc.ParamToken); token != "" {
		return token
	}
	return ctx.FormParam(goidc.ParamAccessToken)
}
