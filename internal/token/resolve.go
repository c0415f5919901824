package token

import (
	"errors"
	"fmt"

	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/luikyv/go-introspect/internal/joseutil"
	"github.com/luikyv/go-introspect/internal/oidc"
	"github.com/luikyv/go-introspect/pkg/goidc"
	"go.uber.org/zap"
)

// errTokenNotFound covers tokens that never existed, expired tokens and JWTs
// that could not be verified. They must not be told apart.
var errTokenNotFound = errors.New("token not found")

// resolve looks up the token informed by the client. Signed tokens are
// verified against the provider JWKS and looked up by their "jti" claim.
// Values that only look like a JWS but can't be parsed as one are looked up
// as opaque tokens.
func resolve(
	ctx oidc.Context,
	value string,
) (
	*goidc.AccessToken,
	error,
) {
	id := value
	if len(ctx.JWKS.Keys) != 0 && joseutil.IsJWS(value) {
		jti, err := jwtID(ctx, value)
		switch {
		case err == nil:
			id = jti
		case errors.Is(err, joseutil.ErrMalformedJWS):
			ctx.Log().Debug("the token is not a jws, looking it up as opaque", zap.Error(err))
		default:
			ctx.Log().Debug("the jwt access token could not be verified", zap.Error(err))
			return nil, errTokenNotFound
		}
	}

	token, err := ctx.AccessToken(id)
	if err != nil {
		if errors.Is(err, goidc.ErrNotFound) {
			return nil, errTokenNotFound
		}
		return nil, fmt.Errorf("could not load the access token: %w", err)
	}

	return token, nil
}

// jwtID verifies the signature of a JWT access token and returns its "jti".
func jwtID(
	ctx oidc.Context,
	value string,
) (
	string,
	error,
) {
	var claims jwt.Claims
	if err := joseutil.Verify(value, ctx.JWKS, ctx.JWTSigAlgs, &claims); err != nil {
		return "", err
	}

	if claims.ID == "" {
		return "", errors.New("the jwt access token has no jti claim")
	}
	return claims.ID, nil
}
