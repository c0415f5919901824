package token

import (
	"strings"

	"github.com/luikyv/go-introspect/internal/timeutil"
	"github.com/luikyv/go-introspect/pkg/goidc"
)

// newIntrospectionResponse maps an active token and the client that
// introspected it to the response body.
//
// "exp" holds the token lifetime in seconds rather than an expiry instant and
// "scope" is always openid, regardless of the scopes granted to the token.
func newIntrospectionResponse(
	token *goidc.AccessToken,
	client *goidc.Client,
	issuer string,
) goidc.IntrospectionResponse {
	return goidc.IntrospectionResponse{
		Active:             true,
		ClientID:           client.ID,
		Subject:            token.Subject,
		UniqueSecurityName: token.Subject,
		Expiry:             token.LifetimeSecs,
		IssuedAt:           timeutil.TimestampMillis(token.CreatedAt),
		RealmName:          strings.Join(token.AuthMethods, ","),
		TokenType:          goidc.TokenTypeBearer,
		GrantType:          strings.ToLower(token.GrantType),
		Scope:              goidc.ScopeOpenID,
		Audience:           client.ServiceID,
		Issuer:             issuer,
	}
}
