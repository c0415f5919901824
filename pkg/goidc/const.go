package goidc

type TokenType string

const (
	TokenTypeBearer TokenType = "Bearer"
)

const (
	ScopeOpenID string = "openid"
)

const (
	EndpointIntrospection string = "/oidc/introspect"
)

const (
	HeaderWWWAuthenticate string = "WWW-Authenticate"
	HeaderCacheControl    string = "Cache-Control"
	HeaderPragma          string = "Pragma"
	HeaderContentType     string = "Content-Type"
)

const (
	ContentTypeJSON string = "application/json"
)

const (
	ParamToken string = "token"
	// ParamAccessToken is accepted as a fallback for [ParamToken].
	ParamAccessToken string = "access_token"
)

const (
	EndpointWellKnown string = "/.well-known/oauth-authorization-server"
)

const (
	ClientAuthnSecretBasic string = "client_secret_basic"
)
