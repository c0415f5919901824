package provider

import (
	"github.com/go-jose/go-jose/v4"
)

const tracerName = "github.com/luikyv/go-introspect"

var defaultJWTSigAlgs = []jose.SignatureAlgorithm{jose.RS256, jose.PS256, jose.ES256}
