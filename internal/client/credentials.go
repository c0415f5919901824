package client

import (
	"net/http"
)

// Credentials are the client id and secret informed by a client.
type Credentials struct {
	ID     string
	Secret string
}

// ExtractCredentials reads the client credentials from the HTTP Basic
// Authorization header. ok is false if the header is missing or malformed or
// if it doesn't carry a client id. Failing to extract credentials is an
// expected outcome, not an error.
func ExtractCredentials(r *http.Request) (creds Credentials, ok bool) {
	id, secret, ok := r.BasicAuth()
	if !ok || id == "" {
		return Credentials{}, false
	}

	return Credentials{ID: id, Secret: secret}, true
}
