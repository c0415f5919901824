package client

import (
	"errors"
	"fmt"
	"sync"

	"github.com/luikyv/go-introspect/internal/oidc"
	"github.com/luikyv/go-introspect/pkg/goidc"
	"golang.org/x/crypto/bcrypt"
)

// ErrAuthentication is wrapped by every error caused by the credentials
// themselves. Errors not wrapping it come from the client directory.
var ErrAuthentication = errors.New("client authentication failed")

var (
	ErrUnknownClient = fmt.Errorf("%w: unknown client", ErrAuthentication)
	ErrInvalidClient = fmt.Errorf("%w: client is disabled or misconfigured", ErrAuthentication)
	ErrBadSecret     = fmt.Errorf("%w: invalid secret", ErrAuthentication)
)

// dummyHash is compared against the secret of unknown clients so they take
// as long to reject as known ones.
var dummyHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("introspection"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return hash
})

// Authenticate resolves the client identified by the credentials and verifies
// its secret.
func Authenticate(
	ctx oidc.Context,
	creds Credentials,
) (
	*goidc.Client,
	error,
) {
	c, err := ctx.Client(creds.ID)
	if err != nil {
		if errors.Is(err, goidc.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(creds.Secret))
			return nil, ErrUnknownClient
		}
		return nil, fmt.Errorf("could not load the client %s: %w", creds.ID, err)
	}

	if !c.IsUsable() {
		return nil, ErrInvalidClient
	}

	if err := validateSecret(c, creds.Secret); err != nil {
		return nil, err
	}

	return c, nil
}

func validateSecret(
	c *goidc.Client,
	secret string,
) error {
	err := bcrypt.CompareHashAndPassword([]byte(c.HashedSecret), []byte(secret))
	if err == nil {
		return nil
	}

	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrBadSecret
	}

	// The stored hash itself is unusable.
	return ErrInvalidClient
}
