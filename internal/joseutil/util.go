// Package joseutil contains helpers to sign and verify JWTs.
package joseutil

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

var jwsPattern = regexp.MustCompile(`^[\w-]+\.[\w-]+\.[\w-]+$`)

// Sign serializes the claims as a compact JWS signed with jwk. Each element
// of claims is merged into the payload. The "typ" header defaults to "JWT".
func Sign(
	jwk jose.JSONWebKey,
	opts *jose.SignerOptions,
	claims ...any,
) (
	string,
	error,
) {
	if opts == nil {
		opts = &jose.SignerOptions{}
	}
	if _, ok := opts.ExtraHeaders[jose.HeaderType]; !ok {
		opts = opts.WithType("JWT")
	}

	signer, err := jose.NewSigner(
		jose.SigningKey{
			Algorithm: jose.SignatureAlgorithm(jwk.Algorithm),
			Key:       jwk,
		},
		opts,
	)
	if err != nil {
		return "", err
	}

	builder := jwt.Signed(signer)
	for _, c := range claims {
		builder = builder.Claims(c)
	}
	return builder.Serialize()
}

// IsJWS reports whether token has the shape of a compact JWS.
func IsJWS(token string) bool {
	return jwsPattern.MatchString(token)
}

var (
	ErrInvalidSignature = errors.New("the jws signature could not be verified")
	// ErrMalformedJWS is returned when the token cannot be parsed as a JWS
	// signed with one of the accepted algorithms.
	ErrMalformedJWS = errors.New("the token is not a valid jws")
)

// Verify checks the signature of a compact JWS against the public keys in
// jwks and decodes its payload into each of dest. Only the algorithms in algs
// are accepted.
func Verify(
	token string,
	jwks jose.JSONWebKeySet,
	algs []jose.SignatureAlgorithm,
	dest ...any,
) error {
	parsed, err := jwt.ParseSigned(token, algs)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedJWS, err)
	}

	if len(parsed.Headers) != 1 {
		return errors.New("the jws must have exactly one signature")
	}

	for _, key := range PublicSigKeys(jwks, parsed.Headers[0].KeyID) {
		if err := parsed.Claims(key, dest...); err == nil {
			return nil
		}
	}

	return ErrInvalidSignature
}

// PublicSigKeys returns the public version of the signing keys matching kid,
// or of every signing key when kid is empty.
func PublicSigKeys(
	jwks jose.JSONWebKeySet,
	kid string,
) []jose.JSONWebKey {
	keys := jwks.Keys
	if kid != "" {
		keys = jwks.Key(kid)
	}

	var public []jose.JSONWebKey
	for _, key := range keys {
		if key.Use != "" && key.Use != "sig" {
			continue
		}

		publicKey := key.Public()
		if !publicKey.Valid() {
			continue
		}
		public = append(public, publicKey)
	}
	return public
}
