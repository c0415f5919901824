package hashutil

import (
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// Thumbprint generates a base64 URL-encoded SHA-256 hash (thumbprint) of a
// given string.
func Thumbprint(s string) string {
	hash := sha256.New()
	hash.Write([]byte(s))
	return base64.RawURLEncoding.EncodeToString(hash.Sum(nil))
}

func BCryptHash(s string) (string, error) {
	hashedS, err := bcrypt.GenerateFromPassword(
		[]byte(s),
		bcrypt.DefaultCost,
	)
	if err != nil {
		return "", err
	}
	return string(hashedS), nil
}
