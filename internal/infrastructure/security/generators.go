// Package security provides secure random generation utilities
package security

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/oklog/ulid/v2"
)

// GenerateULID generates a new ULID string. Used for widget instance
// and session identifiers.
func GenerateULID() string {
	return ulid.Make().String()
}

func randomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to read secure random bytes: %w", err)
	}
	return buf, nil
}

// GenerateSecureToken returns a URL-safe random token of the given byte
// length. Used for tenant activation links.
func GenerateSecureToken(length int) (string, error) {
	buf, err := randomBytes(length)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(buf), nil
}

// GenerateSecureKey returns a random key as a hex string of the given
// character length. Used for per-tenant JWT secrets.
func GenerateSecureKey(length int) (string, error) {
	buf, err := randomBytes(length / 2)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
