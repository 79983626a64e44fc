package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// KeySize is the number of random bytes behind a generated master key.
const KeySize = 32

// RandomString returns n random bytes, base64url encoded without padding.
func RandomString(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("cryptox: size must be positive, got %d", n)
	}

	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ShortFingerprint identifies a token in logs without revealing it: the
// first 12 characters of its base64url SHA-256. Empty tokens yield "".
func ShortFingerprint(token string) string {
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])[:12]
}
