package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// secretBytes is the entropy of every token, session id and API key.
const secretBytes = 32

// newSecret returns a random hex string and the digest that is stored in
// its place. Only the digest reaches the database.
func newSecret(prefix string) (raw, digest string, err error) {
	b := make([]byte, secretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("reading random bytes: %w", err)
	}
	raw = prefix + hex.EncodeToString(b)
	return raw, digestOf(raw), nil
}

func digestOf(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}
