package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// NewSigningToken returns a random URL-safe token and the hash to persist.
func NewSigningToken() (token string, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate signing token: %w", err)
	}

	token = hex.EncodeToString(buf)
	return token, HashSigningToken(token), nil
}

func HashSigningToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
