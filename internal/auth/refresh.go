package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// GenerateRefreshToken returns a 40-byte random token encoded as hex and
// its SHA-256 hash (also hex). Only the hash is persisted.
func GenerateRefreshToken() (token string, hashHex string, err error) {
	b := make([]byte, 40)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("generate refresh token: %w", err)
	}
	token = hex.EncodeToString(b)
	return token, HashToken(token), nil
}

// HashToken returns SHA-256 hex of an opaque credential string.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// GenerateAPIKey returns a long-lived API key ("ak_" + 24 random bytes as
// hex) and its SHA-256 hash. The plaintext is shown exactly once.
func GenerateAPIKey() (key string, hashHex string, err error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("generate api key: %w", err)
	}
	key = "ak_" + hex.EncodeToString(b)
	return key, HashToken(key), nil
}
