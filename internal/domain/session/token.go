package session

import (
	"crypto/rand"
	"crypto/sha3"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
)

// refreshTokenBytes is the refresh token entropy (256 bits)
const refreshTokenBytes = 32

// NewRefreshToken returns a fresh opaque refresh token
func NewRefreshToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// newSessionToken returns the opaque identifier carried in the access token sid claim
func newSessionToken() string {
	return uuid.NewString()
}

// hashRefreshToken hashes the refresh token using SHA-3-256.
// Only the hash is persisted.
func hashRefreshToken(token string) string {
	h := sha3.Sum256([]byte(token))
	return base64.RawStdEncoding.EncodeToString(h[:])
}
