package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/btcsuite/btcutil/base58"
)

const (
	// DefaultSessionCookieName carries the session handle when no name is configured.
	DefaultSessionCookieName = "authgate.session"

	// DefaultSessionTTL is the session lifetime when none is configured.
	DefaultSessionTTL = 30 * time.Minute

	// SessionIDLength is the number of random bytes behind a session handle.
	SessionIDLength = 32
)

// GenerateSessionID returns a new opaque session handle (base58 of 32 random
// bytes) together with the hash stores key it by.
func GenerateSessionID() (id string, idHash string, err error) {
	b := make([]byte, SessionIDLength)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("generate random session id: %w", err)
	}
	id = base58.Encode(b)
	return id, HashSessionID(id), nil
}

// HashSessionID hashes a session handle for storage and lookup.
// Returns SHA256 hex hash.
func HashSessionID(id string) string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])
}

// IsSessionExpired reports whether expiresAt is at or before now.
func IsSessionExpired(expiresAt, now time.Time) bool {
	return !now.Before(expiresAt)
}
