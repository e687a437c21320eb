package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// CredentialCache remembers API credentials that already passed a bcrypt
// comparison. Entries map a credential digest to the key hash it was checked
// against, so a rotated key invalidates its entries without explicit eviction.
type CredentialCache interface {
	// Get returns the stored key hash for digest, if any.
	Get(ctx context.Context, digest string) (keyHash string, found bool, err error)
	// Set stores keyHash for digest for ttl.
	Set(ctx context.Context, digest, keyHash string, ttl time.Duration) error
	// Delete drops digest.
	Delete(ctx context.Context, digest string) error
	// Name identifies the backend in logs and health output.
	Name() string
	Close() error
}

// CredentialDigest derives the cache key for an email/key pair. The clear
// key never leaves the process.
func CredentialDigest(email, apiKey string) string {
	h := sha256.New()
	h.Write([]byte(email))
	h.Write([]byte{0})
	h.Write([]byte(apiKey))
	return hex.EncodeToString(h.Sum(nil))
}
