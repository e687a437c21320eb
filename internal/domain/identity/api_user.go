// Package identity holds the API users allowed to call the print endpoint.
package identity

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"github.com/printapi/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost   = bcrypt.DefaultCost
	apiKeyBytes  = 24
	maxEmailSize = 255
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// APIUser is a caller identified by an email and an API key.
// Only a bcrypt hash of the key is kept.
type APIUser struct {
	ID         int64
	Email      string
	APIKeyHash string
	UsageCount int64 // PDFs delivered to this user
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewAPIUser creates a user and returns the clear API key, which is never stored.
func NewAPIUser(email string) (*APIUser, string, error) {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, "", err
	}

	now := time.Now()
	user := &APIUser{
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	key, err := user.RotateKey()
	if err != nil {
		return nil, "", err
	}
	return user, key, nil
}

// RotateKey replaces the API key and returns the new clear value.
func (u *APIUser) RotateKey() (string, error) {
	key, err := generateAPIKey()
	if err != nil {
		return "", shared.NewDomainError("API_KEY_GENERATION_ERROR", "Failed to generate API key")
	}
	if err := u.SetAPIKey(key); err != nil {
		return "", err
	}
	return key, nil
}

// SetAPIKey stores the hash of an externally chosen key.
func (u *APIUser) SetAPIKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return shared.NewDomainError("INVALID_API_KEY", "API key cannot be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcryptCost)
	if err != nil {
		return shared.NewDomainError("API_KEY_HASH_ERROR", "Failed to hash API key")
	}
	u.APIKeyHash = string(hash)
	u.UpdatedAt = time.Now()
	return nil
}

// VerifyAPIKey reports whether key matches the stored hash.
func (u *APIUser) VerifyAPIKey(key string) bool {
	if u.APIKeyHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.APIKeyHash), []byte(key)) == nil
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if len(email) > maxEmailSize {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 255 characters")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}

func generateAPIKey() (string, error) {
	b := make([]byte, apiKeyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
