package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/printapi/backend/internal/domain/identity"
	"github.com/printapi/backend/internal/domain/shared"
	"github.com/printapi/backend/internal/infrastructure/cache"
	"go.uber.org/zap"
)

// Error codes returned by Authenticate
const (
	ErrCodeMissingCredentials = "MISSING_CREDENTIALS"
	ErrCodeLoginFailed        = "LOGIN_FAILED"
)

var (
	// ErrMissingCredentials is returned when the email or the key is absent.
	ErrMissingCredentials = shared.NewDomainError(ErrCodeMissingCredentials, "Missing API credentials")
	// ErrLoginFailed covers unknown emails and wrong keys alike.
	ErrLoginFailed = shared.NewDomainError(ErrCodeLoginFailed, "Login failed")
)

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	// CredentialTTL is how long a verified email/key pair skips bcrypt.
	// Zero disables the cache.
	CredentialTTL time.Duration
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{CredentialTTL: 5 * time.Minute}
}

// AuthService checks the email/API key pair sent with each print request.
type AuthService struct {
	users  identity.APIUserRepository
	cache  cache.CredentialCache
	config AuthServiceConfig
	logger *zap.Logger
}

// NewAuthService creates a new authentication service. credCache may be nil.
func NewAuthService(
	users identity.APIUserRepository,
	credCache cache.CredentialCache,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:  users,
		cache:  credCache,
		config: config,
		logger: logger,
	}
}

// Authenticate resolves the caller from its email and API key.
func (s *AuthService) Authenticate(ctx context.Context, email, apiKey string) (*Principal, error) {
	email = identity.NormalizeEmail(email)
	if email == "" || strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login attempt for unknown email", zap.String("email", email))
			return nil, ErrLoginFailed
		}
		return nil, err
	}

	digest := cache.CredentialDigest(email, apiKey)
	if s.cachedMatch(ctx, digest, user) {
		return &Principal{UserID: user.ID, Email: user.Email}, nil
	}

	if !user.VerifyAPIKey(apiKey) {
		s.logger.Warn("Invalid API key", zap.String("email", email))
		return nil, ErrLoginFailed
	}

	s.remember(ctx, digest, user)
	return &Principal{UserID: user.ID, Email: user.Email}, nil
}

// cachedMatch reports whether digest was verified against the user's current
// key hash. Cache failures fall through to bcrypt.
func (s *AuthService) cachedMatch(ctx context.Context, digest string, user *identity.APIUser) bool {
	if s.cache == nil || s.config.CredentialTTL <= 0 {
		return false
	}
	hash, found, err := s.cache.Get(ctx, digest)
	if err != nil {
		s.logger.Warn("Credential cache read failed",
			zap.String("backend", s.cache.Name()),
			zap.Error(err))
		return false
	}
	return found && hash == user.APIKeyHash
}

func (s *AuthService) remember(ctx context.Context, digest string, user *identity.APIUser) {
	if s.cache == nil || s.config.CredentialTTL <= 0 {
		return
	}
	if err := s.cache.Set(ctx, digest, user.APIKeyHash, s.config.CredentialTTL); err != nil {
		s.logger.Warn("Credential cache write failed",
			zap.String("backend", s.cache.Name()),
			zap.Error(err))
	}
}
