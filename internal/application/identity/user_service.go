package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/printapi/backend/internal/domain/identity"
	"github.com/printapi/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// UserService manages API users from the command line.
type UserService struct {
	users  identity.APIUserRepository
	logger *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(users identity.APIUserRepository, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, logger: logger}
}

// Create registers email and returns its freshly generated key.
// A caller-chosen apiKey replaces the generated one when not empty.
func (s *UserService) Create(ctx context.Context, email, apiKey string) (*CreateUserResult, error) {
	user, key, err := identity.NewAPIUser(email)
	if err != nil {
		return nil, err
	}
	if apiKey != "" {
		if err := user.SetAPIKey(apiKey); err != nil {
			return nil, err
		}
		key = apiKey
	}

	if err := s.users.Save(ctx, user); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("EMAIL_EXISTS", "Email already registered")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("API user created", zap.Int64("user_id", user.ID), zap.String("email", user.Email))
	return &CreateUserResult{User: toUserDTO(user), APIKey: key}, nil
}

// RotateKey issues a new key for email. Cached credentials for the old key
// stop matching at once.
func (s *UserService) RotateKey(ctx context.Context, email string) (*CreateUserResult, error) {
	user, err := s.users.FindByEmail(ctx, identity.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	key, err := user.RotateKey()
	if err != nil {
		return nil, err
	}
	if err := s.users.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	s.logger.Info("API key rotated", zap.Int64("user_id", user.ID))
	return &CreateUserResult{User: toUserDTO(user), APIKey: key}, nil
}

// List returns every API user.
func (s *UserService) List(ctx context.Context) ([]*UserDTO, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	out := make([]*UserDTO, len(users))
	for i, u := range users {
		out[i] = toUserDTO(u)
	}
	return out, nil
}
