package identity

import "context"

// APIUserRepository defines the interface for API user persistence
type APIUserRepository interface {
	// FindByEmail finds a user by normalized email.
	// Returns shared.ErrNotFound when none exists.
	FindByEmail(ctx context.Context, email string) (*APIUser, error)

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id int64) (*APIUser, error)

	// List returns every user ordered by ID
	List(ctx context.Context) ([]*APIUser, error)

	// Save inserts or updates a user
	Save(ctx context.Context, user *APIUser) error

	// IncrementUsage atomically adds delta to the user's usage counter
	IncrementUsage(ctx context.Context, id int64, delta int64) error
}
