package identity

import (
	"time"

	"github.com/printapi/backend/internal/domain/identity"
)

// Principal is the authenticated caller of the print endpoint.
type Principal struct {
	UserID int64
	Email  string
}

// CreateUserResult carries the clear API key, shown once.
type CreateUserResult struct {
	User   *UserDTO
	APIKey string
}

// UserDTO is the listing view of an API user.
type UserDTO struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	UsageCount int64     `json:"nb_get"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toUserDTO(u *identity.APIUser) *UserDTO {
	return &UserDTO{
		ID:         u.ID,
		Email:      u.Email,
		UsageCount: u.UsageCount,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
