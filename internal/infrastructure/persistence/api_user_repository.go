package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/printapi/backend/internal/domain/identity"
	"github.com/printapi/backend/internal/domain/shared"
	"github.com/printapi/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAPIUserRepository implements identity.APIUserRepository using GORM
type GormAPIUserRepository struct {
	db *gorm.DB
}

// NewGormAPIUserRepository creates a new GormAPIUserRepository
func NewGormAPIUserRepository(db *gorm.DB) *GormAPIUserRepository {
	return &GormAPIUserRepository{db: db}
}

func (r *GormAPIUserRepository) FindByEmail(ctx context.Context, email string) (*identity.APIUser, error) {
	var m models.APIUserModel
	err := r.db.WithContext(ctx).Where("email = ?", identity.NormalizeEmail(email)).First(&m).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return m.ToDomain(), nil
}

func (r *GormAPIUserRepository) FindByID(ctx context.Context, id int64) (*identity.APIUser, error) {
	var m models.APIUserModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return m.ToDomain(), nil
}

func (r *GormAPIUserRepository) List(ctx context.Context) ([]*identity.APIUser, error) {
	var rows []models.APIUserModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list api users: %w", err)
	}
	users := make([]*identity.APIUser, len(rows))
	for i := range rows {
		users[i] = rows[i].ToDomain()
	}
	return users, nil
}

// Save inserts the user when ID is zero and updates it otherwise.
// A duplicate email yields shared.ErrAlreadyExists.
func (r *GormAPIUserRepository) Save(ctx context.Context, user *identity.APIUser) error {
	m := models.APIUserModelFromDomain(user)
	db := r.db.WithContext(ctx)

	if m.ID == 0 {
		var existing int64
		if err := db.Model(&models.APIUserModel{}).Where("email = ?", m.Email).Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to check api user email: %w", err)
		}
		if existing > 0 {
			return shared.ErrAlreadyExists
		}
		if err := db.Create(m).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.ErrAlreadyExists
			}
			return fmt.Errorf("failed to create api user: %w", err)
		}
		user.ID = m.ID
		return nil
	}

	if err := db.Save(m).Error; err != nil {
		return fmt.Errorf("failed to save api user: %w", err)
	}
	return nil
}

func (r *GormAPIUserRepository) IncrementUsage(ctx context.Context, id int64, delta int64) error {
	res := r.db.WithContext(ctx).Model(&models.APIUserModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"nb_get":     gorm.Expr("nb_get + ?", delta),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to increment api user usage: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}

var _ identity.APIUserRepository = (*GormAPIUserRepository)(nil)
