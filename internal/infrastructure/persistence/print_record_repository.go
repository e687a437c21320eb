package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/printapi/backend/internal/domain/printing"
	"github.com/printapi/backend/internal/domain/shared"
	"github.com/printapi/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPrintRecordRepository implements printing.PrintRecordRepository using GORM
type GormPrintRecordRepository struct {
	db *gorm.DB
}

// NewGormPrintRecordRepository creates a new GormPrintRecordRepository
func NewGormPrintRecordRepository(db *gorm.DB) *GormPrintRecordRepository {
	return &GormPrintRecordRepository{db: db}
}

func (r *GormPrintRecordRepository) FindByUserAndFingerprint(ctx context.Context, userID int64, fp printing.Fingerprint) (*printing.PrintRecord, error) {
	var m models.PrintRecordModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND fingerprint = ?", userID, string(fp)).
		First(&m).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return m.ToDomain(), nil
}

// Save inserts new records and overwrites the counter of existing ones.
// A new record that lost a concurrent insert for the same user and
// fingerprint is added onto the winning row instead.
func (r *GormPrintRecordRepository) Save(ctx context.Context, record *printing.PrintRecord) error {
	if record == nil {
		return shared.ErrInvalidInput
	}
	m := models.PrintRecordModelFromDomain(record)
	db := r.db.WithContext(ctx)

	if record.IsNew() {
		if err := db.Create(m).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return r.mergeInto(db, m, record)
			}
			return fmt.Errorf("failed to create print record: %w", err)
		}
		record.ID = m.ID
		return nil
	}

	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = time.Now()
	}
	res := db.Model(&models.PrintRecordModel{}).
		Where("id = ?", m.ID).
		Updates(map[string]any{"nb": m.Count, "updated_at": m.UpdatedAt})
	if res.Error != nil {
		return fmt.Errorf("failed to save print record: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// mergeInto adds the served count of m to the existing row with the same
// user and fingerprint, then refreshes record from that row.
func (r *GormPrintRecordRepository) mergeInto(db *gorm.DB, m *models.PrintRecordModel, record *printing.PrintRecord) error {
	var existing models.PrintRecordModel
	err := db.Transaction(func(tx *gorm.DB) error {
		scope := tx.Model(&models.PrintRecordModel{}).
			Where("user_id = ? AND fingerprint = ?", m.UserID, m.Fingerprint)
		res := scope.Updates(map[string]any{
			"nb":         gorm.Expr("nb + ?", m.Count),
			"updated_at": time.Now(),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return tx.Where("user_id = ? AND fingerprint = ?", m.UserID, m.Fingerprint).First(&existing).Error
	})
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to merge print record: %w", err)
	}
	record.ID = existing.ID
	record.Count = existing.Count
	return nil
}

var _ printing.PrintRecordRepository = (*GormPrintRecordRepository)(nil)
