package models

import (
	"database/sql"
	"time"

	"github.com/printapi/backend/internal/domain/identity"
	"github.com/printapi/backend/internal/domain/printing"
)

// APIUserModel is the persistence model for API callers.
type APIUserModel struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	Email      string    `gorm:"type:varchar(255);not null;uniqueIndex:uq_api_print_users_email"`
	APIKeyHash string    `gorm:"column:api_key_hash;type:varchar(100);not null"`
	UsageCount int64     `gorm:"column:nb_get;not null;default:0"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (APIUserModel) TableName() string {
	return "api_print_users"
}

// ToDomain converts the model to a domain APIUser
func (m *APIUserModel) ToDomain() *identity.APIUser {
	return &identity.APIUser{
		ID:         m.ID,
		Email:      m.Email,
		APIKeyHash: m.APIKeyHash,
		UsageCount: m.UsageCount,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// APIUserModelFromDomain creates a model from a domain APIUser
func APIUserModelFromDomain(u *identity.APIUser) *APIUserModel {
	return &APIUserModel{
		ID:         u.ID,
		Email:      u.Email,
		APIKeyHash: u.APIKeyHash,
		UsageCount: u.UsageCount,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// PrintRecordModel is the persistence model for per-user print counters.
// URL and Content are nullable: exactly one of them is set.
type PrintRecordModel struct {
	ID          int64          `gorm:"primaryKey;autoIncrement"`
	UserID      int64          `gorm:"not null;uniqueIndex:uq_api_prints_user_fingerprint,priority:1"`
	Fingerprint string         `gorm:"type:char(64);not null;uniqueIndex:uq_api_prints_user_fingerprint,priority:2"`
	URL         sql.NullString `gorm:"type:text"`
	Content     sql.NullString `gorm:"type:text"`
	Count       int64          `gorm:"column:nb;not null;default:0"`
	CreatedAt   time.Time      `gorm:"not null"`
	UpdatedAt   time.Time      `gorm:"not null"`

	User *APIUserModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (PrintRecordModel) TableName() string {
	return "api_prints"
}

// ToDomain converts the model to a domain PrintRecord
func (m *PrintRecordModel) ToDomain() *printing.PrintRecord {
	return &printing.PrintRecord{
		ID:          m.ID,
		UserID:      m.UserID,
		Fingerprint: printing.Fingerprint(m.Fingerprint),
		URL:         m.URL.String,
		Content:     m.Content.String,
		Count:       m.Count,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// PrintRecordModelFromDomain creates a model from a domain PrintRecord
func PrintRecordModelFromDomain(r *printing.PrintRecord) *PrintRecordModel {
	return &PrintRecordModel{
		ID:          r.ID,
		UserID:      r.UserID,
		Fingerprint: string(r.Fingerprint),
		URL:         nullable(r.URL),
		Content:     nullable(r.Content),
		Count:       r.Count,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// All returns every model managed by AutoMigrate, parents first.
func All() []any {
	return []any{&APIUserModel{}, &PrintRecordModel{}}
}
