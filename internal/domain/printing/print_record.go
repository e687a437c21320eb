package printing

import (
	"time"

	"github.com/printapi/backend/internal/domain/shared"
)

// PrintRecord tracks how often a user had a given content rendered.
type PrintRecord struct {
	ID          int64
	UserID      int64
	Fingerprint Fingerprint
	URL         string // set for URL identities
	Content     string // set for HTML identities
	Count       int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewPrintRecord creates an unsaved record with a zero count.
func NewPrintRecord(userID int64, identity ContentIdentity) (*PrintRecord, error) {
	if userID <= 0 {
		return nil, shared.NewDomainError("INVALID_USER", "User ID must be positive")
	}
	if identity.Value() == "" {
		return nil, &InputError{Reason: "URL ou contenu manquant"}
	}
	now := time.Now()
	return &PrintRecord{
		UserID:      userID,
		Fingerprint: identity.Fingerprint(),
		URL:         identity.URL,
		Content:     identity.HTML,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsNew reports whether the record was never persisted.
func (r *PrintRecord) IsNew() bool {
	return r.ID == 0
}

// MarkServed records one delivered PDF.
func (r *PrintRecord) MarkServed() {
	r.Count++
	r.UpdatedAt = time.Now()
}
