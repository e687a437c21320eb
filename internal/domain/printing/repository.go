package printing

import "context"

// PrintRecordRepository defines the interface for print record persistence
type PrintRecordRepository interface {
	// FindByUserAndFingerprint returns the record for (userID, fp).
	// Returns shared.ErrNotFound when none exists.
	FindByUserAndFingerprint(ctx context.Context, userID int64, fp Fingerprint) (*PrintRecord, error)

	// Save inserts or updates the record and sets its ID on insert.
	Save(ctx context.Context, record *PrintRecord) error
}
