package printing

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Pruner removes files older than a given age and reports how many it deleted.
type Pruner interface {
	Prune(ctx context.Context, olderThan time.Duration) (int, error)
}

// PrunerFunc adapts a function to Pruner.
type PrunerFunc func(ctx context.Context, olderThan time.Duration) (int, error)

func (f PrunerFunc) Prune(ctx context.Context, olderThan time.Duration) (int, error) {
	return f(ctx, olderThan)
}

// MaintenanceService cleans the PDF cache and the HTML scratch area.
type MaintenanceService struct {
	pdfs    Pruner
	scratch Pruner
	logger  *zap.Logger
}

// NewMaintenanceService creates a new MaintenanceService
func NewMaintenanceService(pdfs, scratch Pruner, logger *zap.Logger) *MaintenanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaintenanceService{pdfs: pdfs, scratch: scratch, logger: logger}
}

// Prune deletes cached PDFs and scratch HTML last modified more than olderThan ago.
func (s *MaintenanceService) Prune(ctx context.Context, olderThan time.Duration) (PruneReport, error) {
	var report PruneReport
	if olderThan <= 0 {
		return report, fmt.Errorf("prune age must be positive, got %s", olderThan)
	}

	n, err := s.pdfs.Prune(ctx, olderThan)
	report.PDFs = n
	if err != nil {
		return report, fmt.Errorf("failed to prune PDF cache: %w", err)
	}

	n, err = s.scratch.Prune(ctx, olderThan)
	report.HTMLFiles = n
	if err != nil {
		return report, fmt.Errorf("failed to prune scratch HTML: %w", err)
	}

	s.logger.Info("maintenance prune finished",
		zap.Int("pdfs", report.PDFs),
		zap.Int("html_files", report.HTMLFiles),
		zap.Duration("older_than", olderThan),
	)
	return report, nil
}
