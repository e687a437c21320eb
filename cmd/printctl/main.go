package main

import (
	"context"
	"fmt"
	"os"

	identityapp "github.com/printapi/backend/internal/application/identity"
	printingapp "github.com/printapi/backend/internal/application/printing"
	"github.com/printapi/backend/internal/infrastructure/config"
	"github.com/printapi/backend/internal/infrastructure/logger"
	"github.com/printapi/backend/internal/infrastructure/persistence"
	"github.com/printapi/backend/internal/infrastructure/printing"
	"github.com/printapi/backend/internal/interfaces/cli"
)

// Version is stamped at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	if err := cli.NewRootCommand(loadServices, Version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadServices opens the database and the PDF cache described by the
// server configuration.
func loadServices(ctx context.Context, configPath string) (*cli.Services, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(logger.NewGormLogger(log, logger.MapGormLogLevel("warn"))),
	)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	scratch, err := printing.NewScratchDir(cfg.Print.TmpDir)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	pdfs, err := printing.NewRenderCache(&printing.RenderCacheConfig{
		Dir:    scratch.PDFDir(),
		TTL:    cfg.Print.CacheTTL,
		Logger: log,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	users := persistence.NewGormAPIUserRepository(db.DB)
	return &cli.Services{
		Users:       identityapp.NewUserService(users, log),
		Maintenance: printingapp.NewMaintenanceService(pdfs, printingapp.PrunerFunc(scratch.PruneHTML), log),
		Close: func() error {
			_ = logger.Sync(log)
			return db.Close()
		},
	}, nil
}
