package migration

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/printapi/backend/migrations"
	"go.uber.org/zap"
)

// Migrator applies the postgres schema migrations with golang-migrate.
type Migrator struct {
	migrate *migrate.Migrate
	logger  *zap.Logger
}

// New creates a Migrator on an open connection. An empty migrationsPath
// selects the migrations embedded in the binary.
func New(db *sql.DB, migrationsPath string, logger *zap.Logger) (*Migrator, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	var m *migrate.Migrate
	if migrationsPath == "" {
		src, err := iofs.New(migrations.FS, ".")
		if err != nil {
			return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", src, "postgres", driver)
		if err != nil {
			return nil, fmt.Errorf("failed to create migrate instance: %w", err)
		}
	} else {
		m, err = migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
		if err != nil {
			return nil, fmt.Errorf("failed to create migrate instance: %w", err)
		}
	}

	return newMigrator(m, logger), nil
}

// NewFromURL creates a Migrator from a database URL using the embedded migrations.
func NewFromURL(databaseURL string, logger *zap.Logger) (*Migrator, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return newMigrator(m, logger), nil
}

func newMigrator(m *migrate.Migrate, logger *zap.Logger) *Migrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Migrator{migrate: m, logger: logger.Named("migrate")}
}

// run executes op and treats ErrNoChange as success.
func (m *Migrator) run(name string, op func() error) error {
	err := op()
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Info("no change", zap.String("op", name))
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration %s failed: %w", name, err)
	}

	version, dirty, verr := m.Version()
	if verr != nil {
		return verr
	}
	m.logger.Info("migration applied",
		zap.String("op", name),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}

// Up runs all pending migrations
func (m *Migrator) Up() error {
	return m.run("up", m.migrate.Up)
}

// Down rolls back all migrations
func (m *Migrator) Down() error {
	return m.run("down", m.migrate.Down)
}

// Steps applies n migrations (positive = up, negative = down)
func (m *Migrator) Steps(n int) error {
	return m.run(fmt.Sprintf("steps(%d)", n), func() error { return m.migrate.Steps(n) })
}

// GoTo migrates to a specific version
func (m *Migrator) GoTo(version uint) error {
	return m.run(fmt.Sprintf("goto(%d)", version), func() error { return m.migrate.Migrate(version) })
}

// Version returns the current version; 0 means no migration was applied.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Force sets the version without running migrations, clearing a dirty state.
func (m *Migrator) Force(version int) error {
	m.logger.Warn("forcing migration version", zap.Int("version", version))
	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	return nil
}

// Close closes the migrator and releases resources
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	if sourceErr != nil {
		return fmt.Errorf("failed to close source: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("failed to close database: %w", dbErr)
	}
	return nil
}
