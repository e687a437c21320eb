package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/printapi/backend/internal/infrastructure/config"
	"github.com/printapi/backend/internal/infrastructure/persistence/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Database holds the database connection and provides methods for database operations
type Database struct {
	DB     *gorm.DB
	driver string
}

// Option customises the gorm configuration used by NewDatabase.
type Option func(*gorm.Config)

// WithLogger installs a gorm logger, typically logger.NewGormLogger.
func WithLogger(l gormlogger.Interface) Option {
	return func(c *gorm.Config) { c.Logger = l }
}

// NewDatabase opens a connection for the configured driver and checks it with a ping.
func NewDatabase(cfg *config.DatabaseConfig, opts ...Option) (*Database, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	gormCfg := &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
		PrepareStmt:            cfg.Driver == DriverPostgres,
		TranslateError:         true,
	}
	for _, opt := range opts {
		opt(gormCfg)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return wrap(db, cfg)
}

// NewDatabaseFromGorm wraps an already opened gorm connection.
func NewDatabaseFromGorm(db *gorm.DB, driver string) *Database {
	return &Database{DB: db, driver: driver}
}

func dialectorFor(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverPostgres:
		return postgres.Open(cfg.DSN()), nil
	case DriverSQLite:
		// foreign keys are off by default in sqlite
		return sqlite.Open(cfg.Path + "?_foreign_keys=on"), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func wrap(db *gorm.DB, cfg *config.DatabaseConfig) (*Database, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		// a second connection to ":memory:" would see an empty database
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{DB: db, driver: cfg.Driver}, nil
}

// Driver returns the configured driver name.
func (d *Database) Driver() string {
	return d.driver
}

// EnsureSchema creates the tables on sqlite. Postgres schemas are owned by
// the SQL migrations and are left untouched.
func (d *Database) EnsureSchema(ctx context.Context) error {
	if d.driver != DriverSQLite {
		return nil
	}
	if err := d.DB.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate sqlite schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Transaction executes a function within a database transaction
func (d *Database) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.DB.WithContext(ctx).Transaction(fn)
}
