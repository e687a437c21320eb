//go:build integration

package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/printapi/backend/internal/domain/printing"
	"github.com/printapi/backend/internal/infrastructure/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newPostgresDatabase starts a throwaway postgres and applies the embedded migrations.
func newPostgresDatabase(t *testing.T) *Database {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("printapi_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("printapi"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	gormDB, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)

	m, err := migration.New(sqlDB, "", nil)
	require.NoError(t, err)
	require.NoError(t, m.Up())

	version, dirty, err := m.Version()
	require.NoError(t, err)
	require.Equal(t, uint(2), version)
	require.False(t, dirty)

	db := NewDatabaseFromGorm(gormDB, DriverPostgres)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPostgres_RepositoriesAgainstMigratedSchema(t *testing.T) {
	db := newPostgresDatabase(t)
	ctx := context.Background()
	users := NewGormAPIUserRepository(db.DB)
	prints := NewGormPrintRecordRepository(db.DB)

	user := createUser(t, users, "erin@example.com")

	source, err := printing.NewContentIdentity("https://example.com/report", "")
	require.NoError(t, err)
	record, err := printing.NewPrintRecord(user.ID, source)
	require.NoError(t, err)
	record.MarkServed()
	require.NoError(t, prints.Save(ctx, record))

	found, err := prints.FindByUserAndFingerprint(ctx, user.ID, source.Fingerprint())
	require.NoError(t, err)
	assert.Equal(t, int64(1), found.Count)
	assert.Equal(t, "https://example.com/report", found.URL)

	dup, err := printing.NewPrintRecord(user.ID, source)
	require.NoError(t, err)
	dup.MarkServed()
	require.NoError(t, prints.Save(ctx, dup))
	assert.Equal(t, found.ID, dup.ID)
	assert.Equal(t, int64(2), dup.Count)

	require.NoError(t, users.IncrementUsage(ctx, user.ID, 1))
	reloaded, err := users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reloaded.UsageCount)
}
