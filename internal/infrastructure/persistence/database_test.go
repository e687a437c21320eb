package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/printapi/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newSQLiteDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(&config.DatabaseConfig{Driver: DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.EnsureSchema(context.Background()))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewDatabaseFromGorm(gormDB, DriverPostgres), mock, mockDB
}

func TestNewDatabase_SQLite(t *testing.T) {
	db := newSQLiteDatabase(t)

	assert.Equal(t, DriverSQLite, db.Driver())
	assert.NoError(t, db.Ping(context.Background()))
	assert.True(t, db.DB.Migrator().HasTable("api_print_users"))
	assert.True(t, db.DB.Migrator().HasTable("api_prints"))
}

func TestNewDatabase_UnknownDriver(t *testing.T) {
	_, err := NewDatabase(&config.DatabaseConfig{Driver: "oracle"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestEnsureSchema_SkipsPostgres(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	// no statement may reach the database
	assert.NoError(t, db.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Transaction(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "api_print_users"`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := db.Transaction(context.Background(), func(tx *gorm.DB) error {
			return tx.Exec(`UPDATE "api_print_users" SET nb_get = 0`).Error
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("boom")
		err := db.Transaction(context.Background(), func(tx *gorm.DB) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
