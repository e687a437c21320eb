package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add print index", "add_print_index"},
		{"Add-Print-Index", "add_print_index"},
		{"add__print__index", "add_print_index"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading and trailing_", "leading_and_trailing"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_Sequential(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "migrations")

	first, err := CreateMigration(dir, "create users", "users table")
	require.NoError(t, err)
	assert.Equal(t, "000001", first.Version)
	assert.FileExists(t, first.UpPath)
	assert.FileExists(t, first.DownPath)

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- create users")
	assert.Contains(t, string(up), "-- users table")

	down, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(rollback)")

	second, err := CreateMigration(dir, "add index", "")
	require.NoError(t, err)
	assert.Equal(t, "000002", second.Version)
	assert.Equal(t, filepath.Join(dir, "000002_add_index.up.sql"), second.UpPath)
}

func TestCreateMigration_EmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000010_late.up.sql", "000010_late.down.sql",
		"000002_early.up.sql", "000002_early.down.sql",
		"README.md", "notes.up.sql",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "000003_dir.up.sql"), 0o755))

	names, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"000002_early", "000010_late"}, names)
}

func TestListMigrations_MissingDirectory(t *testing.T) {
	names, err := ListMigrations(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestListMigrations_Repository(t *testing.T) {
	names, err := ListMigrations(filepath.Join("..", "..", "..", "migrations"))
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_create_api_print_users", "000002_create_api_prints"}, names)
}
