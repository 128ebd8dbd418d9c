package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"create documents", "create_documents"},
		{"Add-Audit-Trigger", "add_audit_trigger"},
		{"PAYMENT__EVENTS", "payment_events"},
		{"index v2", "index_v2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading and trailing_", "leading_and_trailing"},
		{"!!! ???", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "migrations")
	now := time.Date(2025, 3, 15, 10, 30, 45, 0, time.UTC)

	f, err := CreateMigration(dir, "add retention index", "Index retention certificates", now)
	require.NoError(t, err)

	assert.Equal(t, "20250315103045", f.Version)
	assert.Equal(t, filepath.Join(dir, "20250315103045_add_retention_index.up.sql"), f.UpPath)
	assert.Equal(t, filepath.Join(dir, "20250315103045_add_retention_index.down.sql"), f.DownPath)

	up, err := os.ReadFile(f.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: add retention index")
	assert.Contains(t, string(up), "-- Description: Index retention certificates")

	down, err := os.ReadFile(f.DownPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(down), "-- Migration: add retention index (Rollback)"))

	t.Run("refuses to overwrite an existing version", func(t *testing.T) {
		_, err := CreateMigration(dir, "add retention index", "", now)
		assert.Error(t, err)
	})

	t.Run("rejects a name with nothing usable", func(t *testing.T) {
		_, err := CreateMigration(dir, "???", "", now)
		assert.Error(t, err)
	})
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"20250301000002_create_payment_events.up.sql",
		"20250301000002_create_payment_events.down.sql",
		"20250301000001_create_documents.up.sql",
		"20250301000001_create_documents.down.sql",
		"README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive.up.sql"), 0o755))

	names, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"20250301000001_create_documents",
		"20250301000002_create_payment_events",
	}, names)

	missing, err := ListMigrations(filepath.Join(dir, "nope"))
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestFindMigrationsDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "migrations"), 0o755))
	nested := filepath.Join(root, "internal", "infrastructure")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, err := FindMigrationsDir(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "migrations"), found)
}

func TestFindMigrationsDir_RepositoryLayout(t *testing.T) {
	found, err := FindMigrationsDir(".")
	require.NoError(t, err)

	names, err := ListMigrations(found)
	require.NoError(t, err)
	assert.Contains(t, names, "20250301000001_create_documents")
}
