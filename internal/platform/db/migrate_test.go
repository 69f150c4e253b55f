package db

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMigrations(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestLoadMigrations_OrderAndFiltering(t *testing.T) {
	dir := writeMigrations(t, map[string]string{
		"010_referrals.sql":   "CREATE TABLE r (id int);",
		"001_anc_history.sql": "CREATE TABLE h (id int);",
		"002_danger.sql":      "CREATE TABLE d (id int);",
		"readme.md":           "not sql",
		"noprefix.sql":        "SELECT 1;",
		"abc_bad.sql":         "SELECT 1;",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "003_dir.sql"), 0o755))

	migrations, err := NewMigrator(nil, dir).LoadMigrations()
	require.NoError(t, err)
	require.Len(t, migrations, 3)

	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "001_anc_history.sql", migrations[0].Name)
	assert.Equal(t, "CREATE TABLE h (id int);", migrations[0].SQL)
	assert.Equal(t, 2, migrations[1].Version)
	assert.Equal(t, 10, migrations[2].Version)
}

func TestLoadMigrations_EmptyDir(t *testing.T) {
	migrations, err := NewMigrator(nil, t.TempDir()).LoadMigrations()
	require.NoError(t, err)
	assert.Empty(t, migrations)
}

func TestLoadMigrations_MissingDir(t *testing.T) {
	_, err := NewMigrator(nil, filepath.Join(t.TempDir(), "absent")).LoadMigrations()
	assert.Error(t, err)
}

func TestPendingAndStatus(t *testing.T) {
	all := []Migration{{Version: 1, Name: "001_a.sql"}, {Version: 2, Name: "002_b.sql"}, {Version: 3, Name: "003_c.sql"}}
	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	done := map[int]time.Time{1: at, 3: at}

	left := pending(all, done)
	require.Len(t, left, 1)
	assert.Equal(t, 2, left[0].Version)

	statuses := statusOf(all, done)
	require.Len(t, statuses, 3)
	assert.True(t, statuses[0].Applied)
	assert.Equal(t, at, *statuses[0].AppliedAt)
	assert.False(t, statuses[1].Applied)
	assert.Nil(t, statuses[1].AppliedAt)
	assert.True(t, statuses[2].Applied)
}
