package sqlite

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestNewDB_CreatesDirectory verifies that NewDB creates the parent directory if missing.
func TestNewDB_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

	db, err := NewDB(dbPath)
	require.NoError(t, err, "NewDB should succeed even with nested non-existent directories")
	defer db.Close()

	info, err := os.Stat(filepath.Dir(dbPath))
	require.NoError(t, err, "Directory should exist after NewDB")
	require.True(t, info.IsDir())

	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0700), info.Mode().Perm())
	}
}

// TestNewDB_RunsMigrations verifies that NewDB creates the registrations table.
func TestNewDB_RunsMigrations(t *testing.T) {
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	var tableName string
	err = db.conn.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name='registrations'",
	).Scan(&tableName)
	require.NoError(t, err, "registrations table should exist after migrations")
	require.Equal(t, "registrations", tableName)

	var version int
	err = db.conn.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version)
	require.NoError(t, err)
	require.Equal(t, 1, version)
}

// TestNewDB_MigrationsAreIdempotent verifies that reopening an existing
// database applies nothing and keeps the data.
func TestNewDB_MigrationsAreIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db1, err := NewDB(dbPath)
	require.NoError(t, err)
	_, err = db1.conn.Exec(
		`INSERT INTO registrations (
			id, email, first_name, last_name, phone, school, grade,
			dietary_type, has_allergies, emergency_contact_name, emergency_contact_phone,
			agree_terms, role, payment_status, created_at
		) VALUES ('r1', 'a@b.co', 'A', 'B', 'p', 's', 'g', 'standard', 'no', 'ec', 'ep', 1, 'delegate', 'unpaid', 1000)`)
	require.NoError(t, err)
	require.NoError(t, db1.Close())

	db2, err := NewDB(dbPath)
	require.NoError(t, err)
	defer db2.Close()

	var count int
	require.NoError(t, db2.conn.QueryRow("SELECT COUNT(*) FROM registrations").Scan(&count))
	require.Equal(t, 1, count, "reopening must not touch existing rows")
}

// TestNewDB_WALMode verifies that WAL mode is enabled via PRAGMA query.
func TestNewDB_WALMode(t *testing.T) {
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	var journalMode string
	require.NoError(t, db.conn.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	require.Equal(t, "wal", journalMode)
}

// TestNewDB_ForeignKeys verifies that foreign keys are enabled via PRAGMA query.
func TestNewDB_ForeignKeys(t *testing.T) {
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	var foreignKeys int
	require.NoError(t, db.conn.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys))
	require.Equal(t, 1, foreignKeys)
}

// TestNewDB_BusyTimeout verifies that busy timeout is set to 5000ms via PRAGMA query.
func TestNewDB_BusyTimeout(t *testing.T) {
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	var busyTimeout int
	require.NoError(t, db.conn.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	require.Equal(t, 5000, busyTimeout)
}

// TestDB_Close verifies that the connection closes cleanly.
func TestDB_Close(t *testing.T) {
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	require.NoError(t, db.Close())
	require.Error(t, db.conn.Ping(), "Ping should fail after Close")
}

// TestDB_Connection verifies that Connection returns a usable *sql.DB.
func TestDB_Connection(t *testing.T) {
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	conn := db.Connection()
	require.NotNil(t, conn)
	require.NoError(t, conn.Ping())
}

// TestNewDB_MultipleCalls verifies that opening the same database twice is safe.
func TestNewDB_MultipleCalls(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db1, err := NewDB(dbPath)
	require.NoError(t, err)
	defer db1.Close()

	db2, err := NewDB(dbPath)
	require.NoError(t, err, "second NewDB should succeed (WAL mode allows concurrent access)")
	defer db2.Close()

	var count int
	require.NoError(t, db1.conn.QueryRow("SELECT COUNT(*) FROM registrations").Scan(&count))
	require.NoError(t, db2.conn.QueryRow("SELECT COUNT(*) FROM registrations").Scan(&count))
}

// TestNewDB_InvalidPath verifies that NewDB returns an error for unwritable paths.
func TestNewDB_InvalidPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Unix-specific restricted path test")
	}
	if os.Geteuid() == 0 {
		t.Skip("running as root, no unwritable paths")
	}

	_, err := NewDB("/registrar-test-db.sqlite")
	require.Error(t, err)
}
