// Package testutil provides shared builders and database helpers for tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vofmun/registrar/internal/infrastructure/sqlite"
)

// NewTestDB creates a migrated database in a per-test temp directory.
// It is closed automatically when the test finishes.
func NewTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.NewDB(filepath.Join(t.TempDir(), "registrar-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}
