// Package dbtest provides migrated SQLite databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/AdamBeresnev/innerdrive/internal/db"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// New creates an in-memory SQLite database and applies migrations. The pool
// is pinned to one connection because every new connection to :memory:
// would see its own empty database.
func New(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := db.InitDB(db.DriverSQLite, "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	database.SetMaxOpenConns(1)

	require.NoError(t, db.RunMigrations(database), "Failed to apply migrations")

	t.Cleanup(func() { database.Close() })
	return database
}

// NewFile creates a migrated SQLite database in a temporary directory. Unlike
// New it keeps a normal connection pool, so tests can run transactions on
// several connections at once.
func NewFile(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "innerdrive.db") + "?_journal_mode=WAL&_busy_timeout=5000"
	database, err := db.InitDB(db.DriverSQLite, dsn)
	require.NoError(t, err, "Failed to open file DB")
	database.SetMaxOpenConns(4)

	require.NoError(t, db.RunMigrations(database), "Failed to apply migrations")

	t.Cleanup(func() { database.Close() })
	return database
}
