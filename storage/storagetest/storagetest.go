// Package storagetest provides a migrated throwaway SQLite gateway for tests.
package storagetest

import (
	"path/filepath"
	"testing"

	"github.com/LovationAdmin/financas-api/config"
	"github.com/LovationAdmin/financas-api/storage"
	"github.com/stretchr/testify/require"
)

// New returns a gateway over a fresh SQLite file in t.TempDir. The database is
// closed when the test ends.
func New(t *testing.T) *storage.Gateway {
	t.Helper()

	cfg := &config.Config{
		DBDriver:   storage.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	}

	require.NoError(t, storage.RunMigrations(cfg.DBDriver, cfg.DSN()))

	db, err := config.InitDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return storage.NewGateway(db, cfg.DBDriver)
}
