package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLite(t *testing.T) {
	db, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "test.db"), false)
	require.NoError(t, err)

	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestSQLiteDSNAddsLockingOptions(t *testing.T) {
	assert.Equal(t, "data/app.db?_busy_timeout=5000&_txlock=immediate", sqliteDSN("data/app.db"))
	assert.Equal(t, "data/app.db?_busy_timeout=100", sqliteDSN("data/app.db?_busy_timeout=100"))
}

func TestOpenRejectsBadConfig(t *testing.T) {
	_, err := Open("mysql", "x", false)
	assert.Error(t, err)

	_, err = Open(DriverPostgres, "", false)
	assert.Error(t, err)
}
