package migrate

import (
	"context"
	"database/sql"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/velvetcharms/storefront-backend/pkg/config"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return sqlDB
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var found string
	err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&found)
	if err == sql.ErrNoRows {
		return false
	}
	require.NoError(t, err)
	return found == name
}

func TestUpCreatesTables(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, Up(context.Background(), db, config.DBDriverSQLite))

	assert.True(t, tableExists(t, db, "contact_messages"))
	assert.True(t, tableExists(t, db, "uploads"))

	// idempotent
	require.NoError(t, Up(context.Background(), db, config.DBDriverSQLite))
}

func TestMigrateToVersionDown(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	require.NoError(t, Up(ctx, db, config.DBDriverSQLite))

	require.NoError(t, MigrateToVersion(ctx, db, config.DBDriverSQLite, "20260301120000"))
	assert.True(t, tableExists(t, db, "contact_messages"))
	assert.False(t, tableExists(t, db, "uploads"))

	assert.Error(t, MigrateToVersion(ctx, db, config.DBDriverSQLite, "latest"))
}

func TestDialectFor(t *testing.T) {
	d, err := DialectFor(config.DBDriverPostgres)
	require.NoError(t, err)
	assert.Equal(t, "postgres", d)

	d, err = DialectFor(config.DBDriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", d)

	_, err = DialectFor("mysql")
	assert.Error(t, err)
}

func TestValidateEmbedded(t *testing.T) {
	require.NoError(t, Validate())
}

func TestValidateFSRejectsBadFiles(t *testing.T) {
	err := ValidateFS(fstest.MapFS{"bad-name.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")}})
	assert.ErrorContains(t, err, "invalid migration filename")

	err = ValidateFS(fstest.MapFS{"20260101000000_x.sql": {Data: []byte("-- +goose Up\n")}})
	assert.ErrorContains(t, err, "-- +goose Down")

	err = ValidateFS(fstest.MapFS{
		"20260101000000_a.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		"20260101000000_b.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
	})
	assert.ErrorContains(t, err, "duplicate migration version")

	assert.Error(t, ValidateFS(fstest.MapFS{}))
}
