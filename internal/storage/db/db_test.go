package db_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/DonovanMods/twlm/internal/domain"
	"github.com/DonovanMods/twlm/internal/storage/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "twlm.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestNew_MigratesIdempotently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twlm.db")
	first, err := db.New(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := db.New(path)
	require.NoError(t, err)
	defer second.Close()

	version, err := second.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 2, version)
	assert.Equal(t, path, second.Path())
}

func TestNew_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache", "twlm.db")
	database, err := db.New(path)
	require.NoError(t, err)
	defer database.Close()
	assert.FileExists(t, path)
}

func TestNew_Memory(t *testing.T) {
	database, err := db.New(db.Memory)
	require.NoError(t, err)
	defer database.Close()

	version, err := database.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}

func TestNew_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twlm.db")
	first, err := db.New(path)
	require.NoError(t, err)
	_, err = first.Exec("INSERT INTO schema_migrations (version) VALUES (99)")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	_, err = db.New(path)
	assert.ErrorContains(t, err, "newer than this build")
}

func TestOnlineRecords_SaveAndGet(t *testing.T) {
	database := openTestDB(t)
	updated := time.Unix(1700000000, 0).UTC()

	records := []domain.OnlineRecord{
		{ID: "111", Title: "Raiders", Creator: "someone", FileSize: 2048, TimeUpdated: updated, Votes: 9},
		{ID: "222", Title: "Reskin"},
	}
	require.NoError(t, database.SaveOnlineRecords("warhammer_3", records))

	got, err := database.GetOnlineRecords("warhammer_3", []string{"111", "333"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Raiders", got[0].Title)
	assert.Equal(t, updated, got[0].TimeUpdated)
	assert.Equal(t, int64(9), got[0].Votes)
	assert.True(t, got[0].TimeCreated.IsZero())

	// Upsert replaces
	records[0].Title = "Raiders v2"
	require.NoError(t, database.SaveOnlineRecords("warhammer_3", records[:1]))
	got, err = database.GetOnlineRecords("warhammer_3", []string{"111"})
	require.NoError(t, err)
	assert.Equal(t, "Raiders v2", got[0].Title)

	// Scoped by game
	got, err = database.GetOnlineRecords("troy", []string{"111"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLastUpdate(t *testing.T) {
	database := openTestDB(t)

	ts, err := database.LastUpdate("warhammer_3")
	require.NoError(t, err)
	assert.True(t, ts.IsZero())

	now := time.Unix(1710000000, 0).UTC()
	require.NoError(t, database.SetLastUpdate("warhammer_3", now))
	ts, err = database.LastUpdate("warhammer_3")
	require.NoError(t, err)
	assert.Equal(t, now, ts)
}

func TestAPIKeys(t *testing.T) {
	database := openTestDB(t)

	key, err := database.GetAPIKey("steam")
	require.NoError(t, err)
	assert.Nil(t, key)

	require.NoError(t, database.SaveAPIKey("steam", "abc"))
	require.NoError(t, database.SaveAPIKey("steam", "def"))
	key, err = database.GetAPIKey("steam")
	require.NoError(t, err)
	require.NotNil(t, key)
	assert.Equal(t, "def", key.APIKey)

	require.NoError(t, database.DeleteAPIKey("steam"))
	key, err = database.GetAPIKey("steam")
	require.NoError(t, err)
	assert.Nil(t, key)
}
