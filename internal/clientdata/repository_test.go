package clientdata

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// In-memory databases are per-connection
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE country_info (
			country_code TEXT PRIMARY KEY,
			data         TEXT NOT NULL,
			expires_at   INTEGER NOT NULL
		);
		CREATE TABLE fundamentals (
			ticker     TEXT PRIMARY KEY,
			data       TEXT NOT NULL,
			expires_at INTEGER NOT NULL
		);
		CREATE TABLE airline_directory (
			code       TEXT PRIMARY KEY,
			data       TEXT NOT NULL,
			expires_at INTEGER NOT NULL
		);
		CREATE TABLE flight_activity (
			code       TEXT PRIMARY KEY,
			data       TEXT NOT NULL,
			expires_at INTEGER NOT NULL
		);
	`)
	require.NoError(t, err)

	return db
}

type sample struct {
	Region string  `json:"region"`
	Gini   float64 `json:"gini"`
}

func TestStoreAndGetIfFresh(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	require.NoError(t, repo.Store("country_info", "US", sample{Region: "Americas", Gini: 39.7}, time.Hour))

	raw, err := repo.GetIfFresh("country_info", "US")
	require.NoError(t, err)
	require.NotNil(t, raw)

	var got sample
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "Americas", got.Region)
	assert.Equal(t, 39.7, got.Gini)
}

func TestGetIfFreshMissingKey(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	raw, err := repo.GetIfFresh("country_info", "ZZ")
	assert.NoError(t, err)
	assert.Nil(t, raw)
}

func TestExpiredDataOnlyViaGet(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	require.NoError(t, repo.Store("fundamentals", "AAL", sample{Region: "stale"}, -time.Hour))

	fresh, err := repo.GetIfFresh("fundamentals", "AAL")
	require.NoError(t, err)
	assert.Nil(t, fresh, "expired data must not be served as fresh")

	stale, err := repo.Get("fundamentals", "AAL")
	require.NoError(t, err)
	assert.NotNil(t, stale, "expired data remains available as a fallback")
}

func TestStoreReplacesExisting(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	require.NoError(t, repo.Store("airline_directory", "AA", sample{Region: "old"}, time.Hour))
	require.NoError(t, repo.Store("airline_directory", "AA", sample{Region: "new"}, time.Hour))

	raw, err := repo.GetIfFresh("airline_directory", "AA")
	require.NoError(t, err)

	var got sample
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "new", got.Region)
}

func TestInvalidTableRejected(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	err := repo.Store("users; DROP TABLE users", "x", sample{}, time.Hour)
	assert.Error(t, err)

	_, err = repo.Get("not_a_table", "x")
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	require.NoError(t, repo.Store("flight_activity", "AA", sample{}, time.Hour))
	require.NoError(t, repo.Delete("flight_activity", "AA"))

	raw, err := repo.Get("flight_activity", "AA")
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestDeleteAllExpired(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	require.NoError(t, repo.Store("country_info", "US", sample{}, time.Hour))
	require.NoError(t, repo.Store("country_info", "GB", sample{}, -time.Hour))
	require.NoError(t, repo.Store("fundamentals", "AAL", sample{}, -time.Hour))

	results, err := repo.DeleteAllExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), results["country_info"])
	assert.Equal(t, int64(1), results["fundamentals"])
	assert.Equal(t, int64(0), results["airline_directory"])

	raw, err := repo.Get("country_info", "US")
	require.NoError(t, err)
	assert.NotNil(t, raw)
}
