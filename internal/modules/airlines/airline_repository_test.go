package airlines

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/skylease/watchtower/internal/domain"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// In-memory databases are per-connection
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE airlines (
			code         TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			country_code TEXT NOT NULL DEFAULT '',
			active       INTEGER NOT NULL DEFAULT 1,
			fleet_size   INTEGER NOT NULL DEFAULT 0,
			ticker       TEXT NOT NULL DEFAULT '',
			updated_at   INTEGER NOT NULL DEFAULT 0
		)
	`)
	require.NoError(t, err)

	return db
}

func testRepo(t *testing.T) (*Repository, *sql.DB) {
	db := setupTestDB(t)
	log := zerolog.New(nil).Level(zerolog.Disabled)
	return NewRepository(db, log), db
}

func TestUpsertAndGetByCode(t *testing.T) {
	repo, db := testRepo(t)
	defer db.Close()

	airline := domain.Airline{
		Code:        "AA",
		Name:        "American Airlines",
		CountryCode: "US",
		Active:      true,
		FleetSize:   950,
		Ticker:      "AAL",
	}
	require.NoError(t, repo.Upsert(airline))

	got, err := repo.GetByCode("AA")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, airline, *got)
}

func TestGetByCodeNotFound(t *testing.T) {
	repo, db := testRepo(t)
	defer db.Close()

	got, err := repo.GetByCode("ZZ")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpsertReplacesExisting(t *testing.T) {
	repo, db := testRepo(t)
	defer db.Close()

	require.NoError(t, repo.Upsert(domain.Airline{Code: "FR", Name: "Ryanair", CountryCode: "IE", Active: true, FleetSize: 500}))
	require.NoError(t, repo.Upsert(domain.Airline{Code: "FR", Name: "Ryanair", CountryCode: "IE", Active: false, FleetSize: 540, Ticker: "RYAAY"}))

	got, err := repo.GetByCode("FR")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Active)
	assert.Equal(t, 540, got.FleetSize)
	assert.Equal(t, "RYAAY", got.Ticker)

	count, err := repo.GetCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGetAllOrderedByCode(t *testing.T) {
	repo, db := testRepo(t)
	defer db.Close()

	require.NoError(t, repo.Upsert(domain.Airline{Code: "UA", Name: "United", Active: true}))
	require.NoError(t, repo.Upsert(domain.Airline{Code: "AA", Name: "American", Active: true}))
	require.NoError(t, repo.Upsert(domain.Airline{Code: "DL", Name: "Delta", Active: true}))

	all, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "AA", all[0].Code)
	assert.Equal(t, "DL", all[1].Code)
	assert.Equal(t, "UA", all[2].Code)
}

func TestDelete(t *testing.T) {
	repo, db := testRepo(t)
	defer db.Close()

	require.NoError(t, repo.Upsert(domain.Airline{Code: "B6", Name: "JetBlue", Active: true}))
	require.NoError(t, repo.Delete("B6"))

	got, err := repo.GetByCode("B6")
	require.NoError(t, err)
	assert.Nil(t, got)
}
