package snapshots

import (
	"database/sql"
	"testing"
	"time"

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
		CREATE TABLE risk_snapshots (
			airline_code  TEXT PRIMARY KEY,
			payload       BLOB NOT NULL,
			overall_score REAL NOT NULL,
			risk_bucket   TEXT NOT NULL,
			calculated_at INTEGER NOT NULL,
			expires_at    INTEGER NOT NULL
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

func f(v float64) *float64 { return &v }

func sampleResult(code string, score float64, expiresAt time.Time) *domain.RiskResult {
	return &domain.RiskResult{
		AirlineCode:  code,
		OverallScore: score,
		RiskBucket:   domain.BucketMedium,
		Components: map[string]domain.ComponentScore{
			"jurisdiction": {Score: f(40), Confidence: domain.ConfidenceHigh},
			"scale":        {Score: nil, Confidence: domain.ConfidenceLow},
		},
		Breakdown: []domain.BreakdownEntry{
			{Dimension: "jurisdiction", Name: "Jurisdiction", Score: f(40), Confidence: domain.ConfidenceHigh, Weight: 0.25, EffectiveWeight: 1.0},
		},
		CalculatedAt: time.Now().UTC().Truncate(time.Second),
		ExpiresAt:    expiresAt,
		Metadata: domain.ResultMetadata{
			MissingComponents: []string{"scale"},
			Reweighted:        true,
			ConfigVersion:     "v3",
		},
	}
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	repo, db := testRepo(t)
	defer db.Close()

	original := sampleResult("AA", 52.5, time.Now().Add(6*time.Hour).UTC().Truncate(time.Second))
	require.NoError(t, repo.Save(original))

	got, err := repo.Get("AA")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, original.AirlineCode, got.AirlineCode)
	assert.Equal(t, original.OverallScore, got.OverallScore)
	assert.Equal(t, original.RiskBucket, got.RiskBucket)
	assert.Equal(t, original.Metadata, got.Metadata)
	require.Len(t, got.Breakdown, 1)
	assert.Equal(t, "jurisdiction", got.Breakdown[0].Dimension)

	// Nil component scores survive the round trip.
	require.Contains(t, got.Components, "scale")
	assert.Nil(t, got.Components["scale"].Score)
	require.Contains(t, got.Components, "jurisdiction")
	require.NotNil(t, got.Components["jurisdiction"].Score)
	assert.Equal(t, 40.0, *got.Components["jurisdiction"].Score)
}

func TestGetNotFound(t *testing.T) {
	repo, db := testRepo(t)
	defer db.Close()

	got, err := repo.Get("ZZ")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveReplacesPrevious(t *testing.T) {
	repo, db := testRepo(t)
	defer db.Close()

	require.NoError(t, repo.Save(sampleResult("AA", 40, time.Now().Add(time.Hour))))
	require.NoError(t, repo.Save(sampleResult("AA", 60, time.Now().Add(time.Hour))))

	got, err := repo.Get("AA")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 60.0, got.OverallScore)
}

func TestGetFreshRespectsExpiry(t *testing.T) {
	repo, db := testRepo(t)
	defer db.Close()

	now := time.Now()
	require.NoError(t, repo.Save(sampleResult("AA", 50, now.Add(time.Hour))))
	require.NoError(t, repo.Save(sampleResult("DL", 50, now.Add(-time.Hour))))

	fresh, err := repo.GetFresh("AA", now)
	require.NoError(t, err)
	assert.NotNil(t, fresh)

	stale, err := repo.GetFresh("DL", now)
	require.NoError(t, err)
	assert.Nil(t, stale)

	missing, err := repo.GetFresh("ZZ", now)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGetScoresIncludesStale(t *testing.T) {
	repo, db := testRepo(t)
	defer db.Close()

	now := time.Now()
	require.NoError(t, repo.Save(sampleResult("AA", 35.5, now.Add(time.Hour))))
	require.NoError(t, repo.Save(sampleResult("DL", 72.0, now.Add(-time.Hour))))

	scores, err := repo.GetScores()
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, 35.5, scores["AA"].OverallScore)
	assert.Equal(t, 72.0, scores["DL"].OverallScore)
	assert.Equal(t, domain.BucketMedium, scores["AA"].RiskBucket)
}

func TestListExpired(t *testing.T) {
	repo, db := testRepo(t)
	defer db.Close()

	now := time.Now()
	require.NoError(t, repo.Save(sampleResult("AA", 50, now.Add(time.Hour))))
	require.NoError(t, repo.Save(sampleResult("DL", 50, now.Add(-2*time.Hour))))
	require.NoError(t, repo.Save(sampleResult("UA", 50, now.Add(-time.Hour))))

	expired, err := repo.ListExpired(now)
	require.NoError(t, err)
	assert.Equal(t, []string{"DL", "UA"}, expired)
}

func TestDelete(t *testing.T) {
	repo, db := testRepo(t)
	defer db.Close()

	require.NoError(t, repo.Save(sampleResult("AA", 50, time.Now().Add(time.Hour))))
	require.NoError(t, repo.Delete("AA"))

	got, err := repo.Get("AA")
	require.NoError(t, err)
	assert.Nil(t, got)
}
