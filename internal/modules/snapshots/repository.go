// Package snapshots persists computed risk results with a freshness window.
// The snapshot store is the boundary between the risk engine and its callers:
// most reads are served from here without touching the evaluators.
package snapshots

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/skylease/watchtower/internal/domain"
)

// Repository stores msgpack-encoded risk results in portfolio.db.
// One row per airline; saving overwrites the previous snapshot.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new snapshot repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "snapshots").Logger(),
	}
}

// Save persists a risk result, replacing any existing snapshot for the airline.
// The overall score and bucket are denormalized so portfolio calculations can
// read them without decoding the payload.
func (r *Repository) Save(result *domain.RiskResult) error {
	payload, err := msgpack.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot for %s: %w", result.AirlineCode, err)
	}

	_, err = r.db.Exec(`
		INSERT OR REPLACE INTO risk_snapshots
			(airline_code, payload, overall_score, risk_bucket, calculated_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		result.AirlineCode, payload, result.OverallScore, string(result.RiskBucket),
		result.CalculatedAt.Unix(), result.ExpiresAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save snapshot for %s: %w", result.AirlineCode, err)
	}

	return nil
}

// Get returns the stored snapshot for an airline regardless of freshness.
// Returns nil, nil when no snapshot exists.
func (r *Repository) Get(airlineCode string) (*domain.RiskResult, error) {
	var payload []byte
	err := r.db.QueryRow(
		"SELECT payload FROM risk_snapshots WHERE airline_code = ?", airlineCode).
		Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot for %s: %w", airlineCode, err)
	}

	var result domain.RiskResult
	if err := msgpack.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot for %s: %w", airlineCode, err)
	}

	return &result, nil
}

// GetFresh returns the stored snapshot only if it has not expired.
// Returns nil, nil when no snapshot exists or the snapshot is stale.
func (r *Repository) GetFresh(airlineCode string, now time.Time) (*domain.RiskResult, error) {
	var payload []byte
	err := r.db.QueryRow(
		"SELECT payload FROM risk_snapshots WHERE airline_code = ? AND expires_at > ?",
		airlineCode, now.Unix()).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot for %s: %w", airlineCode, err)
	}

	var result domain.RiskResult
	if err := msgpack.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot for %s: %w", airlineCode, err)
	}

	return &result, nil
}

// ScoreEntry is the denormalized score view used by portfolio calculations.
type ScoreEntry struct {
	OverallScore float64
	RiskBucket   domain.RiskBucket
}

// GetScores returns the denormalized score for every stored snapshot.
// Stale snapshots are included: a stale score beats the neutral default.
func (r *Repository) GetScores() (map[string]ScoreEntry, error) {
	rows, err := r.db.Query("SELECT airline_code, overall_score, risk_bucket FROM risk_snapshots")
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot scores: %w", err)
	}
	defer rows.Close()

	scores := make(map[string]ScoreEntry)
	for rows.Next() {
		var code, bucket string
		var score float64
		if err := rows.Scan(&code, &score, &bucket); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot score: %w", err)
		}
		scores[code] = ScoreEntry{OverallScore: score, RiskBucket: domain.RiskBucket(bucket)}
	}

	return scores, rows.Err()
}

// ListExpired returns the airline codes whose snapshots have expired.
// The refresh job uses this to recompute stale scores in the background.
func (r *Repository) ListExpired(now time.Time) ([]string, error) {
	rows, err := r.db.Query(
		"SELECT airline_code FROM risk_snapshots WHERE expires_at <= ? ORDER BY expires_at",
		now.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query expired snapshots: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan expired snapshot: %w", err)
		}
		codes = append(codes, code)
	}

	return codes, rows.Err()
}

// Delete removes an airline's snapshot.
func (r *Repository) Delete(airlineCode string) error {
	if _, err := r.db.Exec("DELETE FROM risk_snapshots WHERE airline_code = ?", airlineCode); err != nil {
		return fmt.Errorf("failed to delete snapshot for %s: %w", airlineCode, err)
	}
	return nil
}
