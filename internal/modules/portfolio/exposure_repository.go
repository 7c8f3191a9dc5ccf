package portfolio

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/skylease/watchtower/internal/domain"
)

// Portfolio is a named collection of lease exposures.
type Portfolio struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ExposureRepository handles portfolio and exposure database operations.
// Exposure uniqueness (one airline per portfolio) is enforced here via the
// primary key, not by the risk engine.
type ExposureRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewExposureRepository creates a new exposure repository.
func NewExposureRepository(db *sql.DB, log zerolog.Logger) *ExposureRepository {
	return &ExposureRepository{
		db:  db,
		log: log.With().Str("repo", "exposures").Logger(),
	}
}

// CreatePortfolio inserts a new portfolio and returns it.
func (r *ExposureRepository) CreatePortfolio(name string) (*Portfolio, error) {
	p := &Portfolio{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	_, err := r.db.Exec(
		"INSERT INTO portfolios (id, name, created_at) VALUES (?, ?, ?)",
		p.ID, p.Name, p.CreatedAt.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to create portfolio: %w", err)
	}

	return p, nil
}

// GetPortfolio returns a portfolio by id, or nil when not found.
func (r *ExposureRepository) GetPortfolio(id string) (*Portfolio, error) {
	var p Portfolio
	var createdAt int64
	err := r.db.QueryRow(
		"SELECT id, name, created_at FROM portfolios WHERE id = ?", id).
		Scan(&p.ID, &p.Name, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio %s: %w", id, err)
	}
	p.CreatedAt = time.Unix(createdAt, 0).UTC()

	return &p, nil
}

// ListPortfolios returns all portfolios ordered by creation time.
func (r *ExposureRepository) ListPortfolios() ([]Portfolio, error) {
	rows, err := r.db.Query("SELECT id, name, created_at FROM portfolios ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios: %w", err)
	}
	defer rows.Close()

	var portfolios []Portfolio
	for rows.Next() {
		var p Portfolio
		var createdAt int64
		if err := rows.Scan(&p.ID, &p.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		p.CreatedAt = time.Unix(createdAt, 0).UTC()
		portfolios = append(portfolios, p)
	}

	return portfolios, rows.Err()
}

// GetExposures returns a portfolio's exposures in insertion order.
// Stable ordering matters: ranked rows keep insertion order on amount ties.
func (r *ExposureRepository) GetExposures(portfolioID string) ([]domain.Exposure, error) {
	rows, err := r.db.Query(`
		SELECT portfolio_id, airline_code, airline_name, amount, currency, aircraft_count
		FROM exposures WHERE portfolio_id = ? ORDER BY position`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query exposures: %w", err)
	}
	defer rows.Close()

	var exposures []domain.Exposure
	for rows.Next() {
		var exp domain.Exposure
		err := rows.Scan(&exp.PortfolioID, &exp.AirlineCode, &exp.AirlineName,
			&exp.Amount, &exp.Currency, &exp.AircraftCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exposure: %w", err)
		}
		exposures = append(exposures, exp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exposures: %w", err)
	}

	return exposures, nil
}

// UpsertExposure inserts or replaces an exposure. Amount must be positive.
func (r *ExposureRepository) UpsertExposure(exp domain.Exposure) error {
	if exp.Amount <= 0 {
		return fmt.Errorf("exposure amount must be positive, got %v", exp.Amount)
	}
	if exp.Currency == "" {
		return fmt.Errorf("exposure currency is required")
	}

	// Keep the original position on replace so insertion order stays stable.
	var position int64
	err := r.db.QueryRow(
		"SELECT position FROM exposures WHERE portfolio_id = ? AND airline_code = ?",
		exp.PortfolioID, exp.AirlineCode).Scan(&position)
	if err == sql.ErrNoRows {
		if err := r.db.QueryRow(
			"SELECT COALESCE(MAX(position), 0) + 1 FROM exposures WHERE portfolio_id = ?",
			exp.PortfolioID).Scan(&position); err != nil {
			return fmt.Errorf("failed to compute exposure position: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("failed to look up exposure position: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT OR REPLACE INTO exposures
			(portfolio_id, airline_code, airline_name, amount, currency, aircraft_count, position)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		exp.PortfolioID, exp.AirlineCode, exp.AirlineName, exp.Amount,
		exp.Currency, exp.AircraftCount, position)
	if err != nil {
		return fmt.Errorf("failed to upsert exposure: %w", err)
	}

	return nil
}

// DeleteExposure removes one airline's exposure from a portfolio.
func (r *ExposureRepository) DeleteExposure(portfolioID, airlineCode string) error {
	_, err := r.db.Exec(
		"DELETE FROM exposures WHERE portfolio_id = ? AND airline_code = ?",
		portfolioID, airlineCode)
	if err != nil {
		return fmt.Errorf("failed to delete exposure: %w", err)
	}
	return nil
}
