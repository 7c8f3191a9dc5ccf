// Package airlines provides the airline universe store.
package airlines

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/skylease/watchtower/internal/domain"
)

// Repository handles airline database operations against fleet.db.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new airline repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "airlines").Logger(),
	}
}

const airlineColumns = "code, name, country_code, active, fleet_size, ticker"

// GetAll returns all airlines ordered by code.
func (r *Repository) GetAll() ([]domain.Airline, error) {
	rows, err := r.db.Query("SELECT " + airlineColumns + " FROM airlines ORDER BY code")
	if err != nil {
		return nil, fmt.Errorf("failed to query airlines: %w", err)
	}
	defer rows.Close()

	var airlines []domain.Airline
	for rows.Next() {
		airline, err := scanAirline(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan airline: %w", err)
		}
		airlines = append(airlines, airline)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating airlines: %w", err)
	}

	return airlines, nil
}

// GetByCode returns a single airline, or nil when not found.
func (r *Repository) GetByCode(code string) (*domain.Airline, error) {
	row := r.db.QueryRow("SELECT "+airlineColumns+" FROM airlines WHERE code = ?", code)

	var airline domain.Airline
	var active int
	err := row.Scan(&airline.Code, &airline.Name, &airline.CountryCode, &active,
		&airline.FleetSize, &airline.Ticker)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get airline %s: %w", code, err)
	}
	airline.Active = active != 0

	return &airline, nil
}

// Upsert inserts or replaces an airline row.
func (r *Repository) Upsert(airline domain.Airline) error {
	active := 0
	if airline.Active {
		active = 1
	}

	_, err := r.db.Exec(`
		INSERT INTO airlines (code, name, country_code, active, fleet_size, ticker, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			name = excluded.name,
			country_code = excluded.country_code,
			active = excluded.active,
			fleet_size = excluded.fleet_size,
			ticker = excluded.ticker,
			updated_at = excluded.updated_at`,
		airline.Code, airline.Name, airline.CountryCode, active,
		airline.FleetSize, airline.Ticker, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert airline %s: %w", airline.Code, err)
	}

	return nil
}

// Delete removes an airline.
func (r *Repository) Delete(code string) error {
	if _, err := r.db.Exec("DELETE FROM airlines WHERE code = ?", code); err != nil {
		return fmt.Errorf("failed to delete airline %s: %w", code, err)
	}
	return nil
}

// GetCount returns the number of airlines in the universe.
func (r *Repository) GetCount() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM airlines").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count airlines: %w", err)
	}
	return count, nil
}

func scanAirline(rows *sql.Rows) (domain.Airline, error) {
	var airline domain.Airline
	var active int
	err := rows.Scan(&airline.Code, &airline.Name, &airline.CountryCode, &active,
		&airline.FleetSize, &airline.Ticker)
	if err != nil {
		return domain.Airline{}, err
	}
	airline.Active = active != 0
	return airline, nil
}
