// Package risk coordinates per-airline risk scoring: context assembly,
// aggregation and snapshot caching.
package risk

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/skylease/watchtower/internal/domain"
	"github.com/skylease/watchtower/internal/modules/scoring"
	"github.com/skylease/watchtower/internal/modules/snapshots"
)

// AirlineStore provides the airline universe.
type AirlineStore interface {
	GetByCode(code string) (*domain.Airline, error)
	GetAll() ([]domain.Airline, error)
}

// CountryProvider resolves jurisdiction metadata for a country code.
// A nil result with nil error means the provider has nothing for this country.
type CountryProvider interface {
	CountryInfo(countryCode string) (*domain.JurisdictionInfo, error)
}

// ActivityProvider reports recent flight activity for an airline.
type ActivityProvider interface {
	Activity(airlineCode string) (*domain.ActivityData, error)
}

// SnapshotStore persists computed risk results.
type SnapshotStore interface {
	Save(result *domain.RiskResult) error
	Get(airlineCode string) (*domain.RiskResult, error)
	GetFresh(airlineCode string, now time.Time) (*domain.RiskResult, error)
	GetScores() (map[string]snapshots.ScoreEntry, error)
}

// ErrAirlineNotFound is returned when the requested airline is not in the universe.
type ErrAirlineNotFound struct {
	Code string
}

func (e *ErrAirlineNotFound) Error() string {
	return fmt.Sprintf("airline not found: %s", e.Code)
}

// Service is the scoring orchestrator. It assembles the risk context from the
// airline store and data providers, runs the aggregator and maintains the
// snapshot cache.
type Service struct {
	airlines   AirlineStore
	country    CountryProvider
	activity   ActivityProvider
	aggregator *scoring.Aggregator
	store      SnapshotStore
	log        zerolog.Logger
}

// NewService creates a risk service.
func NewService(
	airlines AirlineStore,
	country CountryProvider,
	activity ActivityProvider,
	aggregator *scoring.Aggregator,
	store SnapshotStore,
	log zerolog.Logger,
) *Service {
	return &Service{
		airlines:   airlines,
		country:    country,
		activity:   activity,
		aggregator: aggregator,
		store:      store,
		log:        log.With().Str("service", "risk").Logger(),
	}
}

// Score returns the airline's risk result, served from the snapshot cache when
// a fresh snapshot exists. Set refresh to bypass the cache and recompute.
func (s *Service) Score(airlineCode string, refresh bool) (*domain.RiskResult, error) {
	if !refresh {
		cached, err := s.store.GetFresh(airlineCode, time.Now())
		if err != nil {
			return nil, err
		}
		if cached != nil {
			s.log.Debug().Str("airline", airlineCode).Msg("Serving risk score from snapshot")
			return cached, nil
		}
	}

	return s.Compute(airlineCode)
}

// Compute recomputes the airline's risk result and stores the new snapshot.
// Provider outages degrade to partial contexts; an evaluator failure is
// returned as-is so the caller can distinguish it from missing data.
func (s *Service) Compute(airlineCode string) (*domain.RiskResult, error) {
	airline, err := s.airlines.GetByCode(airlineCode)
	if err != nil {
		return nil, err
	}
	if airline == nil {
		return nil, &ErrAirlineNotFound{Code: airlineCode}
	}

	rc := s.buildContext(*airline)

	result, err := s.aggregator.Aggregate(rc)
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(result); err != nil {
		// The score itself is still good; log and return it.
		s.log.Error().Err(err).Str("airline", airlineCode).Msg("Failed to persist risk snapshot")
	}

	return result, nil
}

// buildContext gathers provider data for an airline. Each provider failure is
// logged and leaves the corresponding field nil; evaluators handle the gaps.
func (s *Service) buildContext(airline domain.Airline) domain.RiskContext {
	rc := domain.RiskContext{Airline: airline}

	if airline.CountryCode != "" {
		info, err := s.country.CountryInfo(airline.CountryCode)
		if err != nil {
			s.log.Warn().Err(err).
				Str("airline", airline.Code).
				Str("country", airline.CountryCode).
				Msg("Country data unavailable")
		} else {
			rc.Jurisdiction = info
		}
	}

	activity, err := s.activity.Activity(airline.Code)
	if err != nil {
		s.log.Warn().Err(err).Str("airline", airline.Code).Msg("Flight activity unavailable")
	} else {
		rc.Activity = activity
	}

	return rc
}

// ScoreLookup returns a lookup function over the current snapshot table for
// portfolio calculations. Codes without a snapshot report ok=false.
func (s *Service) ScoreLookup() (func(code string) (float64, bool), error) {
	scores, err := s.store.GetScores()
	if err != nil {
		return nil, err
	}
	return func(code string) (float64, bool) {
		entry, ok := scores[code]
		if !ok {
			return 0, false
		}
		return entry.OverallScore, true
	}, nil
}

// RefreshExpired recomputes every airline whose snapshot has lapsed, plus any
// airline with no snapshot at all. Returns the number of refreshed airlines;
// individual failures are logged and skipped so one bad airline cannot stall
// the sweep.
func (s *Service) RefreshExpired() (int, error) {
	airlines, err := s.airlines.GetAll()
	if err != nil {
		return 0, fmt.Errorf("failed to list airlines: %w", err)
	}

	now := time.Now()
	refreshed := 0
	for _, airline := range airlines {
		fresh, err := s.store.GetFresh(airline.Code, now)
		if err != nil {
			s.log.Error().Err(err).Str("airline", airline.Code).Msg("Snapshot lookup failed")
			continue
		}
		if fresh != nil {
			continue
		}

		if _, err := s.Compute(airline.Code); err != nil {
			s.log.Error().Err(err).Str("airline", airline.Code).Msg("Risk refresh failed")
			continue
		}
		refreshed++
	}

	return refreshed, nil
}
