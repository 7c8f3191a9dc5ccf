package portfolio

import (
	"github.com/google/uuid"

	"github.com/skylease/watchtower/internal/domain"
)

// Override is a hypothetical replacement of one airline's exposure amount.
type Override struct {
	AirlineCode string
	Amount      float64
}

// topExposureLimit caps the ranked list attached to scenario results.
const topExposureLimit = 10

// Scenario re-applies the currency risk formula to an in-memory copy of one
// currency's exposures with at most one amount overridden. The input slice and
// its rows are never mutated; non-positive rows are filtered out first. An
// override naming an unknown airline is a no-op, mirroring the engine's
// degrade-gracefully policy.
func (c *Calculator) Scenario(
	exposures []domain.Exposure,
	currency string,
	override *Override,
	lookup ScoreLookup,
) domain.ScenarioResult {
	rows := make([]domain.Exposure, 0, len(exposures))
	overrideApplied := false
	for _, exp := range exposures {
		if exp.Currency != currency {
			continue
		}
		// exp is already a copy; adjusting it cannot touch the caller's data.
		if override != nil && exp.AirlineCode == override.AirlineCode {
			exp.Amount = override.Amount
			overrideApplied = true
		}
		if exp.Amount <= 0 {
			continue
		}
		rows = append(rows, exp)
	}

	result := domain.ScenarioResult{
		ScenarioID:      uuid.NewString(),
		OverrideApplied: overrideApplied,
	}

	if len(rows) == 0 {
		result.CurrencyRiskResult = domain.CurrencyRiskResult{
			Currency:   currency,
			RiskBucket: c.thresholds.Bucket(0),
		}
		result.TopExposures = []domain.ExposureRow{}
		return result
	}

	result.CurrencyRiskResult = c.calculateCurrency(currency, rows, lookup)

	top := result.Rows
	if len(top) > topExposureLimit {
		top = top[:topExposureLimit]
	}
	result.TopExposures = top

	c.log.Debug().
		Str("scenario_id", result.ScenarioID).
		Str("currency", currency).
		Bool("override_applied", overrideApplied).
		Float64("adjusted_risk", result.AdjustedRisk).
		Msg("Scenario calculated")

	return result
}
