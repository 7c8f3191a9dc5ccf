// Package portfolio implements lease-exposure storage and the portfolio risk
// calculator: per-currency exposure-weighted risk, concentration penalties,
// and side-effect-free scenario runs.
package portfolio

import (
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/skylease/watchtower/internal/domain"
	"github.com/skylease/watchtower/internal/modules/scoring"
	"github.com/skylease/watchtower/internal/utils"
)

// ScoreLookup resolves an airline's most recent overall risk score.
// The second return reports whether a score is on file.
type ScoreLookup func(airlineCode string) (float64, bool)

// defaultAirlineRisk is used when no score is on file for an airline.
// A defined fallback, not an error.
const defaultAirlineRisk = 50.0

// Concentration penalty bands. Lower bounds are exclusive: exactly 0.5 or 0.7
// stays in the band below. This boundary is a compatibility contract.
const (
	concentrationHigh        = 0.7
	concentrationMed         = 0.5
	concentrationHighPenalty = 10.0
	concentrationMedPenalty  = 5.0
)

// Calculator aggregates lease exposures into per-currency risk results.
// Currencies are strictly isolated: no figure ever combines two of them.
type Calculator struct {
	thresholds scoring.Thresholds
	log        zerolog.Logger
}

// NewCalculator creates a portfolio risk calculator sharing the engine's
// bucket thresholds.
func NewCalculator(thresholds scoring.Thresholds, log zerolog.Logger) *Calculator {
	return &Calculator{
		thresholds: thresholds,
		log:        log.With().Str("component", "portfolio_calculator").Logger(),
	}
}

// Calculate groups exposures by currency and computes each group's weighted
// risk. An empty portfolio returns an empty result, never an error.
func (c *Calculator) Calculate(exposures []domain.Exposure, lookup ScoreLookup) domain.PortfolioRiskResult {
	groups := make(map[string][]domain.Exposure)
	currencies := []string{}
	for _, exp := range exposures {
		if _, seen := groups[exp.Currency]; !seen {
			currencies = append(currencies, exp.Currency)
		}
		groups[exp.Currency] = append(groups[exp.Currency], exp)
	}
	sort.Strings(currencies)

	perCurrency := make(map[string]domain.CurrencyRiskResult, len(groups))
	for _, currency := range currencies {
		perCurrency[currency] = c.calculateCurrency(currency, groups[currency], lookup)
	}

	return domain.PortfolioRiskResult{
		PerCurrency: perCurrency,
		Currencies:  currencies,
	}
}

// calculateCurrency computes the aggregate for one currency group.
// Exposures must all share the given currency.
func (c *Calculator) calculateCurrency(currency string, exposures []domain.Exposure, lookup ScoreLookup) domain.CurrencyRiskResult {
	amounts := make([]float64, len(exposures))
	risks := make([]float64, len(exposures))
	for i, exp := range exposures {
		amounts[i] = exp.Amount
		risk := defaultAirlineRisk
		if lookup != nil {
			if score, ok := lookup(exp.AirlineCode); ok {
				risk = score
			}
		}
		risks[i] = risk
	}

	totalExposure := floats.Sum(amounts)

	// Exposure-weighted average of per-airline risk.
	baseRisk := stat.Mean(risks, amounts)

	maxAmount := 0.0
	herfindahl := 0.0
	for _, amount := range amounts {
		if amount > maxAmount {
			maxAmount = amount
		}
		share := amount / totalExposure
		herfindahl += share * share
	}
	maxConcentration := maxAmount / totalExposure

	penalty := concentrationPenalty(maxConcentration)

	// The only clamp in the system that caps instead of erroring.
	adjustedRisk := baseRisk + penalty
	if adjustedRisk > 100 {
		adjustedRisk = 100
	}

	rows := make([]domain.ExposureRow, len(exposures))
	bucketTotals := domain.BucketTotals{}
	for i, exp := range exposures {
		// Each exposure is bucketed by its own airline's risk, not the
		// portfolio bucket.
		bucket := c.thresholds.Bucket(risks[i])
		switch bucket {
		case domain.BucketLow:
			bucketTotals.Low += exp.Amount
		case domain.BucketMedium:
			bucketTotals.Medium += exp.Amount
		case domain.BucketHigh:
			bucketTotals.High += exp.Amount
		}

		rows[i] = domain.ExposureRow{
			AirlineCode: exp.AirlineCode,
			AirlineName: exp.AirlineName,
			Amount:      utils.Round2(exp.Amount),
			SharePct:    utils.Round2(exp.Amount / totalExposure * 100),
			RiskScore:   utils.Round1(risks[i]),
			RiskBucket:  bucket,
		}
	}

	// Largest exposures first; ties keep insertion order.
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Amount > rows[j].Amount
	})

	return domain.CurrencyRiskResult{
		Currency:             currency,
		TotalExposure:        utils.Round2(totalExposure),
		BaseRisk:             utils.Round1(baseRisk),
		AdjustedRisk:         utils.Round1(adjustedRisk),
		ConcentrationPenalty: penalty,
		MaxConcentration:     utils.Round3(maxConcentration),
		HerfindahlIndex:      utils.Round3(herfindahl),
		RiskBucket:           c.thresholds.Bucket(adjustedRisk),
		BucketTotals: domain.BucketTotals{
			Low:    utils.Round2(bucketTotals.Low),
			Medium: utils.Round2(bucketTotals.Medium),
			High:   utils.Round2(bucketTotals.High),
		},
		Rows: rows,
	}
}

// concentrationPenalty returns the additive surcharge for a dominant exposure.
// Computed on the raw (unrounded) concentration so the exclusive bounds hold
// exactly.
func concentrationPenalty(maxConcentration float64) float64 {
	switch {
	case maxConcentration > concentrationHigh:
		return concentrationHighPenalty
	case maxConcentration > concentrationMed:
		return concentrationMedPenalty
	default:
		return 0
	}
}
