package evaluators

import (
	"github.com/rs/zerolog"

	"github.com/skylease/watchtower/internal/domain"
	"github.com/skylease/watchtower/internal/modules/scoring"
	"github.com/skylease/watchtower/internal/utils"
)

// FundamentalsProvider supplies financial fundamentals for a market ticker.
// Implementations must tolerate their upstream being unreachable: return
// (nil, nil) when nothing is available rather than erroring into the engine.
// The provider may serve representative fallback data, marked via
// FinancialData.Source.
type FundamentalsProvider interface {
	Fundamentals(ticker string) (*domain.FinancialData, error)
}

// Sub-score weights of the financial strength blend.
const (
	debtSubWeight      = 0.4
	profitSubWeight    = 0.4
	liquiditySubWeight = 0.2
)

// FinancialEvaluator scores balance-sheet strength for publicly traded
// carriers. Private carriers (no ticker) are conceptually inapplicable and
// return a nil score for reweighting.
type FinancialEvaluator struct {
	provider FundamentalsProvider
	log      zerolog.Logger
}

func NewFinancialEvaluator(provider FundamentalsProvider, log zerolog.Logger) *FinancialEvaluator {
	return &FinancialEvaluator{
		provider: provider,
		log:      log.With().Str("evaluator", "financial").Logger(),
	}
}

func (e *FinancialEvaluator) Key() string { return scoring.KeyFinancial }

func (e *FinancialEvaluator) DisplayName() string { return "Financial Strength" }

func (e *FinancialEvaluator) Evaluate(rc domain.RiskContext) (domain.ComponentScore, error) {
	if rc.Airline.Ticker == "" {
		return domain.ComponentScore{
			Score:      nil,
			Confidence: domain.ConfidenceLow,
			Metadata: map[string]interface{}{
				"reason": "not tradable (private carrier)",
			},
		}, nil
	}

	fd := rc.Financials
	if fd == nil && e.provider != nil {
		fetched, err := e.provider.Fundamentals(rc.Airline.Ticker)
		if err != nil {
			// Provider failures are a data-availability condition here,
			// not an evaluator failure.
			e.log.Warn().Err(err).Str("ticker", rc.Airline.Ticker).
				Msg("Fundamentals fetch failed, component unavailable")
			return domain.ComponentScore{
				Score:      nil,
				Confidence: domain.ConfidenceLow,
				Metadata: map[string]interface{}{
					"reason": "fundamentals fetch failed",
				},
			}, nil
		}
		fd = fetched
	}

	if fd == nil {
		return domain.ComponentScore{
			Score:      nil,
			Confidence: domain.ConfidenceLow,
			Metadata: map[string]interface{}{
				"reason": "fundamentals unavailable",
			},
		}, nil
	}

	debtScore := debtToEquitySubScore(fd.DebtToEquity)
	profitScore := profitabilitySubScore(fd.ProfitMargin)
	liquidityScore := liquiditySubScore(fd.CashToDebt)

	blended := debtScore*debtSubWeight + profitScore*profitSubWeight + liquidityScore*liquiditySubWeight
	score := utils.Round1(utils.Clamp(blended, 0, 100))

	confidence := domain.ConfidenceMedium
	if fd.Source == "live" {
		confidence = domain.ConfidenceHigh
	}

	return domain.ComponentScore{
		Score:      &score,
		Confidence: confidence,
		Metadata: map[string]interface{}{
			"fundamentals": fd,
			"sub_scores": map[string]float64{
				"debt_to_equity": utils.Round2(debtScore),
				"profitability":  utils.Round2(profitScore),
				"liquidity":      utils.Round2(liquidityScore),
			},
			"source": fd.Source,
		},
	}, nil
}

// debtToEquitySubScore scores leverage in piecewise bands. Above 5x the score
// keeps climbing linearly so a 8x-levered carrier reads worse than a 5x one.
func debtToEquitySubScore(d float64) float64 {
	switch {
	case d < 1:
		return 0
	case d < 2:
		return 20
	case d < 3:
		return 40
	case d < 5:
		return 70
	default:
		return utils.Clamp(90+5*(d-5), 0, 100)
	}
}

// profitabilitySubScore scores net margin (percent). Negative margins ramp up
// steeply; thin margins taper down toward healthy double-digit ones.
func profitabilitySubScore(margin float64) float64 {
	switch {
	case margin < 0:
		return utils.Clamp(80+5*-margin, 0, 100)
	case margin < 2:
		return 60 - 10*margin
	case margin < 5:
		return 40 - 6.67*(margin-2)
	case margin < 10:
		return 20 - 3*(margin-5)
	default:
		v := 5 - 0.5*(margin-10)
		if v < 0 {
			return 0
		}
		return v
	}
}

// liquiditySubScore scores the cash/debt ratio in coarse bands.
func liquiditySubScore(cashToDebt float64) float64 {
	switch {
	case cashToDebt >= 1.0:
		return 0
	case cashToDebt >= 0.5:
		return 20
	case cashToDebt >= 0.3:
		return 40
	case cashToDebt >= 0.1:
		return 70
	default:
		return 90
	}
}
