package scoring

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/skylease/watchtower/internal/domain"
	"github.com/skylease/watchtower/internal/utils"
)

// Evaluator is one pluggable risk dimension. Implementations are pure over
// the context except that the financial evaluator may consult its fundamentals
// provider; missing data must degrade to a nil-score ComponentScore, never an
// error. An error return is reserved for genuinely unexpected failures and is
// surfaced by the aggregator as an EvaluatorFailure.
type Evaluator interface {
	Key() string
	DisplayName() string
	Evaluate(rc domain.RiskContext) (domain.ComponentScore, error)
}

// Aggregator runs the configured evaluators and merges their component scores
// into a RiskResult, renormalizing weights over available components.
type Aggregator struct {
	cfg        Config
	evaluators []Evaluator
	log        zerolog.Logger
}

// NewAggregator creates an aggregator over an ordered evaluator list.
// Evaluation happens in slice order; the financial evaluator's fundamentals
// are back-filled into the context before later evaluators run.
func NewAggregator(cfg Config, evaluators []Evaluator, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		cfg:        cfg,
		evaluators: evaluators,
		log:        log.With().Str("component", "risk_aggregator").Logger(),
	}
}

// neutralScore is used when no component is available at all.
const neutralScore = 50.0

// Aggregate evaluates every enabled evaluator against the context and merges
// the results.
//
// Algorithm:
//  1. Run evaluators sequentially in declaration order. After the financial
//     evaluator returns, its fundamentals are copied into the context so that
//     subsequent evaluators see enriched data. This is the only mutation
//     point, and it produces a new context value rather than sharing state.
//  2. Partition components into available (score != nil) and unavailable.
//  3. overall = sum(score_i * weight_i) / totalAvailableWeight, rounded to
//     one decimal. If nothing is available the overall defaults to neutral 50.
//  4. When 0 < totalAvailableWeight < 1 the result is marked reweighted and
//     each available entry gets effectiveWeight = weight / totalAvailableWeight
//     so effective weights still sum to 1.0.
func (a *Aggregator) Aggregate(rc domain.RiskContext) (*domain.RiskResult, error) {
	components := make(map[string]domain.ComponentScore, len(a.evaluators))
	breakdown := make([]domain.BreakdownEntry, 0, len(a.evaluators))

	for _, ev := range a.evaluators {
		cs, err := ev.Evaluate(rc)
		if err != nil {
			// Not swallowed: the caller decides fallback-to-neutral vs hard failure.
			return nil, &EvaluatorFailure{Key: ev.Key(), Err: err}
		}

		components[ev.Key()] = cs
		breakdown = append(breakdown, domain.BreakdownEntry{
			Dimension:  ev.Key(),
			Name:       ev.DisplayName(),
			Score:      cs.Score,
			Confidence: cs.Confidence,
			Weight:     a.cfg.Weight(ev.Key()),
		})

		// Single controlled back-fill: fundamentals fetched by the financial
		// evaluator become part of the context for evaluators after it.
		if ev.Key() == KeyFinancial && rc.Financials == nil {
			if fd, ok := cs.Metadata["fundamentals"].(*domain.FinancialData); ok && fd != nil {
				rc = rc.WithFinancials(fd)
			}
		}
	}

	totalAvailableWeight := 0.0
	weightedSum := 0.0
	missing := []string{}
	for i := range breakdown {
		entry := &breakdown[i]
		if entry.Score != nil {
			totalAvailableWeight += entry.Weight
			weightedSum += *entry.Score * entry.Weight
		} else {
			missing = append(missing, entry.Name)
		}
	}

	now := time.Now().UTC()
	result := &domain.RiskResult{
		AirlineCode:  rc.Airline.Code,
		Components:   components,
		Breakdown:    breakdown,
		CalculatedAt: now,
		ExpiresAt:    now.Add(a.cfg.SnapshotTTL),
		Metadata: domain.ResultMetadata{
			MissingComponents: missing,
			ConfigVersion:     ConfigVersion,
		},
	}

	if totalAvailableWeight == 0 {
		// Fully unknown airline: neutral score, full metadata explaining why.
		result.OverallScore = neutralScore
		result.RiskBucket = a.cfg.Thresholds.Bucket(neutralScore)
		a.log.Warn().
			Str("airline", rc.Airline.Code).
			Msg("No risk components available, defaulting to neutral score")
		return result, nil
	}

	result.OverallScore = utils.Round1(weightedSum / totalAvailableWeight)
	result.RiskBucket = a.cfg.Thresholds.Bucket(result.OverallScore)

	reweighted := totalAvailableWeight < 1.0
	result.Metadata.Reweighted = reweighted
	for i := range result.Breakdown {
		entry := &result.Breakdown[i]
		if entry.Score == nil {
			entry.EffectiveWeight = 0
			continue
		}
		if reweighted {
			entry.EffectiveWeight = entry.Weight / totalAvailableWeight
		} else {
			entry.EffectiveWeight = entry.Weight
		}
	}

	a.log.Debug().
		Str("airline", rc.Airline.Code).
		Float64("score", result.OverallScore).
		Str("bucket", string(result.RiskBucket)).
		Bool("reweighted", reweighted).
		Int("missing", len(missing)).
		Msg("Risk aggregation completed")

	return result, nil
}
