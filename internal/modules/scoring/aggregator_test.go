package scoring

import (
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylease/watchtower/internal/domain"
)

// stubEvaluator is a fixed-output evaluator for aggregator tests.
type stubEvaluator struct {
	key      string
	name     string
	score    *float64
	metadata map[string]interface{}
	err      error
}

func (s *stubEvaluator) Key() string         { return s.key }
func (s *stubEvaluator) DisplayName() string { return s.name }
func (s *stubEvaluator) Evaluate(rc domain.RiskContext) (domain.ComponentScore, error) {
	if s.err != nil {
		return domain.ComponentScore{}, s.err
	}
	return domain.ComponentScore{
		Score:      s.score,
		Confidence: domain.ConfidenceHigh,
		Metadata:   s.metadata,
	}, nil
}

// contextProbe records whether it saw fundamentals in the context.
type contextProbe struct {
	sawFinancials bool
}

func (p *contextProbe) Key() string         { return "probe" }
func (p *contextProbe) DisplayName() string { return "Probe" }
func (p *contextProbe) Evaluate(rc domain.RiskContext) (domain.ComponentScore, error) {
	p.sawFinancials = rc.Financials != nil
	score := 50.0
	return domain.ComponentScore{Score: &score, Confidence: domain.ConfidenceLow}, nil
}

func f(v float64) *float64 { return &v }

func testContext() domain.RiskContext {
	return domain.RiskContext{
		Airline: domain.Airline{Code: "WT", Name: "Watchtower Air", Active: true},
	}
}

func TestAggregateAllComponentsAvailable(t *testing.T) {
	cfg := DefaultConfig()
	agg := NewAggregator(cfg, []Evaluator{
		&stubEvaluator{key: KeyJurisdiction, name: "Jurisdiction Risk", score: f(40)},
		&stubEvaluator{key: KeyScale, name: "Operator Scale", score: f(30)},
		&stubEvaluator{key: KeyAssetLiquidity, name: "Asset Liquidity", score: f(20)},
		&stubEvaluator{key: KeyFinancial, name: "Financial Strength", score: f(60)},
	}, zerolog.Nop())

	result, err := agg.Aggregate(testContext())
	require.NoError(t, err)

	// 40*0.25 + 30*0.20 + 20*0.20 + 60*0.35 = 41.0
	assert.InDelta(t, 41.0, result.OverallScore, 1e-9)
	assert.Equal(t, domain.BucketMedium, result.RiskBucket)
	assert.False(t, result.Metadata.Reweighted)
	assert.Empty(t, result.Metadata.MissingComponents)

	// Effective weights equal configured weights when nothing is missing.
	for _, entry := range result.Breakdown {
		assert.InDelta(t, cfg.Weight(entry.Dimension), entry.EffectiveWeight, 1e-9)
	}
}

func TestAggregateReweightsMissingFinancial(t *testing.T) {
	cfg := DefaultConfig()
	agg := NewAggregator(cfg, []Evaluator{
		&stubEvaluator{key: KeyJurisdiction, name: "Jurisdiction Risk", score: f(40)},
		&stubEvaluator{key: KeyScale, name: "Operator Scale", score: f(30)},
		&stubEvaluator{key: KeyAssetLiquidity, name: "Asset Liquidity", score: f(20)},
		&stubEvaluator{key: KeyFinancial, name: "Financial Strength", score: nil},
	}, zerolog.Nop())

	result, err := agg.Aggregate(testContext())
	require.NoError(t, err)

	assert.True(t, result.Metadata.Reweighted)
	assert.Equal(t, []string{"Financial Strength"}, result.Metadata.MissingComponents)

	// Remaining 65% of weight renormalized: (40*0.25+30*0.20+20*0.20)/0.65 = 30.769 -> 30.8
	assert.InDelta(t, 30.8, result.OverallScore, 1e-9)

	// Effective weights over available components sum to 1.0.
	sum := 0.0
	for _, entry := range result.Breakdown {
		if entry.Dimension == KeyFinancial {
			assert.Zero(t, entry.EffectiveWeight)
			continue
		}
		sum += entry.EffectiveWeight
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestAggregateEffectiveWeightsSumToOne(t *testing.T) {
	// Property check across several availability patterns.
	patterns := [][]*float64{
		{f(10), nil, nil, f(90)},
		{nil, f(55), f(70), nil},
		{f(33), f(44), nil, f(66)},
		{f(25), nil, f(75), nil},
	}

	for _, pattern := range patterns {
		agg := NewAggregator(DefaultConfig(), []Evaluator{
			&stubEvaluator{key: KeyJurisdiction, name: "Jurisdiction Risk", score: pattern[0]},
			&stubEvaluator{key: KeyScale, name: "Operator Scale", score: pattern[1]},
			&stubEvaluator{key: KeyAssetLiquidity, name: "Asset Liquidity", score: pattern[2]},
			&stubEvaluator{key: KeyFinancial, name: "Financial Strength", score: pattern[3]},
		}, zerolog.Nop())

		result, err := agg.Aggregate(testContext())
		require.NoError(t, err)
		require.True(t, result.Metadata.Reweighted)

		sum := 0.0
		for _, entry := range result.Breakdown {
			sum += entry.EffectiveWeight
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}
}

func TestAggregateNothingAvailable(t *testing.T) {
	agg := NewAggregator(DefaultConfig(), []Evaluator{
		&stubEvaluator{key: KeyJurisdiction, name: "Jurisdiction Risk", score: nil},
		&stubEvaluator{key: KeyFinancial, name: "Financial Strength", score: nil},
	}, zerolog.Nop())

	result, err := agg.Aggregate(testContext())
	require.NoError(t, err)

	assert.InDelta(t, 50.0, result.OverallScore, 1e-9)
	assert.Equal(t, domain.BucketMedium, result.RiskBucket)
	assert.Len(t, result.Metadata.MissingComponents, 2)
}

func TestAggregateEvaluatorFailurePropagates(t *testing.T) {
	boom := errors.New("boom")
	agg := NewAggregator(DefaultConfig(), []Evaluator{
		&stubEvaluator{key: KeyJurisdiction, name: "Jurisdiction Risk", score: f(40)},
		&stubEvaluator{key: KeyScale, name: "Operator Scale", err: boom},
	}, zerolog.Nop())

	_, err := agg.Aggregate(testContext())
	require.Error(t, err)

	var failure *EvaluatorFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, KeyScale, failure.Key)
	assert.ErrorIs(t, err, boom)
}

func TestAggregateBackfillsFinancialsForLaterEvaluators(t *testing.T) {
	fd := &domain.FinancialData{DebtToEquity: 2.5, Source: "live"}
	probe := &contextProbe{}

	agg := NewAggregator(DefaultConfig(), []Evaluator{
		&stubEvaluator{
			key:      KeyFinancial,
			name:     "Financial Strength",
			score:    f(60),
			metadata: map[string]interface{}{"fundamentals": fd},
		},
		probe,
	}, zerolog.Nop())

	_, err := agg.Aggregate(testContext())
	require.NoError(t, err)
	assert.True(t, probe.sawFinancials, "evaluators after financial should see enriched context")
}

func TestAggregateDoesNotMutateCallerContext(t *testing.T) {
	fd := &domain.FinancialData{DebtToEquity: 2.5}
	rc := testContext()

	agg := NewAggregator(DefaultConfig(), []Evaluator{
		&stubEvaluator{
			key:      KeyFinancial,
			name:     "Financial Strength",
			score:    f(60),
			metadata: map[string]interface{}{"fundamentals": fd},
		},
	}, zerolog.Nop())

	_, err := agg.Aggregate(rc)
	require.NoError(t, err)
	assert.Nil(t, rc.Financials, "back-fill must produce a new context value")
}

func TestThresholdsBucket(t *testing.T) {
	th := Thresholds{Low: 40, Medium: 70}

	assert.Equal(t, domain.BucketLow, th.Bucket(0))
	assert.Equal(t, domain.BucketLow, th.Bucket(40))
	assert.Equal(t, domain.BucketMedium, th.Bucket(40.1))
	assert.Equal(t, domain.BucketMedium, th.Bucket(70))
	assert.Equal(t, domain.BucketHigh, th.Bucket(70.1))
	assert.Equal(t, domain.BucketHigh, th.Bucket(100))
}

func TestThresholdsAreInjectable(t *testing.T) {
	// The legacy 30/60 scheme must be expressible without code changes.
	cfg := DefaultConfig()
	cfg.Thresholds = Thresholds{Low: 30, Medium: 60}

	agg := NewAggregator(cfg, []Evaluator{
		&stubEvaluator{key: KeyJurisdiction, name: "Jurisdiction Risk", score: f(65)},
	}, zerolog.Nop())

	result, err := agg.Aggregate(testContext())
	require.NoError(t, err)
	assert.Equal(t, domain.BucketHigh, result.RiskBucket)
}

func TestDefaultConfigWeightsSumToOne(t *testing.T) {
	cfg := DefaultConfig()
	sum := 0.0
	for _, w := range cfg.Weights {
		sum += w
	}
	assert.True(t, math.Abs(sum-1.0) < 1e-9, "configured weights must sum to 1.0, got %v", sum)
}
