package evaluators

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylease/watchtower/internal/domain"
)

type stubProvider struct {
	data *domain.FinancialData
	err  error
}

func (s *stubProvider) Fundamentals(ticker string) (*domain.FinancialData, error) {
	return s.data, s.err
}

func tradableAirline() domain.Airline {
	return domain.Airline{Code: "AA", Name: "American Airlines", Active: true, FleetSize: 950, Ticker: "AAL"}
}

func TestFinancialEvaluatorPrivateCarrier(t *testing.T) {
	ev := NewFinancialEvaluator(&stubProvider{}, zerolog.Nop())

	cs, err := ev.Evaluate(domain.RiskContext{
		Airline: domain.Airline{Code: "PR", Name: "Private Air", Active: true},
	})
	require.NoError(t, err)

	assert.Nil(t, cs.Score)
	assert.Equal(t, domain.ConfidenceLow, cs.Confidence)
	assert.Contains(t, cs.Metadata["reason"], "not tradable")
}

func TestFinancialEvaluatorProviderUnavailable(t *testing.T) {
	tests := []struct {
		name     string
		provider FundamentalsProvider
	}{
		{name: "Provider returns nothing", provider: &stubProvider{}},
		{name: "Provider errors", provider: &stubProvider{err: errors.New("upstream down")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := NewFinancialEvaluator(tt.provider, zerolog.Nop())

			cs, err := ev.Evaluate(domain.RiskContext{Airline: tradableAirline()})
			require.NoError(t, err, "provider problems must not error into the engine")
			assert.Nil(t, cs.Score)
			assert.Equal(t, domain.ConfidenceLow, cs.Confidence)
		})
	}
}

func TestFinancialEvaluatorAmericanAirlinesProfile(t *testing.T) {
	// Representative American Airlines profile from the seed dataset.
	provider := &stubProvider{data: &domain.FinancialData{
		DebtToEquity: 5.25,
		ProfitMargin: 2.88,
		CashToDebt:   0.29,
		Source:       "representative",
	}}
	ev := NewFinancialEvaluator(provider, zerolog.Nop())

	cs, err := ev.Evaluate(domain.RiskContext{Airline: tradableAirline()})
	require.NoError(t, err)
	require.NotNil(t, cs.Score)

	// debt: 90 + 5*0.25 = 91.25
	// profit: 40 - 6.67*0.88 = 34.1304
	// liquidity: 0.29 -> 70
	// 0.4*91.25 + 0.4*34.1304 + 0.2*70 = 64.15216 -> 64.2
	assert.InDelta(t, 64.2, *cs.Score, 1e-9)
	assert.Equal(t, domain.ConfidenceMedium, cs.Confidence, "representative data caps confidence at medium")

	subScores, ok := cs.Metadata["sub_scores"].(map[string]float64)
	require.True(t, ok)
	assert.InDelta(t, 91.25, subScores["debt_to_equity"], 1e-9)
	assert.InDelta(t, 70.0, subScores["liquidity"], 1e-9)
}

func TestFinancialEvaluatorLiveDataHighConfidence(t *testing.T) {
	provider := &stubProvider{data: &domain.FinancialData{
		DebtToEquity: 0.8,
		ProfitMargin: 12,
		CashToDebt:   1.2,
		Source:       "live",
	}}
	ev := NewFinancialEvaluator(provider, zerolog.Nop())

	cs, err := ev.Evaluate(domain.RiskContext{Airline: tradableAirline()})
	require.NoError(t, err)
	require.NotNil(t, cs.Score)

	// debt 0, profit 5-0.5*2=4, liquidity 0 -> 0.4*4 = 1.6
	assert.InDelta(t, 1.6, *cs.Score, 1e-9)
	assert.Equal(t, domain.ConfidenceHigh, cs.Confidence)
}

func TestFinancialEvaluatorUsesContextFundamentalsFirst(t *testing.T) {
	// When the context already carries fundamentals (aggregator back-fill or a
	// previous evaluation), the provider must not be consulted.
	provider := &stubProvider{err: errors.New("should not be called")}
	ev := NewFinancialEvaluator(provider, zerolog.Nop())

	cs, err := ev.Evaluate(domain.RiskContext{
		Airline: tradableAirline(),
		Financials: &domain.FinancialData{
			DebtToEquity: 2.5,
			ProfitMargin: 6,
			CashToDebt:   0.4,
			Source:       "live",
		},
	})
	require.NoError(t, err)
	require.NotNil(t, cs.Score)

	// debt 40, profit 20-3*1=17, liquidity 40 -> 0.4*40+0.4*17+0.2*40 = 30.8
	assert.InDelta(t, 30.8, *cs.Score, 1e-9)
}

func TestProfitabilitySubScoreBands(t *testing.T) {
	tests := []struct {
		margin float64
		want   float64
	}{
		{margin: -10, want: 100}, // 80 + 50 clamped
		{margin: -2, want: 90},
		{margin: 0, want: 60},
		{margin: 1.5, want: 45},
		{margin: 2, want: 40},
		{margin: 5, want: 20},
		{margin: 9, want: 8},
		{margin: 10, want: 5},
		{margin: 25, want: 0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, profitabilitySubScore(tt.margin), 1e-9,
			"margin %v", tt.margin)
	}
}
