package evaluators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylease/watchtower/internal/domain"
)

func TestScaleEvaluatorBands(t *testing.T) {
	ev := NewScaleEvaluator()

	tests := []struct {
		name      string
		fleetSize int
		wantScore float64
		wantBand  string
	}{
		{name: "Very small", fleetSize: 3, wantScore: 70, wantBand: "very_small"},
		{name: "Very small upper edge", fleetSize: 9, wantScore: 70, wantBand: "very_small"},
		{name: "Small", fleetSize: 10, wantScore: 55, wantBand: "small"},
		{name: "Medium", fleetSize: 30, wantScore: 45, wantBand: "medium"},
		{name: "Large", fleetSize: 75, wantScore: 35, wantBand: "large"},
		{name: "Very large", fleetSize: 150, wantScore: 25, wantBand: "very_large"},
		{name: "Major at boundary", fleetSize: 200, wantScore: 15, wantBand: "major"},
		{name: "Major", fleetSize: 950, wantScore: 15, wantBand: "major"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs, err := ev.Evaluate(domain.RiskContext{
				Airline: domain.Airline{Code: "WT", Active: true, FleetSize: tt.fleetSize},
			})
			require.NoError(t, err)
			require.NotNil(t, cs.Score)
			assert.InDelta(t, tt.wantScore, *cs.Score, 1e-9)
			assert.Equal(t, domain.ConfidenceHigh, cs.Confidence)
			assert.Equal(t, tt.wantBand, cs.Metadata["band"])
		})
	}
}

func TestScaleEvaluatorUnknownFleet(t *testing.T) {
	ev := NewScaleEvaluator()

	cs, err := ev.Evaluate(domain.RiskContext{
		Airline: domain.Airline{Code: "WT", Active: true, FleetSize: 0},
	})
	require.NoError(t, err)

	require.NotNil(t, cs.Score)
	assert.InDelta(t, 50.0, *cs.Score, 1e-9)
	assert.Equal(t, domain.ConfidenceLow, cs.Confidence)
}
