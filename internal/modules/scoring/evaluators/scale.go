package evaluators

import (
	"github.com/skylease/watchtower/internal/domain"
	"github.com/skylease/watchtower/internal/modules/scoring"
)

// ScaleEvaluator scores counterparty scale from fleet size alone.
// Larger operators have historically been less likely to default on leases.
type ScaleEvaluator struct{}

func NewScaleEvaluator() *ScaleEvaluator {
	return &ScaleEvaluator{}
}

func (e *ScaleEvaluator) Key() string { return scoring.KeyScale }

func (e *ScaleEvaluator) DisplayName() string { return "Operator Scale" }

// scaleBand maps a fleet size to one of six fixed bands.
func scaleBand(fleetSize int) (score float64, label string) {
	switch {
	case fleetSize < 10:
		return 70, "very_small"
	case fleetSize < 25:
		return 55, "small"
	case fleetSize < 50:
		return 45, "medium"
	case fleetSize < 100:
		return 35, "large"
	case fleetSize < 200:
		return 25, "very_large"
	default:
		return 15, "major"
	}
}

func (e *ScaleEvaluator) Evaluate(rc domain.RiskContext) (domain.ComponentScore, error) {
	fleetSize := rc.Airline.FleetSize
	if fleetSize <= 0 {
		// Unknown fleet: neutral, low confidence, never an error.
		score := 50.0
		return domain.ComponentScore{
			Score:      &score,
			Confidence: domain.ConfidenceLow,
			Metadata: map[string]interface{}{
				"reason": "fleet size unknown",
			},
		}, nil
	}

	score, band := scaleBand(fleetSize)
	return domain.ComponentScore{
		Score:      &score,
		Confidence: domain.ConfidenceHigh,
		Metadata: map[string]interface{}{
			"fleet_size": fleetSize,
			"band":       band,
		},
	}, nil
}
