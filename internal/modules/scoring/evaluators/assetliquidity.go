package evaluators

import (
	"github.com/skylease/watchtower/internal/domain"
	"github.com/skylease/watchtower/internal/modules/scoring"
)

// AssetLiquidityEvaluator is a proxy for how easily the leased assets could be
// remarketed. A full evaluation needs fleet composition data (types, ages,
// market depth per type) which no current provider supplies, so the dimension
// is unavailable-by-design for active carriers and gets reweighted away.
// An inactive carrier is the exception: grounded fleets are a distress signal
// scored directly.
type AssetLiquidityEvaluator struct{}

func NewAssetLiquidityEvaluator() *AssetLiquidityEvaluator {
	return &AssetLiquidityEvaluator{}
}

func (e *AssetLiquidityEvaluator) Key() string { return scoring.KeyAssetLiquidity }

func (e *AssetLiquidityEvaluator) DisplayName() string { return "Asset Liquidity" }

const inactiveCarrierRisk = 85.0

func (e *AssetLiquidityEvaluator) Evaluate(rc domain.RiskContext) (domain.ComponentScore, error) {
	if !rc.Airline.Active {
		score := inactiveCarrierRisk
		return domain.ComponentScore{
			Score:      &score,
			Confidence: domain.ConfidenceHigh,
			Metadata: map[string]interface{}{
				"signal": "carrier_inactive",
			},
		}, nil
	}

	// Unavailable, not zero: the aggregator must reweight this dimension
	// away rather than defaulting it.
	return domain.ComponentScore{
		Score:      nil,
		Confidence: domain.ConfidenceLow,
		Metadata: map[string]interface{}{
			"unavailable_input": "fleet_composition",
		},
	}, nil
}
