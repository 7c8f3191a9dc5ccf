// Package evaluators provides the concrete risk factor evaluators used by the
// scoring aggregator: jurisdiction, scale, asset liquidity and financial
// strength. All of them degrade gracefully on missing input - a neutral score
// with low confidence, or a nil score when the dimension does not apply.
package evaluators

import (
	"github.com/skylease/watchtower/internal/domain"
	"github.com/skylease/watchtower/internal/modules/scoring"
	"github.com/skylease/watchtower/internal/utils"
)

// Region risk adjustments applied on top of the jurisdiction base risk.
// Buckets reflect lessor repossession experience: stable regions make asset
// recovery predictable, elevated ones have a record of repossession friction.
var (
	stableRegions = map[string]bool{
		"Europe":           true,
		"Northern America": true,
		"Oceania":          true,
	}
	elevatedRegions = map[string]bool{
		"Africa":      true,
		"Middle East": true,
	}
	watchRegions = map[string]bool{
		"South America":   true,
		"Central America": true,
	}
)

const (
	jurisdictionBaseRisk    = 40.0
	stableRegionAdjustment  = -15.0
	elevatedRiskAdjustment  = 20.0
	watchRegionAdjustment   = 5.0
	giniBlendWeight         = 0.30 // inequality index share of the blended score
	giniScaleMin            = 20.0 // practical Gini range observed in the data
	giniScaleMax            = 60.0
	neutralJurisdictionRisk = 50.0
)

// JurisdictionEvaluator scores the legal/political environment of the
// airline's home jurisdiction.
type JurisdictionEvaluator struct{}

func NewJurisdictionEvaluator() *JurisdictionEvaluator {
	return &JurisdictionEvaluator{}
}

func (e *JurisdictionEvaluator) Key() string { return scoring.KeyJurisdiction }

func (e *JurisdictionEvaluator) DisplayName() string { return "Jurisdiction Risk" }

// Evaluate never fails: an entirely absent jurisdiction sub-object yields the
// neutral score with low confidence and explanatory metadata.
func (e *JurisdictionEvaluator) Evaluate(rc domain.RiskContext) (domain.ComponentScore, error) {
	info := rc.Jurisdiction
	if info == nil {
		score := neutralJurisdictionRisk
		return domain.ComponentScore{
			Score:      &score,
			Confidence: domain.ConfidenceLow,
			Metadata: map[string]interface{}{
				"reason": "jurisdiction data unavailable",
			},
		}, nil
	}

	score := jurisdictionBaseRisk
	switch {
	case stableRegions[info.Region]:
		score += stableRegionAdjustment
	case elevatedRegions[info.Region]:
		score += elevatedRiskAdjustment
	case watchRegions[info.Region]:
		score += watchRegionAdjustment
	}

	confidence := domain.ConfidenceMedium
	metadata := map[string]interface{}{
		"region":     info.Region,
		"sub_region": info.SubRegion,
	}

	if info.InequalityIndex != nil {
		// Blend the region score 70/30 with the normalized inequality index.
		// Gini range constants differ, so ErrInvalidRange cannot occur here.
		giniScore, err := scoring.Normalize(*info.InequalityIndex, giniScaleMin, giniScaleMax, false)
		if err != nil {
			return domain.ComponentScore{}, err
		}
		score = score*(1-giniBlendWeight) + giniScore*giniBlendWeight
		confidence = domain.ConfidenceHigh
		metadata["inequality_index"] = *info.InequalityIndex
	}

	score = utils.Round1(utils.Clamp(score, 0, 100))
	return domain.ComponentScore{
		Score:      &score,
		Confidence: confidence,
		Metadata:   metadata,
	}, nil
}
