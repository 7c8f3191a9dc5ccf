package scoring

import (
	"time"

	"github.com/skylease/watchtower/internal/domain"
)

// ConfigVersion identifies the canonical weight/threshold scheme in use.
// Earlier schemes (35/25/40 three-factor, 30/60 buckets) are retired; any
// change here must bump the version so stored snapshots can be told apart.
const ConfigVersion = "v3"

// Evaluator dimension keys. The set is closed per product version - a plain
// ordered slice of evaluators plus this key space is all the pluggability needed.
const (
	KeyJurisdiction   = "jurisdiction"
	KeyScale          = "scale"
	KeyAssetLiquidity = "asset_liquidity"
	KeyFinancial      = "financial"
)

// Thresholds maps a 0-100 score to a risk bucket.
// Injected rather than hardcoded: the cut points have moved across versions.
type Thresholds struct {
	Low    float64 // score <= Low    -> BucketLow
	Medium float64 // score <= Medium -> BucketMedium, else BucketHigh
}

// Bucket classifies a score.
func (t Thresholds) Bucket(score float64) domain.RiskBucket {
	switch {
	case score <= t.Low:
		return domain.BucketLow
	case score <= t.Medium:
		return domain.BucketMedium
	default:
		return domain.BucketHigh
	}
}

// Config is the injected engine configuration: evaluator weights, bucket
// thresholds and snapshot freshness. Weights of all enabled evaluators must
// sum to 1.0; effective weights after reweighting sum to 1.0 over available
// components only.
type Config struct {
	Weights     map[string]float64
	Thresholds  Thresholds
	SnapshotTTL time.Duration
}

// DefaultConfig returns the current production configuration.
func DefaultConfig() Config {
	return Config{
		Weights: map[string]float64{
			KeyJurisdiction:   0.25,
			KeyScale:          0.20,
			KeyAssetLiquidity: 0.20,
			KeyFinancial:      0.35,
		},
		Thresholds: Thresholds{
			Low:    40,
			Medium: 70,
		},
		SnapshotTTL: 6 * time.Hour,
	}
}

// Weight returns the configured weight for a dimension (0 if unknown).
func (c Config) Weight(key string) float64 {
	return c.Weights[key]
}
