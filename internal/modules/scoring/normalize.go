// Package scoring implements the counterparty risk scoring engine: score
// normalization, the risk factor evaluator contract, and the weighted
// aggregator that combines component scores under missing-data tolerance.
package scoring

// Normalize linearly maps value from [min, max] onto the 0-100 risk scale,
// clamping outside the range. When invert is true the result is flipped
// (100 - x), for inputs where larger raw values mean lower risk.
// min == max is a misconfiguration and returns ErrInvalidRange rather than
// a silent NaN.
func Normalize(value, min, max float64, invert bool) (float64, error) {
	if min == max {
		return 0, ErrInvalidRange
	}

	scaled := (value - min) / (max - min) * 100
	if scaled < 0 {
		scaled = 0
	}
	if scaled > 100 {
		scaled = 100
	}

	if invert {
		scaled = 100 - scaled
	}

	return scaled, nil
}
