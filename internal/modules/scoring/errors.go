package scoring

import (
	"errors"
	"fmt"
)

// ErrInvalidRange is returned by Normalize when min == max.
// This is a programmer error (bad configuration), not a data-quality issue.
var ErrInvalidRange = errors.New("invalid normalization range: min equals max")

// EvaluatorFailure wraps an unexpected error from a risk factor evaluator.
// Missing data never produces this - evaluators degrade to nil scores instead.
// The aggregator does not catch it; the caller decides between falling back to
// a neutral score and failing the whole calculation.
type EvaluatorFailure struct {
	Key string
	Err error
}

func (e *EvaluatorFailure) Error() string {
	return fmt.Sprintf("evaluator %q failed: %v", e.Key, e.Err)
}

func (e *EvaluatorFailure) Unwrap() error {
	return e.Err
}
