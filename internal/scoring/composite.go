package scoring

import (
	"fmt"
	"math"
)

// Weights are the five top-level dimension weights. They must sum to 1 when
// all dimensions are present; the aggregator renormalizes them over the
// defined sub-scores when some are undefined.
type Weights struct {
	Popularity float64 `yaml:"popularity" json:"popularity"`
	Community  float64 `yaml:"community" json:"community"`
	License    float64 `yaml:"license" json:"license"`
	Security   float64 `yaml:"security" json:"security"`
	Versioning float64 `yaml:"versioning" json:"versioning"`
}

// DefaultWeights gives each dimension an equal 0.2 share, matching the
// documented default of the reference scoring run.
func DefaultWeights() Weights {
	return Weights{
		Popularity: 0.2,
		Community:  0.2,
		License:    0.2,
		Security:   0.2,
		Versioning: 0.2,
	}
}

const weightSumTolerance = 1e-9

// Validate checks that every weight is non-negative and the weights sum
// to 1.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"popularity": w.Popularity,
		"community":  w.Community,
		"license":    w.License,
		"security":   w.Security,
		"versioning": w.Versioning,
	} {
		if v < 0 {
			return fmt.Errorf("weights: %w: negative %s weight (%.4f)", ErrInvalidInput, name, v)
		}
	}
	sum := w.Popularity + w.Community + w.License + w.Security + w.Versioning
	if math.Abs(sum-1) > weightSumTolerance {
		return fmt.Errorf("weights: %w: weights sum to %.6f, want 1", ErrInvalidInput, sum)
	}
	return nil
}

// weightedMeanAvailable is the shared "do not punish missing data"
// combinator: the weighted mean over the defined values only, with weights
// renormalized over those values. It reports false when nothing is defined.
func weightedMeanAvailable(values []*float64, weights []float64) (float64, bool) {
	weightSum := 0.0
	total := 0.0
	for i, v := range values {
		if v == nil {
			continue
		}
		weightSum += weights[i]
		total += weights[i] * *v
	}
	if weightSum == 0 {
		return 0, false
	}
	return total / weightSum, true
}
