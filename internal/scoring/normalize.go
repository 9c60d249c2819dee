// Package scoring implements the project health score engine: five
// per-dimension sub-calculators (popularity, community, license, security,
// versioning) and the composite aggregator. The engine is pure and
// stateless; all configuration is injected at construction.
package scoring

import "math"

// Logscale maps a non-negative value into [0,1) with diminishing returns
// for large inputs.
func Logscale(x float64) float64 {
	return x / (x + 1)
}

// SShape is ln(1+x). Applied to already-normalized inputs it compresses
// toward a soft ceiling; applied to raw counts or ratios (community
// sub-formulas) it is used as-is, without Logscale.
func SShape(x float64) float64 {
	return math.Log1p(x)
}

// Norm is the composed field normalizer SShape(Logscale(x)) = ln(1+x/(x+1)).
// For x >= 0 the result lies in [0, ln 2); per-field weights are calibrated
// against that range. Negative inputs are rejected upstream as a data error;
// Norm itself clamps to 0.
func Norm(x float64) float64 {
	if x < 0 {
		x = 0
	}
	return math.Log1p(Logscale(x))
}

// round2 rounds to two decimal places, matching the precision every
// sub-score is reported at.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// ratio divides num by den, contributing 0 when the denominator is 0
// instead of propagating a division fault.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
