package scoring

import "errors"

// Sentinel errors for the per-dimension undefined states. Undefined states
// exclude a dimension from the composite with renormalized weights; they
// only become a project-level failure when every dimension is undefined.
var (
	// ErrInvalidInput marks negative counts or otherwise malformed
	// metrics. These are rejected before any formula runs.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownLicense is returned when a license identifier is not in
	// the license table. The engine never substitutes a numeric default.
	ErrUnknownLicense = errors.New("unknown license")

	// ErrNoSecurityChecks is returned when zero Scorecard checks are
	// available for a project.
	ErrNoSecurityChecks = errors.New("no security checks available")

	// ErrAllVersioningMetricsNull is returned when none of the three
	// versioning metrics can be computed.
	ErrAllVersioningMetricsNull = errors.New("all versioning metrics null")

	// ErrAllDimensionsUndefined is returned by the aggregator when no
	// dimension produced a defined sub-score.
	ErrAllDimensionsUndefined = errors.New("all dimensions undefined")
)
