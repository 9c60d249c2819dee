package scoring

import (
	"fmt"

	"github.com/openteams/osshs/internal/types"
)

// SecurityScore is the mean over the available Scorecard checks rescaled
// from [0,10] to [0,100]. Checks that did not run (nil) are excluded from
// the mean; when zero checks are available the sub-score is undefined and
// ErrNoSecurityChecks is returned, never 0.
func SecurityScore(checks types.SecurityChecks) (float64, error) {
	sum := 0
	available := 0
	for name, v := range checks {
		if v == nil {
			continue
		}
		if *v < 0 || *v > 10 {
			return 0, fmt.Errorf("security: %w: check %s value %d out of [0,10]", ErrInvalidInput, name, *v)
		}
		sum += *v
		available++
	}
	if available == 0 {
		return 0, ErrNoSecurityChecks
	}
	return round2(100 * float64(sum) / (10 * float64(available))), nil
}
