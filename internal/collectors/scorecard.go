package collectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/openteams/osshs/internal/errors"
	"github.com/openteams/osshs/internal/types"
)

// ScorecardCollector runs the external OpenSSF Scorecard binary and
// parses its JSON report into the security dimension's check map.
type ScorecardCollector struct {
	binary string
}

// NewScorecardCollector creates a collector around the named binary.
func NewScorecardCollector(binary string) *ScorecardCollector {
	if binary == "" {
		binary = "scorecard"
	}
	return &ScorecardCollector{binary: binary}
}

type scorecardCheck struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type scorecardReport struct {
	Checks []scorecardCheck `json:"checks"`
}

// FetchChecks runs the scorecard binary for the repository and returns the
// per-check results. Checks the tool reports as -1 did not run and become
// nil entries.
func (s *ScorecardCollector) FetchChecks(ctx context.Context, repoURL string) (types.SecurityChecks, error) {
	cmd := exec.CommandContext(ctx, s.binary, "--repo="+repoURL, "--format=json")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, errors.NewExternalAPIError("scorecard",
			fmt.Errorf("run %s for %s: %w (stderr: %s)", s.binary, repoURL, err, stderr.String()))
	}

	return ParseScorecardReport(stdout.Bytes())
}

// ParseScorecardReport converts a scorecard JSON report into the check
// map. Unknown check names are kept; the score engine averages over
// whatever is present.
func ParseScorecardReport(data []byte) (types.SecurityChecks, error) {
	var report scorecardReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, errors.NewExternalAPIError("scorecard", fmt.Errorf("decode report: %w", err))
	}

	checks := types.SecurityChecks{}
	for _, c := range report.Checks {
		if c.Name == "" {
			continue
		}
		if c.Score < 0 {
			checks[c.Name] = nil
			continue
		}
		score := c.Score
		checks[c.Name] = &score
	}

	return checks, nil
}
