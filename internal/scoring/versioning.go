package scoring

import (
	"fmt"
	"sort"

	"github.com/openteams/osshs/internal/types"
)

// Expected release cadences used by the frequency metric: quarterly minors
// and roughly twenty patches per year.
const (
	minorCadenceDays = 365.0 / 3
	patchCadenceDays = 365.0 / 18
)

// releaseStats are the counts and per-type mean inter-release times derived
// from a project's release history. Meantimes are nil when fewer than one
// delta of that type exists.
type releaseStats struct {
	majors, minors, patches int64
	majorMeantime           *float64
	minorMeantime           *float64
	patchMeantime           *float64
}

// deriveReleaseStats classifies the inter-release deltas by the type of the
// later release and averages them per type. Events are sorted by publish
// time first.
func deriveReleaseStats(releases []types.ReleaseEvent) releaseStats {
	sorted := make([]types.ReleaseEvent, len(releases))
	copy(sorted, releases)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PublishedAt.Before(sorted[j].PublishedAt)
	})

	var stats releaseStats
	deltas := map[types.ReleaseType][]float64{}
	for i, ev := range sorted {
		switch ev.Type {
		case types.ReleaseMajor:
			stats.majors++
		case types.ReleaseMinor:
			stats.minors++
		case types.ReleasePatch:
			stats.patches++
		}
		if i > 0 {
			days := ev.PublishedAt.Sub(sorted[i-1].PublishedAt).Hours() / 24
			if days > 0 {
				deltas[ev.Type] = append(deltas[ev.Type], days)
			}
		}
	}

	stats.majorMeantime = meanOf(deltas[types.ReleaseMajor])
	stats.minorMeantime = meanOf(deltas[types.ReleaseMinor])
	stats.patchMeantime = meanOf(deltas[types.ReleasePatch])
	return stats
}

func meanOf(vals []float64) *float64 {
	if len(vals) == 0 {
		return nil
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	m := sum / float64(len(vals))
	return &m
}

// sumMetric is the weighted release count (5·majors + 2·minors + patches)/8.
func sumMetric(s releaseStats) float64 {
	return (5*float64(s.majors) + 2*float64(s.minors) + float64(s.patches)) / 8.0
}

// timeMetric is Norm over the weighted reciprocal meantimes. It is nil when
// the project has fewer than two releases (no deltas exist at all); release
// types without a defined meantime contribute 0 to the sum.
func timeMetric(s releaseStats, totalReleases int) *float64 {
	if totalReleases < 2 {
		return nil
	}
	sum := 0.0
	if s.majorMeantime != nil && *s.majorMeantime > 0 {
		sum += 6 / *s.majorMeantime
	}
	if s.minorMeantime != nil && *s.minorMeantime > 0 {
		sum += 4 / *s.minorMeantime
	}
	if s.patchMeantime != nil && *s.patchMeantime > 0 {
		sum += 2 / *s.patchMeantime
	}
	m := Norm(sum)
	return &m
}

// freqMetric is Norm over the minor and patch release frequencies measured
// against their expected cadences. It is nil when the project age is
// unknown or zero.
func freqMetric(s releaseStats, ageDays *float64) *float64 {
	if ageDays == nil || *ageDays <= 0 {
		return nil
	}
	minorFreq := float64(s.minors) / (*ageDays / minorCadenceDays)
	patchFreq := float64(s.patches) / (*ageDays / patchCadenceDays)
	m := Norm(minorFreq + patchFreq)
	return &m
}

// versioningMetrics computes the three metrics. The sum metric is always
// defined for a non-empty release history; the other two may be nil.
func versioningMetrics(m *types.VersioningMetrics) (sum float64, timeM, freqM *float64) {
	stats := deriveReleaseStats(m.Releases)
	return sumMetric(stats), timeMetric(stats, len(m.Releases)), freqMetric(stats, m.AgeDays)
}

// VersioningScore is the mean of the non-null metrics among the sum, time
// and frequency metrics, rescaled to the [0,100] dimension scale. Null
// metrics are excluded from the mean, never treated as 0; when every metric
// is null the sub-score is undefined and ErrAllVersioningMetricsNull is
// returned. The raw sum metric is unbounded, so the rescaled score is
// capped at 100 to honor the dimension range.
func VersioningScore(m *types.VersioningMetrics) (float64, error) {
	if m == nil {
		return 0, fmt.Errorf("versioning: %w: nil metrics", ErrInvalidInput)
	}
	if m.AgeDays != nil && *m.AgeDays < 0 {
		return 0, fmt.Errorf("versioning: %w: negative age_days (%.2f)", ErrInvalidInput, *m.AgeDays)
	}
	if len(m.Releases) == 0 {
		return 0, ErrAllVersioningMetricsNull
	}

	sum, timeM, freqM := versioningMetrics(m)

	vals := []float64{sum}
	if timeM != nil {
		vals = append(vals, *timeM)
	}
	if freqM != nil {
		vals = append(vals, *freqM)
	}

	mean := 0.0
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))

	score := 100 * mean
	if score > 100 {
		score = 100
	}
	return round2(score), nil
}
