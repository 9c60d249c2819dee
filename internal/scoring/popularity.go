package scoring

import (
	"fmt"

	"github.com/openteams/osshs/internal/types"
)

// PopularityVariant selects which weight table applies, based on download
// data availability. Priority: total downloads, then 90-day downloads,
// then neither.
type PopularityVariant int

const (
	NoDownloads PopularityVariant = iota
	RecentDownloads
	TotalDownloads
)

func (v PopularityVariant) String() string {
	switch v {
	case RecentDownloads:
		return "recent_downloads"
	case TotalDownloads:
		return "total_downloads"
	default:
		return "no_downloads"
	}
}

// popularityWeights is one weight vector; entries sum to 100 in every
// variant. Downloads carries the variant's download field weight and is 0
// for NoDownloads.
type popularityWeights struct {
	Contributions  float64
	Subscribers    float64
	DependentRepos float64
	Stargazers     float64
	Dependents     float64
	Forks          float64
	Downloads      float64
}

var popularityTables = map[PopularityVariant]popularityWeights{
	RecentDownloads: {Contributions: 15, Subscribers: 5, DependentRepos: 40, Stargazers: 10, Dependents: 15, Forks: 5, Downloads: 10},
	TotalDownloads:  {Contributions: 15, Subscribers: 10, DependentRepos: 40, Stargazers: 10, Dependents: 15, Forks: 5, Downloads: 5},
	NoDownloads:     {Contributions: 15, Subscribers: 5, DependentRepos: 40, Stargazers: 15, Dependents: 20, Forks: 5},
}

// SelectPopularityVariant returns the weight table variant for the given
// metrics. Absent download counters select a different table; they are
// never treated as zero downloads.
func SelectPopularityVariant(m *types.PopularityMetrics) PopularityVariant {
	switch {
	case m.TotalDownloads != nil:
		return TotalDownloads
	case m.RecentDownloads != nil:
		return RecentDownloads
	default:
		return NoDownloads
	}
}

// PopularityScore computes the popularity sub-score as the weighted sum of
// Norm over each field, rounded to two decimals. The result is bounded by
// 100·ln2 ≈ 69.3 for finite inputs; that unsaturated headroom is a known
// property of the formula, not clamped away.
func PopularityScore(m *types.PopularityMetrics) (float64, error) {
	if m == nil {
		return 0, fmt.Errorf("popularity: %w: nil metrics", ErrInvalidInput)
	}
	if err := validatePopularity(m); err != nil {
		return 0, err
	}

	variant := SelectPopularityVariant(m)
	w := popularityTables[variant]

	score := w.Contributions*Norm(float64(m.ContributionsCount)) +
		w.Subscribers*Norm(float64(m.SubscribersCount)) +
		w.DependentRepos*Norm(float64(m.DependentReposCount)) +
		w.Stargazers*Norm(float64(m.StargazersCount)) +
		w.Dependents*Norm(float64(m.DependentsCount)) +
		w.Forks*Norm(float64(m.ForksCount))

	switch variant {
	case RecentDownloads:
		score += w.Downloads * Norm(float64(*m.RecentDownloads))
	case TotalDownloads:
		score += w.Downloads * Norm(float64(*m.TotalDownloads))
	}

	return round2(score), nil
}

func validatePopularity(m *types.PopularityMetrics) error {
	fields := map[string]int64{
		"contributions_count":   m.ContributionsCount,
		"subscribers_count":     m.SubscribersCount,
		"dependent_repos_count": m.DependentReposCount,
		"stargazers_count":      m.StargazersCount,
		"dependents_count":      m.DependentsCount,
		"forks_count":           m.ForksCount,
	}
	if m.RecentDownloads != nil {
		fields["recent_downloads"] = *m.RecentDownloads
	}
	if m.TotalDownloads != nil {
		fields["total_downloads"] = *m.TotalDownloads
	}
	for name, v := range fields {
		if v < 0 {
			return fmt.Errorf("popularity: %w: negative %s (%d)", ErrInvalidInput, name, v)
		}
	}
	return nil
}
