package types

import "time"

// PopularityMetrics holds the raw registry counts behind the popularity
// dimension. Download counters are pointers: a nil value means the registry
// had no download data for the project, which is not the same as zero
// downloads and selects a different weight table.
type PopularityMetrics struct {
	ContributionsCount  int64  `json:"contributions_count"`
	SubscribersCount    int64  `json:"subscribers_count"`
	DependentReposCount int64  `json:"dependent_repos_count"`
	StargazersCount     int64  `json:"stargazers_count"`
	DependentsCount     int64  `json:"dependents_count"`
	ForksCount          int64  `json:"forks_count"`
	RecentDownloads     *int64 `json:"recent_downloads,omitempty"`
	TotalDownloads      *int64 `json:"total_downloads,omitempty"`
}

// CommunityMetrics aggregates GitHub, Twitter and StackExchange activity
// signals plus the fundamental repository booleans.
type CommunityMetrics struct {
	HasDocumentation          bool `json:"documentation"`
	HasContributionGuidelines bool `json:"has_contribution_guidelines"`
	HasReadme                 bool `json:"has_readme"`
	HasGovernance             bool `json:"governance"`

	OpenIssuesCount   int64 `json:"open_issues_count"`
	ClosedIssuesCount int64 `json:"closed_issues_count"`
	OpenPRCount       int64 `json:"open_pr_count"`
	ClosedPRCount     int64 `json:"closed_pr_count"`
	WeeklyCommits     int64 `json:"weekly_commits"`
	// ContribStats is the minimum number of top contributors whose
	// cumulative commits reach at least 55% of all commits. Higher means
	// activity is spread across more people.
	ContribStats int64 `json:"contrib_stats"`

	NumTweets       int64 `json:"num_tweets"`
	NumTweetLikes   int64 `json:"num_tweet_likes"`
	NumRetweets     int64 `json:"num_retweets"`
	NumTweetQuotes  int64 `json:"num_tweet_quotes"`
	NumTweetReplies int64 `json:"num_tweet_replies"`

	NumQuestionsStack int64 `json:"num_questions_stack"`
	NumAnsweredStack  int64 `json:"num_answered_stack"`
	NumViewsStack     int64 `json:"num_views_stack"`
	NumAnswersStack   int64 `json:"num_answers_stack"`
}

// ReleaseType tags a release event relative to the previous release.
type ReleaseType string

const (
	ReleaseMajor ReleaseType = "major"
	ReleaseMinor ReleaseType = "minor"
	ReleasePatch ReleaseType = "patch"
)

// ReleaseEvent is one published release with its classification.
type ReleaseEvent struct {
	Type        ReleaseType `json:"type"`
	PublishedAt time.Time   `json:"published_at"`
}

// VersioningMetrics carries the release history of a project. AgeDays is a
// pointer because a project with no resolvable first-release date has an
// unknown age, which disables the frequency metric rather than zeroing it.
type VersioningMetrics struct {
	Releases []ReleaseEvent `json:"releases"`
	AgeDays  *float64       `json:"age_days,omitempty"`
}

// SecurityChecks maps Scorecard check names to their nullable results.
// A nil value means the check did not run; values are in [0,10].
type SecurityChecks map[string]*int

// ScorecardCheckNames are the 16 checks emitted by the external Scorecard
// tool, in its reporting order.
var ScorecardCheckNames = []string{
	"Binary-Artifacts",
	"Branch-Protection",
	"CI-Tests",
	"CII-Best-Practices",
	"Code-Review",
	"Contributors",
	"Dependency-Update-Tool",
	"Fuzzing",
	"Maintained",
	"Packaging",
	"Pinned-Dependencies",
	"SAST",
	"Security-Policy",
	"Signed-Releases",
	"Token-Permissions",
	"Vulnerabilities",
}

// ProjectMetrics is the fully-resolved input record for one project,
// produced by the collectors and consumed read-only by the score engine.
// License is a pointer: nil means the repository declares no license, which
// the engine must surface as missing data rather than score as zero.
type ProjectMetrics struct {
	ProjectID  string             `json:"project_id"`
	Name       string             `json:"name"`
	RepoURL    string             `json:"repository_url,omitempty"`
	Popularity *PopularityMetrics `json:"popularity,omitempty"`
	Community  *CommunityMetrics  `json:"community,omitempty"`
	License    *string            `json:"license,omitempty"`
	Security   SecurityChecks     `json:"security,omitempty"`
	Versioning *VersioningMetrics `json:"versioning,omitempty"`
}

// ScoreRecord is the immutable output of one scoring run for one project.
// Sub-score pointers are nil when the dimension was undefined; the composite
// is the weighted mean over the defined sub-scores with renormalized weights.
type ScoreRecord struct {
	ProjectID  string    `json:"project_id"`
	Name       string    `json:"project_name"`
	Popularity *float64  `json:"popularity"`
	Community  *float64  `json:"community"`
	License    *float64  `json:"license"`
	Security   *float64  `json:"security"`
	Versioning *float64  `json:"versioning"`
	Composite  float64   `json:"composite"`
	ComputedAt time.Time `json:"computed_at"`
}
