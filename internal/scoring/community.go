package scoring

import (
	"fmt"
	"sort"

	"github.com/openteams/osshs/internal/types"
)

// Community sub-score weights; they sum to the dimension's 100 points.
const (
	weightFundamental   = 20.0
	weightGitHub        = 40.0
	weightTwitter       = 20.0
	weightStackExchange = 20.0
)

// concentrationThreshold is the cumulative commit share at which the
// contributor concentration metric stops counting heads.
const concentrationThreshold = 0.55

// FundamentalScore scores the four repository booleans on a 20-point scale:
// 20·(0.4·doc + 0.3·contributing + 0.2·readme + 0.1·governance).
func FundamentalScore(m *types.CommunityMetrics) float64 {
	score := 20 * (0.4*boolToFloat(m.HasDocumentation) +
		0.3*boolToFloat(m.HasContributionGuidelines) +
		0.2*boolToFloat(m.HasReadme) +
		0.1*boolToFloat(m.HasGovernance))
	return round2(score)
}

// GitHubActivityScore scores issue/PR throughput and commit activity on a
// 40-point scale. SShape is applied to the raw counts here, not the
// composed Norm.
func GitHubActivityScore(m *types.CommunityMetrics) float64 {
	openClosed := 5 * (SShape(float64(m.OpenIssuesCount)) +
		SShape(float64(m.OpenPRCount)) +
		SShape(float64(m.ClosedIssuesCount)) +
		SShape(float64(m.ClosedPRCount)))
	activity := 10 * (SShape(float64(m.WeeklyCommits)) +
		SShape(float64(m.ContribStats)))
	return round2(openClosed + activity)
}

// TwitterActivityScore scores tweet volume and engagement on a 20-point
// scale. The like and retweet ratios contribute 0 when the project has no
// tweets.
func TwitterActivityScore(m *types.CommunityMetrics) float64 {
	tweets := float64(m.NumTweets)
	likeRatio := ratio(float64(m.NumTweetLikes), tweets)
	retweetRatio := ratio(float64(m.NumRetweets), tweets)
	score := 5 * (SShape(tweets) +
		SShape(float64(m.NumTweetQuotes+m.NumTweetReplies)) +
		SShape(likeRatio) +
		SShape(retweetRatio))
	return round2(score)
}

// StackExchangeActivityScore scores Q&A activity on a 20-point scale. The
// three ratios contribute 0 when the project has no questions.
func StackExchangeActivityScore(m *types.CommunityMetrics) float64 {
	questions := float64(m.NumQuestionsStack)
	answeredRatio := ratio(float64(m.NumAnsweredStack), questions)
	viewedRatio := ratio(float64(m.NumViewsStack), questions)
	reactionRatio := ratio(float64(m.NumAnswersStack), questions)
	score := 5 * (SShape(questions) +
		SShape(answeredRatio) +
		SShape(viewedRatio) +
		SShape(reactionRatio))
	return round2(score)
}

// CommunityScore is the sum of the four independently-weighted sub-scores.
// The sum is reported as-is; like popularity, the activity terms never
// saturate their nominal weight for finite inputs.
func CommunityScore(m *types.CommunityMetrics) (float64, error) {
	if m == nil {
		return 0, fmt.Errorf("community: %w: nil metrics", ErrInvalidInput)
	}
	if err := validateCommunity(m); err != nil {
		return 0, err
	}
	score := FundamentalScore(m) +
		GitHubActivityScore(m) +
		TwitterActivityScore(m) +
		StackExchangeActivityScore(m)
	return round2(score), nil
}

// ContributorConcentration computes the contrib_stats metric from a commit
// distribution: the minimum number of top contributors whose cumulative
// commits reach at least 55% of all commits. A larger value means activity
// is more distributed across the community.
func ContributorConcentration(commits []int64) int64 {
	total := int64(0)
	for _, c := range commits {
		total += c
	}
	if total == 0 {
		return 0
	}

	sorted := make([]int64, len(commits))
	copy(sorted, commits)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })

	cutoff := concentrationThreshold * float64(total)
	accumulated := float64(0)
	for i, c := range sorted {
		accumulated += float64(c)
		if accumulated >= cutoff {
			return int64(i + 1)
		}
	}
	return int64(len(sorted))
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func validateCommunity(m *types.CommunityMetrics) error {
	fields := map[string]int64{
		"open_issues_count":   m.OpenIssuesCount,
		"closed_issues_count": m.ClosedIssuesCount,
		"open_pr_count":       m.OpenPRCount,
		"closed_pr_count":     m.ClosedPRCount,
		"weekly_commits":      m.WeeklyCommits,
		"contrib_stats":       m.ContribStats,
		"num_tweets":          m.NumTweets,
		"num_tweet_likes":     m.NumTweetLikes,
		"num_retweets":        m.NumRetweets,
		"num_tweet_quotes":    m.NumTweetQuotes,
		"num_tweet_replies":   m.NumTweetReplies,
		"num_questions_stack": m.NumQuestionsStack,
		"num_answered_stack":  m.NumAnsweredStack,
		"num_views_stack":     m.NumViewsStack,
		"num_answers_stack":   m.NumAnswersStack,
	}
	for name, v := range fields {
		if v < 0 {
			return fmt.Errorf("community: %w: negative %s (%d)", ErrInvalidInput, name, v)
		}
	}
	return nil
}
