package collectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/openteams/osshs/internal/errors"
	"github.com/openteams/osshs/internal/types"
)

const twitterAPIBase = "https://api.twitter.com/2"

// TwitterCollector gathers tweet activity mentioning a project.
type TwitterCollector struct {
	client  *Client
	baseURL string
	bearer  string
}

// NewTwitterCollector creates a Twitter collector with a bearer token.
func NewTwitterCollector(client *Client, bearer string) *TwitterCollector {
	return &TwitterCollector{client: client, baseURL: twitterAPIBase, bearer: bearer}
}

// NewTwitterCollectorWithBase overrides the API base URL for tests.
func NewTwitterCollectorWithBase(client *Client, baseURL, bearer string) *TwitterCollector {
	return &TwitterCollector{client: client, baseURL: baseURL, bearer: bearer}
}

type tweetMetrics struct {
	LikeCount    int64 `json:"like_count"`
	RetweetCount int64 `json:"retweet_count"`
	QuoteCount   int64 `json:"quote_count"`
	ReplyCount   int64 `json:"reply_count"`
}

type tweetSearchResponse struct {
	Data []struct {
		ID            string       `json:"id"`
		PublicMetrics tweetMetrics `json:"public_metrics"`
	} `json:"data"`
	Meta struct {
		ResultCount int64 `json:"result_count"`
	} `json:"meta"`
}

// TweetStats is the Twitter slice of CommunityMetrics.
type TweetStats struct {
	NumTweets       int64
	NumTweetLikes   int64
	NumRetweets     int64
	NumTweetQuotes  int64
	NumTweetReplies int64
}

// FetchActivity searches recent tweets mentioning the project and sums
// their engagement counters.
func (t *TwitterCollector) FetchActivity(ctx context.Context, project string) (*TweetStats, error) {
	endpoint := fmt.Sprintf(
		"%s/tweets/search/recent?query=%s&max_results=100&tweet.fields=public_metrics",
		t.baseURL, url.QueryEscape(project))

	headers := map[string]string{"Authorization": "Bearer " + t.bearer}
	resp, err := t.client.Get(ctx, endpoint, headers)
	if err != nil {
		return nil, errors.NewExternalAPIError("twitter", err)
	}
	defer errors.SafeClose(resp.Body, "twitter response")

	if resp.StatusCode != 200 {
		return nil, errors.NewExternalAPIError("twitter",
			fmt.Errorf("unexpected status %d searching %q", resp.StatusCode, project))
	}

	var search tweetSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		return nil, errors.NewExternalAPIError("twitter", fmt.Errorf("decode search: %w", err))
	}

	stats := &TweetStats{NumTweets: search.Meta.ResultCount}
	for _, tweet := range search.Data {
		stats.NumTweetLikes += tweet.PublicMetrics.LikeCount
		stats.NumRetweets += tweet.PublicMetrics.RetweetCount
		stats.NumTweetQuotes += tweet.PublicMetrics.QuoteCount
		stats.NumTweetReplies += tweet.PublicMetrics.ReplyCount
	}

	return stats, nil
}

// Apply copies the stats onto a community metrics record.
func (s *TweetStats) Apply(m *types.CommunityMetrics) {
	m.NumTweets = s.NumTweets
	m.NumTweetLikes = s.NumTweetLikes
	m.NumRetweets = s.NumRetweets
	m.NumTweetQuotes = s.NumTweetQuotes
	m.NumTweetReplies = s.NumTweetReplies
}
