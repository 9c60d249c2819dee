package collectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/openteams/osshs/internal/errors"
	"github.com/openteams/osshs/internal/types"
)

const stackExchangeAPIBase = "https://api.stackexchange.com/2.3"

// StackExchangeCollector gathers Stack Overflow question activity for a
// project tag.
type StackExchangeCollector struct {
	client  *Client
	baseURL string
	apiKey  string
}

// NewStackExchangeCollector creates a StackExchange collector. The key is
// optional and only raises the request quota.
func NewStackExchangeCollector(client *Client, apiKey string) *StackExchangeCollector {
	return &StackExchangeCollector{client: client, baseURL: stackExchangeAPIBase, apiKey: apiKey}
}

// NewStackExchangeCollectorWithBase overrides the API base URL for tests.
func NewStackExchangeCollectorWithBase(client *Client, baseURL, apiKey string) *StackExchangeCollector {
	return &StackExchangeCollector{client: client, baseURL: baseURL, apiKey: apiKey}
}

type stackQuestion struct {
	IsAnswered  bool  `json:"is_answered"`
	ViewCount   int64 `json:"view_count"`
	AnswerCount int64 `json:"answer_count"`
}

type stackSearchResponse struct {
	Items   []stackQuestion `json:"items"`
	HasMore bool            `json:"has_more"`
}

// QuestionStats is the StackExchange slice of CommunityMetrics.
type QuestionStats struct {
	NumQuestions int64
	NumAnswered  int64
	NumViews     int64
	NumAnswers   int64
}

// FetchActivity queries Stack Overflow questions tagged with the project
// and aggregates their counters.
func (s *StackExchangeCollector) FetchActivity(ctx context.Context, tag string) (*QuestionStats, error) {
	params := url.Values{}
	params.Set("site", "stackoverflow")
	params.Set("tagged", tag)
	params.Set("pagesize", "100")
	params.Set("filter", "withbody")
	if s.apiKey != "" {
		params.Set("key", s.apiKey)
	}
	endpoint := fmt.Sprintf("%s/questions?%s", s.baseURL, params.Encode())

	resp, err := s.client.Get(ctx, endpoint, nil)
	if err != nil {
		return nil, errors.NewExternalAPIError("stackexchange", err)
	}
	defer errors.SafeClose(resp.Body, "stackexchange response")

	if resp.StatusCode != 200 {
		return nil, errors.NewExternalAPIError("stackexchange",
			fmt.Errorf("unexpected status %d for tag %q", resp.StatusCode, tag))
	}

	var search stackSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		return nil, errors.NewExternalAPIError("stackexchange", fmt.Errorf("decode questions: %w", err))
	}

	stats := &QuestionStats{NumQuestions: int64(len(search.Items))}
	for _, q := range search.Items {
		if q.IsAnswered {
			stats.NumAnswered++
		}
		stats.NumViews += q.ViewCount
		stats.NumAnswers += q.AnswerCount
	}

	return stats, nil
}

// Apply copies the stats onto a community metrics record.
func (s *QuestionStats) Apply(m *types.CommunityMetrics) {
	m.NumQuestionsStack = s.NumQuestions
	m.NumAnsweredStack = s.NumAnswered
	m.NumViewsStack = s.NumViews
	m.NumAnswersStack = s.NumAnswers
}
