package collectors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openteams/osshs/internal/types"
)

func TestTwitterFetchActivity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tweets/search/recent", r.URL.Path)
		assert.Equal(t, "Bearer token123", r.Header.Get("Authorization"))
		assert.Equal(t, "pandas", r.URL.Query().Get("query"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": [
				{"id": "1", "public_metrics": {"like_count": 5, "retweet_count": 2, "quote_count": 1, "reply_count": 3}},
				{"id": "2", "public_metrics": {"like_count": 10, "retweet_count": 4, "quote_count": 0, "reply_count": 1}}
			],
			"meta": {"result_count": 2}
		}`))
	}))
	defer srv.Close()

	tc := NewTwitterCollectorWithBase(testClient(), srv.URL, "token123")
	stats, err := tc.FetchActivity(context.Background(), "pandas")
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.NumTweets)
	assert.Equal(t, int64(15), stats.NumTweetLikes)
	assert.Equal(t, int64(6), stats.NumRetweets)
	assert.Equal(t, int64(1), stats.NumTweetQuotes)
	assert.Equal(t, int64(4), stats.NumTweetReplies)

	var m types.CommunityMetrics
	stats.Apply(&m)
	assert.Equal(t, int64(15), m.NumTweetLikes)
}

func TestTwitterFetchActivityUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tc := NewTwitterCollectorWithBase(testClient(), srv.URL, "bad")
	_, err := tc.FetchActivity(context.Background(), "pandas")
	assert.Error(t, err)
}

func TestStackExchangeFetchActivity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/questions", r.URL.Path)
		assert.Equal(t, "stackoverflow", r.URL.Query().Get("site"))
		assert.Equal(t, "pandas", r.URL.Query().Get("tagged"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"items": [
				{"is_answered": true, "view_count": 150, "answer_count": 3},
				{"is_answered": false, "view_count": 40, "answer_count": 0},
				{"is_answered": true, "view_count": 60, "answer_count": 2}
			],
			"has_more": false
		}`))
	}))
	defer srv.Close()

	sc := NewStackExchangeCollectorWithBase(testClient(), srv.URL, "")
	stats, err := sc.FetchActivity(context.Background(), "pandas")
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.NumQuestions)
	assert.Equal(t, int64(2), stats.NumAnswered)
	assert.Equal(t, int64(250), stats.NumViews)
	assert.Equal(t, int64(5), stats.NumAnswers)

	var m types.CommunityMetrics
	stats.Apply(&m)
	assert.Equal(t, int64(3), m.NumQuestionsStack)
	assert.Equal(t, int64(250), m.NumViewsStack)
}

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		in        string
		owner     string
		repo      string
		expectErr bool
	}{
		{in: "https://github.com/numpy/numpy", owner: "numpy", repo: "numpy"},
		{in: "https://github.com/pandas-dev/pandas.git", owner: "pandas-dev", repo: "pandas"},
		{in: "https://gitlab.com/someone/project", expectErr: true},
		{in: "https://github.com/orphan", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			owner, repo, err := ParseRepoURL(tt.in)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.owner, owner)
			assert.Equal(t, tt.repo, repo)
		})
	}
}
