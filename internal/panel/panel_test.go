package panel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openteams/osshs/internal/cache"
	"github.com/openteams/osshs/internal/database"
	"github.com/openteams/osshs/internal/licenses"
	"github.com/openteams/osshs/internal/ratelimit"
	"github.com/openteams/osshs/internal/scoring"
	"github.com/openteams/osshs/internal/types"
)

func newTestServer(t *testing.T) (*Server, *gin.Engine, *database.Repository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo := database.NewRepository(db)

	table, err := licenses.LoadDefault()
	require.NoError(t, err)
	engine, err := scoring.NewEngine(scoring.DefaultWeights(), table)
	require.NoError(t, err)

	srv, err := NewServer(repo, engine, cache.New(time.Minute), nil)
	require.NoError(t, err)

	return srv, srv.Router(Options{}), repo
}

func f64(v float64) *float64 { return &v }

func seedScore(t *testing.T, repo *database.Repository, name string, composite float64) {
	t.Helper()
	_, err := repo.SaveScore(context.Background(), types.ScoreRecord{
		ProjectID:  "id-" + name,
		Name:       name,
		Popularity: f64(50),
		License:    f64(100),
		Composite:  composite,
		ComputedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	_, router, _ := newTestServer(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, Version, body["version"])
	assert.EqualValues(t, 0, body["scored_projects"])

	poolStats, ok := body["database"].(map[string]interface{})
	require.True(t, ok, "health reports connection pool stats")
	assert.Contains(t, poolStats, "open_connections")
}

func TestGetScore(t *testing.T) {
	_, router, repo := newTestServer(t)
	seedScore(t, repo, "numpy", 72)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/scores/numpy", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var rec types.ScoreRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "numpy", rec.Name)
	assert.Equal(t, "id-numpy", rec.ProjectID)
	assert.Equal(t, 72.0, rec.Composite)

	// Undefined dimensions serialize as null, never zero.
	assert.Nil(t, rec.Security)
	require.NotNil(t, rec.License)
	assert.Equal(t, 100.0, *rec.License)

	// Storage bookkeeping stays out of the API payload.
	assert.NotContains(t, w.Body.String(), "created_at")
}

func TestGetScoreNotFound(t *testing.T) {
	_, router, _ := newTestServer(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/scores/ghost", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLeaderboard(t *testing.T) {
	_, router, repo := newTestServer(t)
	seedScore(t, repo, "alpha", 60)
	seedScore(t, repo, "bravo", 90)
	seedScore(t, repo, "charlie", 75)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard?limit=2", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Entries []database.ScoreRow `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Entries, 2)
	assert.Equal(t, "bravo", body.Entries[0].ProjectName)
	assert.Equal(t, "charlie", body.Entries[1].ProjectName)
}

func TestLeaderboardRejectsBadLimit(t *testing.T) {
	_, router, _ := newTestServer(t)

	for _, q := range []string{"limit=0", "limit=101", "limit=abc"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard?"+q, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestSubmitMetricsScoresAndStores(t *testing.T) {
	_, router, repo := newTestServer(t)

	payload := `{
		"project_id": "p1",
		"name": "requests",
		"license": "Apache-2.0",
		"security": {"Code-Review": 8, "Maintained": 10}
	}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scores", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var row database.ScoreRow
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &row))
	require.NotNil(t, row.License)
	assert.Equal(t, 92.0, *row.License)
	require.NotNil(t, row.Security)
	assert.Equal(t, 90.0, *row.Security)
	// Renormalized mean over the two defined dimensions.
	assert.Equal(t, 91.0, row.Composite)
	assert.Nil(t, row.Popularity)

	stored, err := repo.GetScoreByName(context.Background(), "requests")
	require.NoError(t, err)
	assert.Equal(t, 91.0, stored.Composite)
}

func TestSubmitMetricsAllUndefined(t *testing.T) {
	_, router, _ := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scores", strings.NewReader(`{"name":"empty"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitMetricsInvalidInput(t *testing.T) {
	_, router, _ := newTestServer(t)

	payload := `{"name": "bad", "popularity": {"forks_count": -1}}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scores", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitMetricsEndpointRateLimited(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db, err := database.NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo := database.NewRepository(db)

	table, err := licenses.LoadDefault()
	require.NoError(t, err)
	engine, err := scoring.NewEngine(scoring.DefaultWeights(), table)
	require.NoError(t, err)

	limiter := ratelimit.NewRateLimiter(ratelimit.Config{RequestsPerMin: 1000, BurstMultiplier: 1})
	srv, err := NewServer(repo, engine, nil, limiter)
	require.NoError(t, err)
	router := srv.Router(Options{})

	payload := `{"name": "requests", "license": "MIT"}`

	var last *httptest.ResponseRecorder
	for i := 0; i <= submitPerMinute; i++ {
		last = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/scores", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "192.0.2.7:1234"
		router.ServeHTTP(last, req)
		if i < submitPerMinute {
			require.Equal(t, http.StatusOK, last.Code, "submission %d should be inside the budget", i)
		}
	}

	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.NotEmpty(t, last.Header().Get("Retry-After"))
	assert.Contains(t, last.Body.String(), "rate_limit")
}

func TestIndexPageRendersScores(t *testing.T) {
	_, router, repo := newTestServer(t)
	seedScore(t, repo, "numpy", 72)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "numpy")
	assert.Contains(t, w.Body.String(), "72.00")
	// Undefined dimensions render as n/a.
	assert.Contains(t, w.Body.String(), "n/a")
}

func TestIndexPageLookupMiss(t *testing.T) {
	_, router, _ := newTestServer(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?q=ghost", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No score for")
}
