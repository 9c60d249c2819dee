package scoring

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openteams/osshs/internal/licenses"
	"github.com/openteams/osshs/internal/types"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	table, err := licenses.LoadDefault()
	require.NoError(t, err)
	engine, err := NewEngine(DefaultWeights(), table)
	require.NoError(t, err)
	return engine
}

func strPtr(s string) *string { return &s }

func fullMetrics(name string) types.ProjectMetrics {
	return types.ProjectMetrics{
		ProjectID: "proj-" + name,
		Name:      name,
		Popularity: &types.PopularityMetrics{
			ContributionsCount:  100,
			SubscribersCount:    10,
			DependentReposCount: 50,
			StargazersCount:     1000,
			DependentsCount:     20,
			ForksCount:          30,
		},
		Community: &types.CommunityMetrics{
			HasDocumentation: true,
			HasReadme:        true,
			OpenIssuesCount:  10,
			ClosedPRCount:    25,
			WeeklyCommits:    8,
			ContribStats:     4,
			NumTweets:        30,
			NumTweetLikes:    90,
		},
		License:  strPtr("MIT"),
		Security: types.SecurityChecks{"Code-Review": intPtr(8), "Maintained": intPtr(10)},
		Versioning: &types.VersioningMetrics{
			Releases: []types.ReleaseEvent{
				{Type: types.ReleaseMajor, PublishedAt: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)},
			},
		},
	}
}

func TestNewEngineValidatesWeights(t *testing.T) {
	table, err := licenses.LoadDefault()
	require.NoError(t, err)

	// 0.5 total leaves the weights short of 1.
	_, err = NewEngine(Weights{Popularity: 0.5}, table)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewEngine(DefaultWeights(), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestScoreAllDimensionsDefined(t *testing.T) {
	engine := newTestEngine(t)
	rec, err := engine.Score(fullMetrics("numpy"))
	require.NoError(t, err)

	require.NotNil(t, rec.Popularity)
	require.NotNil(t, rec.Community)
	require.NotNil(t, rec.License)
	require.NotNil(t, rec.Security)
	require.NotNil(t, rec.Versioning)

	assert.Equal(t, 100.0, *rec.License)
	assert.Equal(t, 90.0, *rec.Security)
	assert.Equal(t, 62.5, *rec.Versioning)

	expected := round2(0.2 * (*rec.Popularity + *rec.Community + *rec.License + *rec.Security + *rec.Versioning))
	assert.Equal(t, expected, rec.Composite)
	assert.Equal(t, "proj-numpy", rec.ProjectID)
	assert.False(t, rec.ComputedAt.IsZero())
}

func TestScoreMissingLicenseRenormalizes(t *testing.T) {
	engine := newTestEngine(t)

	m := fullMetrics("leftpad")
	m.License = nil
	rec, err := engine.Score(m)
	require.NoError(t, err)

	assert.Nil(t, rec.License)
	// The composite is the weighted mean of the remaining four
	// sub-scores with weights renormalized to sum to 1.
	expected := round2((*rec.Popularity + *rec.Community + *rec.Security + *rec.Versioning) / 4)
	assert.Equal(t, expected, rec.Composite)
}

func TestScoreUnknownLicenseIsExcludedNotDefaulted(t *testing.T) {
	engine := newTestEngine(t)

	m := fullMetrics("mystery")
	m.License = strPtr("Totally-Custom-License")
	rec, err := engine.Score(m)
	require.NoError(t, err)

	assert.Nil(t, rec.License, "unknown license must not become a numeric score")

	known := fullMetrics("mystery")
	known.License = nil
	same, err := engine.Score(known)
	require.NoError(t, err)
	assert.Equal(t, same.Composite, rec.Composite)
}

func TestScoreNoSecurityChecksExcluded(t *testing.T) {
	engine := newTestEngine(t)

	m := fullMetrics("quiet")
	m.Security = types.SecurityChecks{"Code-Review": nil, "Fuzzing": nil}
	rec, err := engine.Score(m)
	require.NoError(t, err)

	assert.Nil(t, rec.Security)
	expected := round2((*rec.Popularity + *rec.Community + *rec.License + *rec.Versioning) / 4)
	assert.Equal(t, expected, rec.Composite)
}

func TestScoreAllDimensionsUndefined(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.Score(types.ProjectMetrics{ProjectID: "p", Name: "empty"})
	assert.ErrorIs(t, err, ErrAllDimensionsUndefined)
}

func TestScoreInvalidInputFailsFast(t *testing.T) {
	engine := newTestEngine(t)

	m := fullMetrics("bad")
	m.Popularity.ForksCount = -3
	_, err := engine.Score(m)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestScoreIsDeterministic(t *testing.T) {
	engine := newTestEngine(t)

	first, err := engine.Score(fullMetrics("stable"))
	require.NoError(t, err)
	second, err := engine.Score(fullMetrics("stable"))
	require.NoError(t, err)

	assert.Equal(t, first.Composite, second.Composite)
	assert.Equal(t, *first.Popularity, *second.Popularity)
	assert.Equal(t, *first.Community, *second.Community)
}

func TestScoreAllPreservesOrder(t *testing.T) {
	engine := newTestEngine(t)

	projects := make([]types.ProjectMetrics, 0, 20)
	for i := 0; i < 20; i++ {
		projects = append(projects, fullMetrics(fmt.Sprintf("p%02d", i)))
	}
	// One bad apple in the middle.
	projects[7] = types.ProjectMetrics{ProjectID: "bad", Name: "bad"}

	outcomes := engine.ScoreAll(context.Background(), projects, 4)
	require.Len(t, outcomes, 20)

	for i, out := range outcomes {
		if i == 7 {
			assert.ErrorIs(t, out.Err, ErrAllDimensionsUndefined)
			continue
		}
		require.NoError(t, out.Err)
		assert.Equal(t, projects[i].Name, out.Record.Name)
	}
}

func TestScoreAllCanceledContext(t *testing.T) {
	engine := newTestEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes := engine.ScoreAll(ctx, []types.ProjectMetrics{fullMetrics("a")}, 2)
	require.Len(t, outcomes, 1)
	assert.ErrorIs(t, outcomes[0].Err, context.Canceled)
}
