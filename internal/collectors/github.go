package collectors

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/go-github/v60/github"
	"golang.org/x/oauth2"

	"github.com/openteams/osshs/internal/errors"
	"github.com/openteams/osshs/internal/scoring"
	"github.com/openteams/osshs/internal/types"
)

// GitHubCollector gathers the community dimension's repository signals.
type GitHubCollector struct {
	client *github.Client
}

// NewGitHubCollector creates a collector against api.github.com. An empty
// token means unauthenticated requests with their much lower rate budget.
func NewGitHubCollector(ctx context.Context, token string) *GitHubCollector {
	var client *github.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		client = github.NewClient(oauth2.NewClient(ctx, ts))
	} else {
		client = github.NewClient(nil)
	}
	return &GitHubCollector{client: client}
}

// NewGitHubCollectorWithClient wires an explicit client, used by tests to
// point at a stub server.
func NewGitHubCollectorWithClient(client *github.Client) *GitHubCollector {
	return &GitHubCollector{client: client}
}

// ParseRepoURL extracts owner and repo from a github.com repository URL.
func ParseRepoURL(repoURL string) (owner, repo string, err error) {
	u, err := url.Parse(repoURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid repository URL %q: %w", repoURL, err)
	}
	if !strings.HasSuffix(u.Host, "github.com") {
		return "", "", fmt.Errorf("not a GitHub repository URL: %q", repoURL)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repository URL %q missing owner/repo", repoURL)
	}

	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}

// FetchCommunity fills the GitHub-sourced fields of CommunityMetrics.
// The Twitter and StackExchange fields are left zero for their own
// collectors.
func (g *GitHubCollector) FetchCommunity(ctx context.Context, owner, repo string) (*types.CommunityMetrics, error) {
	m := &types.CommunityMetrics{}

	repoData, _, err := g.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, errors.NewExternalAPIError("github", err)
	}
	m.HasDocumentation = repoData.GetHasWiki() || repoData.GetHasPages()

	if health, _, err := g.client.Repositories.GetCommunityHealthMetrics(ctx, owner, repo); err != nil {
		slog.Warn("Community health metrics unavailable", "owner", owner, "repo", repo, "error", err)
	} else if files := health.Files; files != nil {
		m.HasReadme = files.Readme != nil
		m.HasContributionGuidelines = files.Contributing != nil
		m.HasGovernance = files.CodeOfConduct != nil
	}

	counts, err := g.fetchIssueCounts(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	m.OpenIssuesCount = counts[0]
	m.ClosedIssuesCount = counts[1]
	m.OpenPRCount = counts[2]
	m.ClosedPRCount = counts[3]

	if weekly, err := g.fetchWeeklyCommits(ctx, owner, repo); err != nil {
		slog.Warn("Commit participation unavailable", "owner", owner, "repo", repo, "error", err)
	} else {
		m.WeeklyCommits = weekly
	}

	if spread, err := g.fetchContributorSpread(ctx, owner, repo); err != nil {
		slog.Warn("Contributor stats unavailable", "owner", owner, "repo", repo, "error", err)
	} else {
		m.ContribStats = spread
	}

	return m, nil
}

// fetchIssueCounts returns open/closed issue and PR totals via the search
// API, which reports totals without paging through every item.
func (g *GitHubCollector) fetchIssueCounts(ctx context.Context, owner, repo string) ([4]int64, error) {
	var out [4]int64
	queries := []string{
		fmt.Sprintf("repo:%s/%s is:issue is:open", owner, repo),
		fmt.Sprintf("repo:%s/%s is:issue is:closed", owner, repo),
		fmt.Sprintf("repo:%s/%s is:pr is:open", owner, repo),
		fmt.Sprintf("repo:%s/%s is:pr is:closed", owner, repo),
	}

	opts := &github.SearchOptions{ListOptions: github.ListOptions{PerPage: 1}}
	for i, q := range queries {
		res, _, err := g.client.Search.Issues(ctx, q, opts)
		if err != nil {
			return out, errors.NewExternalAPIError("github", err)
		}
		out[i] = int64(res.GetTotal())
	}

	return out, nil
}

// fetchWeeklyCommits returns the commit count of the most recent week.
func (g *GitHubCollector) fetchWeeklyCommits(ctx context.Context, owner, repo string) (int64, error) {
	participation, _, err := g.client.Repositories.ListParticipation(ctx, owner, repo)
	if err != nil {
		return 0, err
	}
	if participation == nil || len(participation.All) == 0 {
		return 0, nil
	}
	return int64(participation.All[len(participation.All)-1]), nil
}

// fetchContributorSpread returns how many top contributors it takes to
// cover the majority of commits.
func (g *GitHubCollector) fetchContributorSpread(ctx context.Context, owner, repo string) (int64, error) {
	opts := &github.ListContributorsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var commits []int64
	for {
		contributors, resp, err := g.client.Repositories.ListContributors(ctx, owner, repo, opts)
		if err != nil {
			return 0, err
		}
		for _, c := range contributors {
			commits = append(commits, int64(c.GetContributions()))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return scoring.ContributorConcentration(commits), nil
}
