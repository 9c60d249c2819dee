// Package collectors gathers the raw metrics behind each score dimension
// from their upstream sources: a package registry, GitHub, Twitter,
// StackExchange, and the Scorecard tool.
package collectors

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/openteams/osshs/internal/types"
)

// Collector orchestrates the per-source collectors into one ProjectMetrics
// record. Any source may be nil; its dimension then stays undefined. The
// registry is the backbone and must be present.
type Collector struct {
	Registry      *RegistryCollector
	GitHub        *GitHubCollector
	Twitter       *TwitterCollector
	StackExchange *StackExchangeCollector
	Scorecard     *ScorecardCollector
}

// Collect resolves all available sources for one package. Failures in
// ancillary sources degrade to missing data instead of failing the whole
// collection; only a registry failure is fatal.
func (c *Collector) Collect(ctx context.Context, platform, name string) (types.ProjectMetrics, error) {
	info, err := c.Registry.FetchPackage(ctx, platform, name)
	if err != nil {
		return types.ProjectMetrics{}, err
	}

	m := types.ProjectMetrics{
		ProjectID:  uuid.New().String(),
		Name:       name,
		RepoURL:    info.RepoURL,
		Popularity: info.Popularity,
		License:    info.License,
		Versioning: info.Versioning,
	}

	if c.GitHub != nil && info.RepoURL != "" {
		owner, repo, err := ParseRepoURL(info.RepoURL)
		if err != nil {
			slog.Warn("Skipping GitHub collection", "project", name, "error", err)
		} else if community, err := c.GitHub.FetchCommunity(ctx, owner, repo); err != nil {
			slog.Warn("GitHub collection failed", "project", name, "error", err)
		} else {
			m.Community = community
		}
	}

	if c.Twitter != nil {
		if stats, err := c.Twitter.FetchActivity(ctx, name); err != nil {
			slog.Warn("Twitter collection failed", "project", name, "error", err)
		} else {
			if m.Community == nil {
				m.Community = &types.CommunityMetrics{}
			}
			stats.Apply(m.Community)
		}
	}

	if c.StackExchange != nil {
		if stats, err := c.StackExchange.FetchActivity(ctx, name); err != nil {
			slog.Warn("StackExchange collection failed", "project", name, "error", err)
		} else {
			if m.Community == nil {
				m.Community = &types.CommunityMetrics{}
			}
			stats.Apply(m.Community)
		}
	}

	if c.Scorecard != nil && info.RepoURL != "" {
		if checks, err := c.Scorecard.FetchChecks(ctx, info.RepoURL); err != nil {
			slog.Warn("Scorecard collection failed", "project", name, "error", err)
		} else {
			m.Security = checks
		}
	}

	return m, nil
}
