package collectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/openteams/osshs/internal/errors"
	"github.com/openteams/osshs/internal/types"
)

// RegistryCollector pulls package metadata from a libraries.io style
// package index: popularity counters, the declared license, and the
// release history the versioning dimension is derived from.
type RegistryCollector struct {
	client  *Client
	baseURL string
	apiKey  string
}

// NewRegistryCollector creates a registry collector. baseURL points at the
// API root, e.g. https://libraries.io/api.
func NewRegistryCollector(client *Client, baseURL, apiKey string) *RegistryCollector {
	return &RegistryCollector{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

type registryVersion struct {
	Number      string    `json:"number"`
	PublishedAt time.Time `json:"published_at"`
}

type registryProject struct {
	Name                string            `json:"name"`
	ContributionsCount  int64             `json:"contributions_count"`
	SubscribersCount    int64             `json:"subscribers_count"`
	DependentReposCount int64             `json:"dependent_repos_count"`
	StargazersCount     int64             `json:"stargazers_count"`
	DependentsCount     int64             `json:"dependents_count"`
	ForksCount          int64             `json:"forks_count"`
	RecentDownloads     *int64            `json:"recent_downloads"`
	TotalDownloads      *int64            `json:"total_downloads"`
	NormalizedLicenses  []string          `json:"normalized_licenses"`
	RepositoryURL       string            `json:"repository_url"`
	Versions            []registryVersion `json:"versions"`
}

// PackageInfo is the registry's contribution to a project's metrics.
type PackageInfo struct {
	Name       string
	RepoURL    string
	Popularity *types.PopularityMetrics
	License    *string
	Versioning *types.VersioningMetrics
}

// FetchPackage fetches one package's metadata from the registry.
func (r *RegistryCollector) FetchPackage(ctx context.Context, platform, name string) (*PackageInfo, error) {
	endpoint := fmt.Sprintf("%s/%s/%s", r.baseURL, url.PathEscape(platform), url.PathEscape(name))
	if r.apiKey != "" {
		endpoint += "?api_key=" + url.QueryEscape(r.apiKey)
	}

	resp, err := r.client.Get(ctx, endpoint, nil)
	if err != nil {
		return nil, errors.NewExternalAPIError("registry", err)
	}
	defer errors.SafeClose(resp.Body, "registry response")

	if resp.StatusCode != 200 {
		return nil, errors.NewExternalAPIError("registry",
			fmt.Errorf("unexpected status %d for %s/%s", resp.StatusCode, platform, name))
	}

	var proj registryProject
	if err := json.NewDecoder(resp.Body).Decode(&proj); err != nil {
		return nil, errors.NewExternalAPIError("registry", fmt.Errorf("decode package: %w", err))
	}

	info := &PackageInfo{
		Name:    proj.Name,
		RepoURL: proj.RepositoryURL,
		Popularity: &types.PopularityMetrics{
			ContributionsCount:  proj.ContributionsCount,
			SubscribersCount:    proj.SubscribersCount,
			DependentReposCount: proj.DependentReposCount,
			StargazersCount:     proj.StargazersCount,
			DependentsCount:     proj.DependentsCount,
			ForksCount:          proj.ForksCount,
			RecentDownloads:     proj.RecentDownloads,
			TotalDownloads:      proj.TotalDownloads,
		},
		Versioning: buildVersioning(proj.Versions, time.Now()),
	}

	if len(proj.NormalizedLicenses) > 0 {
		lic := proj.NormalizedLicenses[0]
		info.License = &lic
	}

	return info, nil
}

// buildVersioning classifies the release stream into major/minor/patch
// events. The first parseable release anchors the project age but is not
// itself an event, and a republished version number is not a release.
func buildVersioning(versions []registryVersion, now time.Time) *types.VersioningMetrics {
	if len(versions) == 0 {
		return &types.VersioningMetrics{}
	}

	sorted := make([]registryVersion, len(versions))
	copy(sorted, versions)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PublishedAt.Before(sorted[j].PublishedAt)
	})

	releases := make([]types.ReleaseEvent, 0, len(sorted))
	var prev *semanticVersion
	var firstPublished time.Time
	for _, v := range sorted {
		cur, ok := parseSemanticVersion(v.Number)
		if !ok {
			continue
		}
		if prev == nil {
			firstPublished = v.PublishedAt
			prev = &cur
			continue
		}
		if cur == *prev {
			continue
		}
		releases = append(releases, types.ReleaseEvent{
			Type:        classifyRelease(*prev, cur),
			PublishedAt: v.PublishedAt,
		})
		prev = &cur
	}

	m := &types.VersioningMetrics{Releases: releases}
	if prev != nil {
		age := now.Sub(firstPublished).Hours() / 24
		if age >= 0 {
			m.AgeDays = &age
		}
	}

	return m
}

type semanticVersion struct {
	major, minor, patch int
}

// parseSemanticVersion accepts "1", "1.2", "1.2.3" and a leading "v";
// anything else (pre-releases with letters, dates) is skipped.
func parseSemanticVersion(s string) (semanticVersion, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	parts := strings.SplitN(s, ".", 4)
	if len(parts) > 3 {
		parts = parts[:3]
	}

	var out [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return semanticVersion{}, false
		}
		out[i] = n
	}

	return semanticVersion{major: out[0], minor: out[1], patch: out[2]}, true
}

// classifyRelease tags a version against its predecessor by the leftmost
// component that moved. Callers guarantee the two versions differ.
func classifyRelease(prev, cur semanticVersion) types.ReleaseType {
	if cur.major != prev.major {
		return types.ReleaseMajor
	}
	if cur.minor != prev.minor {
		return types.ReleaseMinor
	}
	return types.ReleasePatch
}
