package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/openteams/osshs/internal/collectors"
	"github.com/openteams/osshs/internal/config"
	"github.com/openteams/osshs/internal/database"
	"github.com/openteams/osshs/internal/scoring"
)

type collectOptions struct {
	platform string
	score    bool
	save     bool
}

// newCollectCmd pulls metrics for packages from the upstream sources and
// optionally scores and stores them in one pass.
func newCollectCmd(root *rootOptions) *cobra.Command {
	opts := &collectOptions{}

	cmd := &cobra.Command{
		Use:   "collect <package>...",
		Short: "Collect metrics for packages from upstream sources",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}
			return runCollect(cmd.Context(), cfg, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.platform, "platform", "p", "pypi", "package platform (pypi, npm, cargo, ...)")
	cmd.Flags().BoolVar(&opts.score, "score", false, "score the collected metrics")
	cmd.Flags().BoolVar(&opts.save, "save", false, "persist scores to the database (implies --score)")

	return cmd
}

func buildCollector(cfg config.Config) *collectors.Collector {
	client := collectors.NewClient(cfg.Collectors.RequestTimeout, retryConfig(cfg), 5)

	c := &collectors.Collector{
		Registry:  collectors.NewRegistryCollector(client, cfg.Collectors.RegistryBaseURL, cfg.Collectors.RegistryAPIKey),
		GitHub:    collectors.NewGitHubCollector(context.Background(), cfg.Collectors.GitHubToken),
		Scorecard: collectors.NewScorecardCollector(cfg.Collectors.ScorecardBinary),
	}

	// Social collectors only run with credentials; without them the
	// community dimension falls back to the GitHub signals alone.
	if cfg.Collectors.TwitterBearer != "" {
		c.Twitter = collectors.NewTwitterCollector(client, cfg.Collectors.TwitterBearer)
	}
	if cfg.Collectors.StackExchangeKey != "" {
		c.StackExchange = collectors.NewStackExchangeCollector(client, cfg.Collectors.StackExchangeKey)
	}

	return c
}

func retryConfig(cfg config.Config) collectors.RetryConfig {
	rc := collectors.DefaultRetryConfig()
	if cfg.Collectors.MaxRetries > 0 {
		rc.MaxAttempts = cfg.Collectors.MaxRetries
	}
	return rc
}

func runCollect(ctx context.Context, cfg config.Config, opts *collectOptions, packages []string) error {
	collector := buildCollector(cfg)

	var engine *engineWithRepo
	if opts.score || opts.save {
		e, err := loadEngine(cfg)
		if err != nil {
			return err
		}
		engine = &engineWithRepo{engine: e}

		if opts.save {
			db, err := database.NewDB(cfg.Database.DataDir)
			if err != nil {
				return err
			}
			defer db.Close()
			engine.repo = database.NewRepository(db)
		}
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	failures := 0
	for _, pkg := range packages {
		metrics, err := collector.Collect(ctx, opts.platform, pkg)
		if err != nil {
			failures++
			slog.Error("Collection failed", "package", pkg, "error", err)
			continue
		}

		if engine == nil {
			if err := encoder.Encode(metrics); err != nil {
				return err
			}
			continue
		}

		rec, err := engine.engine.Score(metrics)
		if err != nil {
			failures++
			slog.Error("Scoring failed", "package", pkg, "error", err)
			continue
		}
		if engine.repo != nil {
			if _, err := engine.repo.SaveScore(ctx, rec); err != nil {
				return err
			}
		}
		if err := encoder.Encode(rec); err != nil {
			return err
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d packages failed", failures, len(packages))
	}
	return nil
}

type engineWithRepo struct {
	engine *scoring.Engine
	repo   *database.Repository
}
