package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/openteams/osshs/internal/config"
	"github.com/openteams/osshs/internal/database"
	"github.com/openteams/osshs/internal/types"
)

type scoreOptions struct {
	inputPath string
	save      bool
}

// newScoreCmd scores metrics records from a JSON file without touching
// any upstream source, which makes offline rescoring with new weights
// possible.
func newScoreCmd(root *rootOptions) *cobra.Command {
	opts := &scoreOptions{}

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score collected metrics from a JSON file",
		Long: `Score reads one or more project metrics records from a JSON file
(either a single object or an array) and prints the resulting score
records. With --save the scores are also written to the database.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}
			return runScore(cmd.Context(), cfg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.inputPath, "input", "i", "", "path to metrics JSON (required)")
	cmd.Flags().BoolVar(&opts.save, "save", false, "persist scores to the database")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runScore(ctx context.Context, cfg config.Config, opts *scoreOptions) error {
	data, err := os.ReadFile(opts.inputPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", opts.inputPath, err)
	}

	projects, err := decodeMetrics(data)
	if err != nil {
		return err
	}

	engine, err := loadEngine(cfg)
	if err != nil {
		return err
	}

	var repo *database.Repository
	if opts.save {
		db, err := database.NewDB(cfg.Database.DataDir)
		if err != nil {
			return err
		}
		defer db.Close()
		repo = database.NewRepository(db)
	}

	outcomes := engine.ScoreAll(ctx, projects, cfg.Workers)

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	failures := 0
	for i, out := range outcomes {
		if out.Err != nil {
			failures++
			slog.Error("Scoring failed", "project", projects[i].Name, "error", out.Err)
			continue
		}
		if repo != nil {
			if _, err := repo.SaveScore(ctx, out.Record); err != nil {
				return err
			}
		}
		if err := encoder.Encode(out.Record); err != nil {
			return err
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d projects failed to score", failures, len(projects))
	}
	return nil
}

// decodeMetrics accepts a single metrics object or an array of them.
func decodeMetrics(data []byte) ([]types.ProjectMetrics, error) {
	var many []types.ProjectMetrics
	if err := json.Unmarshal(data, &many); err == nil {
		return many, nil
	}

	var one types.ProjectMetrics
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, fmt.Errorf("input is neither a metrics object nor an array: %w", err)
	}
	return []types.ProjectMetrics{one}, nil
}
