package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/openteams/osshs/internal/config"
	"github.com/openteams/osshs/internal/licenses"
	"github.com/openteams/osshs/internal/scoring"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "osshs",
		Short: "Composite health scores for open source packages",
		Long: `osshs computes composite health scores for open source packages
from five dimensions: popularity, community, security, license, and
versioning. It collects raw metrics from package registries, GitHub,
social sources, and the Scorecard tool, and serves the results over a
small HTTP API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(opts.logLevel)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newScoreCmd(opts))
	cmd.AddCommand(newCollectCmd(opts))

	return cmd
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
}

// loadEngine builds the score engine from the configured weights and
// license table.
func loadEngine(cfg config.Config) (*scoring.Engine, error) {
	var table *licenses.Table
	var err error
	if cfg.LicenseTablePath != "" {
		table, err = licenses.LoadFile(cfg.LicenseTablePath)
	} else {
		table, err = licenses.LoadDefault()
	}
	if err != nil {
		return nil, err
	}

	return scoring.NewEngine(cfg.Weights, table)
}
