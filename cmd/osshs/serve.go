package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/openteams/osshs/internal/cache"
	"github.com/openteams/osshs/internal/config"
	"github.com/openteams/osshs/internal/database"
	"github.com/openteams/osshs/internal/panel"
	"github.com/openteams/osshs/internal/ratelimit"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the score lookup API and panel",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}
			return runServe(cfg)
		},
	}
}

func runServe(cfg config.Config) error {
	db, err := database.NewDB(cfg.Database.DataDir)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := database.NewRepository(db)

	engine, err := loadEngine(cfg)
	if err != nil {
		return err
	}

	limiter := ratelimit.NewRateLimiter(cfg.RateLimit)
	lookupCache := cache.New(cfg.CacheTTL)

	server, err := panel.NewServer(repo, engine, lookupCache, limiter)
	if err != nil {
		return err
	}

	router := server.Router(panel.Options{CORSOrigins: cfg.Server.CORSOrigins})

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Daily purge keeps score history inside the retention window.
	go purgeLoop(ctx, repo, cfg.Database.HistoryRetention)

	go func() {
		slog.Info("Server starting", "addr", cfg.Addr())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}

	slog.Info("Server stopped")
	return nil
}

func purgeLoop(ctx context.Context, repo *database.Repository, retention time.Duration) {
	if retention <= 0 {
		return
	}

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-retention)
			removed, err := repo.PurgeHistoryBefore(ctx, cutoff)
			if err != nil {
				slog.Error("History purge failed", "error", err)
				continue
			}
			if removed > 0 {
				slog.Info("Purged score history", "removed", removed, "cutoff", cutoff)
			}
		}
	}
}
