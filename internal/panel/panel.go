// Package panel serves the HTTP API and the score lookup page.
package panel

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/openteams/osshs/internal/cache"
	"github.com/openteams/osshs/internal/database"
	apperrors "github.com/openteams/osshs/internal/errors"
	"github.com/openteams/osshs/internal/ratelimit"
	"github.com/openteams/osshs/internal/scoring"
	"github.com/openteams/osshs/internal/types"
)

// Version reported by the health endpoint.
const Version = "1.0.0"

// submitPerMinute caps score submissions per client. Submissions write to
// the database and flush the cache, so they get a tighter budget than the
// global IP limit.
const submitPerMinute = 10

// Server holds the panel's dependencies.
type Server struct {
	repo      *database.Repository
	engine    *scoring.Engine
	cache     *cache.Cache
	limiter   *ratelimit.RateLimiter
	index     *template.Template
	startedAt time.Time
}

// Options configures the router.
type Options struct {
	CORSOrigins []string
}

// NewServer creates the panel server.
func NewServer(repo *database.Repository, engine *scoring.Engine, lookupCache *cache.Cache, limiter *ratelimit.RateLimiter) (*Server, error) {
	index, err := LoadTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to load panel templates: %w", err)
	}

	return &Server{
		repo:      repo,
		engine:    engine,
		cache:     lookupCache,
		limiter:   limiter,
		index:     index,
		startedAt: time.Now(),
	}, nil
}

// Router builds the gin engine with the full middleware stack.
func (s *Server) Router(opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(apperrors.ErrorHandler())

	corsConfig := cors.DefaultConfig()
	if len(opts.CORSOrigins) == 0 || (len(opts.CORSOrigins) == 1 && opts.CORSOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = opts.CORSOrigins
	}
	r.Use(cors.New(corsConfig))

	if s.limiter != nil {
		r.Use(s.limiter.IPRateLimitMiddleware())
	}

	r.GET("/", s.handleIndex)
	r.GET("/health", s.handleHealth)

	api := r.Group("/api/v1")
	if s.cache != nil {
		api.Use(s.cache.Middleware())
	}
	api.GET("/scores/:name", s.handleGetScore)
	api.GET("/scores/:name/history", s.handleGetHistory)
	api.GET("/leaderboard", s.handleLeaderboard)
	if s.limiter != nil {
		api.POST("/scores", s.limiter.EndpointRateLimitMiddleware("submit_scores", submitPerMinute), s.handleSubmitMetrics)
	} else {
		api.POST("/scores", s.handleSubmitMetrics)
	}

	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	count, err := s.repo.CountScores(c.Request.Context())
	status := "ok"
	if err != nil {
		slog.Error("Health check database probe failed", "error", err)
		status = "degraded"
	}

	body := gin.H{
		"status":          status,
		"version":         Version,
		"timestamp":       time.Now().Format(time.RFC3339),
		"scored_projects": count,
		"uptime_seconds":  int(time.Since(s.startedAt).Seconds()),
		"database":        s.repo.PoolStats(),
	}
	if s.limiter != nil {
		body["rate_limiter"] = s.limiter.GetStats()
	}
	if s.cache != nil {
		body["cache"] = s.cache.Stats()
	}

	if status != "ok" {
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleIndex(c *gin.Context) {
	data := gin.H{"Query": c.Query("q")}

	if q := c.Query("q"); q != "" {
		row, err := s.repo.GetScoreByName(c.Request.Context(), q)
		switch {
		case errors.Is(err, database.ErrScoreNotFound):
			data["Error"] = fmt.Sprintf("No score for %q yet.", q)
		case err != nil:
			data["Error"] = "Lookup failed."
			slog.Error("Panel lookup failed", "project", q, "error", err)
		default:
			data["Scores"] = []*database.ScoreRow{row}
		}
	} else {
		rows, err := s.repo.ListTopScores(c.Request.Context(), 20)
		if err != nil {
			slog.Error("Panel leaderboard failed", "error", err)
			data["Error"] = "Leaderboard unavailable."
		} else {
			data["Scores"] = rows
		}
	}

	var buf bytes.Buffer
	if err := s.index.ExecuteTemplate(&buf, "index.html", data); err != nil {
		slog.Error("Failed to render panel", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to render page"})
		return
	}

	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) handleGetScore(c *gin.Context) {
	name := c.Param("name")

	row, err := s.repo.GetScoreByName(c.Request.Context(), name)
	if errors.Is(err, database.ErrScoreNotFound) {
		c.Error(apperrors.NewNotFoundError(name))
		return
	}
	if err != nil {
		c.Error(apperrors.NewInternalError("score lookup failed", err))
		return
	}

	// API consumers get the score record; storage bookkeeping (row id,
	// created/updated stamps) stays internal.
	c.JSON(http.StatusOK, row.Record())
}

func (s *Server) handleGetHistory(c *gin.Context) {
	name := c.Param("name")

	row, err := s.repo.GetScoreByName(c.Request.Context(), name)
	if errors.Is(err, database.ErrScoreNotFound) {
		c.Error(apperrors.NewNotFoundError(name))
		return
	}
	if err != nil {
		c.Error(apperrors.NewInternalError("score lookup failed", err))
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	history, err := s.repo.GetHistory(c.Request.Context(), row.ProjectID, limit)
	if err != nil {
		c.Error(apperrors.NewInternalError("history lookup failed", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project_name": row.ProjectName,
		"project_id":   row.ProjectID,
		"history":      history,
	})
}

func (s *Server) handleLeaderboard(c *gin.Context) {
	limit := 10
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			c.Error(apperrors.NewValidationError("limit must be an integer between 1 and 100"))
			return
		}
		limit = n
	}

	rows, err := s.repo.ListTopScores(c.Request.Context(), limit)
	if err != nil {
		c.Error(apperrors.NewInternalError("leaderboard query failed", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries":   rows,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleSubmitMetrics scores a metrics payload and stores the result.
func (s *Server) handleSubmitMetrics(c *gin.Context) {
	var metrics types.ProjectMetrics
	if err := c.BindJSON(&metrics); err != nil {
		c.Error(apperrors.NewValidationError("invalid metrics payload", err.Error()))
		return
	}
	if metrics.Name == "" {
		c.Error(apperrors.NewValidationError("project name is required"))
		return
	}
	if metrics.ProjectID == "" {
		metrics.ProjectID = metrics.Name
	}

	rec, err := s.engine.Score(metrics)
	switch {
	case errors.Is(err, scoring.ErrInvalidInput):
		c.Error(apperrors.NewValidationError(err.Error()))
		return
	case errors.Is(err, scoring.ErrAllDimensionsUndefined):
		c.Error(apperrors.NewValidationError("no dimension could be computed from the supplied metrics"))
		return
	case err != nil:
		c.Error(apperrors.NewInternalError("scoring failed", err))
		return
	}

	row, err := s.repo.SaveScore(c.Request.Context(), rec)
	if err != nil {
		c.Error(apperrors.NewInternalError("failed to persist score", err))
		return
	}

	// A rescore invalidates the cached lookup for this project.
	if s.cache != nil {
		s.cache.Clear()
	}

	c.JSON(http.StatusOK, row)
}
