// Package api exposes the run-history store over a read-only HTTP API for
// the review dashboard.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/minwoo-dev/ota-recon/internal/infrastructure/config"
	"github.com/minwoo-dev/ota-recon/internal/infrastructure/storage"
)

const defaultRunLimit = 20

// Server wraps the gin router over the run-history repository
type Server struct {
	cfg    config.APIConfig
	repo   storage.Repository
	logger *slog.Logger
}

// NewServer creates an API server
func NewServer(cfg config.APIConfig, repo storage.Repository, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{cfg: cfg, repo: repo, logger: logger}
}

// Router builds the configured gin engine
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/health"},
	}))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", s.getHealth)

	api := router.Group("/api")
	{
		api.GET("/runs", s.listRuns)
		api.GET("/runs/:id", s.getRun)
		api.GET("/runs/:id/diagnostics", s.listDiagnostics)
		api.GET("/stats", s.getStats)
	}
	return router
}

// Run serves the API until the listener fails
func (s *Server) Run() error {
	addr := ":" + strconv.Itoa(s.cfg.Port)
	s.logger.Info("starting API server", "addr", addr)
	return s.Router().Run(addr)
}

func (s *Server) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) listRuns(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", strconv.Itoa(defaultRunLimit))
	limit, _ := strconv.Atoi(limitStr)
	if limit <= 0 {
		limit = defaultRunLimit
	}

	runs, err := s.repo.ListRuns(limit)
	if err != nil {
		s.logger.Error("failed to list runs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch runs"})
		return
	}

	out := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, toRunResponse(run))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getRun(c *gin.Context) {
	run, err := s.repo.GetRun(c.Param("id"))
	if err != nil {
		s.logger.Error("failed to fetch run", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch run"})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, toRunResponse(run))
}

func (s *Server) listDiagnostics(c *gin.Context) {
	id := c.Param("id")
	run, err := s.repo.GetRun(id)
	if err != nil {
		s.logger.Error("failed to fetch run", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch run"})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}

	diags, err := s.repo.ListDiagnostics(id)
	if err != nil {
		s.logger.Error("failed to list diagnostics", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch diagnostics"})
		return
	}

	out := make([]DiagnosticResponse, 0, len(diags))
	for _, d := range diags {
		out = append(out, toDiagnosticResponse(d))
	}
	c.JSON(http.StatusOK, out)
}

// getStats aggregates outcome totals over the most recent runs
func (s *Server) getStats(c *gin.Context) {
	runs, err := s.repo.ListRuns(100)
	if err != nil {
		s.logger.Error("failed to list runs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch stats"})
		return
	}

	stats := StatsResponse{}
	for _, run := range runs {
		stats.TotalRuns++
		stats.MatchedGrouped += run.MatchedGrouped
		stats.MatchedIndividual += run.MatchedIndividual
		stats.Mismatched += run.Mismatched
		stats.NoSourceRecord += run.NoSourceRecord
	}
	if len(runs) > 0 {
		latest := toRunResponse(runs[0])
		stats.LatestRun = &latest
	}
	c.JSON(http.StatusOK, stats)
}
