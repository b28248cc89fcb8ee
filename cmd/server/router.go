package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/teampulse/teampulse-backend/internal/apperrors"
	"github.com/teampulse/teampulse-backend/internal/config"
	"github.com/teampulse/teampulse-backend/internal/ingest"
	"github.com/teampulse/teampulse-backend/internal/monitoring"
	"github.com/teampulse/teampulse-backend/internal/ratelimit"
	"github.com/teampulse/teampulse-backend/internal/scoring"
	"github.com/teampulse/teampulse-backend/internal/store"
)

// server bundles the dependencies the HTTP handlers need.
type server struct {
	cfg      *config.Config
	repo     *store.Repository
	db       *store.DB
	scorer   *scoring.Service
	ingestor *ingest.Ingestor
	metrics  *monitoring.Metrics
	logger   *monitoring.Logger
	limiter  *ratelimit.RateLimiter
}

// newRouter builds the gin engine with the full middleware chain and routes.
func newRouter(s *server) *gin.Engine {
	r := gin.New()

	r.Use(apperrors.RecoveryHandler())
	r.Use(monitoring.Middleware(s.metrics, s.logger))
	r.Use(apperrors.ErrorHandler())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if s.limiter != nil {
		r.Use(s.limiter.IPRateLimitMiddleware())
	}

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", s.handleMetrics)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	{
		api.GET("/developers", s.handleListDevelopers)
		api.POST("/developers", s.handleCreateDeveloper)
		api.GET("/developers/:id", s.handleGetDeveloper)

		api.GET("/commits", s.handleListCommits)
		api.GET("/tickets", s.handleListTickets)
		api.GET("/messages", s.handleListMessages)

		api.GET("/burnout/:id", s.handleBurnout)
		api.GET("/productivity/:id", s.handleProductivity)
		api.GET("/collaboration/:id", s.handleCollaboration)

		api.POST("/ingest/github", s.handleIngestGitHub)
	}

	return r
}

// respondError maps a domain error onto the HTTP taxonomy and writes it.
func (s *server) respondError(c *gin.Context, err error) {
	appErr := apperrors.ToAppError(err)
	apperrors.LogError(c, appErr)
	c.JSON(appErr.HTTPStatus, gin.H{
		"error":    appErr.ErrBuilder.Msg,
		"category": appErr.Category,
	})
}

func (s *server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"database":  s.db.PoolStats(),
	})
}

func (s *server) handleMetrics(c *gin.Context) {
	stats := s.metrics.GetStats()
	if s.limiter != nil {
		stats["rate_limiter"] = s.limiter.GetStats()
	}
	c.JSON(http.StatusOK, stats)
}

func (s *server) handleListDevelopers(c *gin.Context) {
	developers, err := s.repo.ListDevelopers(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"developers": developers, "count": len(developers)})
}

func (s *server) handleCreateDeveloper(c *gin.Context) {
	var req struct {
		Name  string `json:"name" binding:"required"`
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperrors.NewValidationError("invalid developer payload", err))
		return
	}

	dev, err := s.repo.CreateDeveloper(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dev)
}

func (s *server) handleGetDeveloper(c *gin.Context) {
	id, ok := s.developerID(c)
	if !ok {
		return
	}

	dev, err := s.repo.GetDeveloper(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dev)
}

func (s *server) handleListCommits(c *gin.Context) {
	id, err := strconv.ParseInt(c.Query("developer_id"), 10, 64)
	if err != nil {
		s.respondError(c, apperrors.NewValidationError("developer_id query parameter is required", err))
		return
	}

	commits, err := s.repo.ListCommits(c.Request.Context(), id, s.listLimit(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"commits": commits, "count": len(commits)})
}

func (s *server) handleListTickets(c *gin.Context) {
	tickets, err := s.repo.ListTickets(c.Request.Context(), s.listLimit(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets, "count": len(tickets)})
}

func (s *server) handleListMessages(c *gin.Context) {
	messages, err := s.repo.ListMessages(c.Request.Context(), s.listLimit(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages, "count": len(messages)})
}

func (s *server) handleBurnout(c *gin.Context) {
	id, ok := s.developerID(c)
	if !ok {
		return
	}

	start := time.Now()
	result, err := s.scorer.Burnout(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.metrics.IncrementScore("burnout")
	s.logger.ScoringLogger("burnout", id, result.RiskLevel, time.Since(start))
	c.JSON(http.StatusOK, result)
}

func (s *server) handleProductivity(c *gin.Context) {
	id, ok := s.developerID(c)
	if !ok {
		return
	}

	start := time.Now()
	result, err := s.scorer.Productivity(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.metrics.IncrementScore("productivity")
	s.logger.ScoringLogger("productivity", id, result.Status, time.Since(start))
	c.JSON(http.StatusOK, result)
}

func (s *server) handleCollaboration(c *gin.Context) {
	id, ok := s.developerID(c)
	if !ok {
		return
	}

	start := time.Now()
	result, err := s.scorer.Collaboration(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.metrics.IncrementScore("collaboration")
	s.logger.ScoringLogger("collaboration", id, result.Status, time.Since(start))
	c.JSON(http.StatusOK, result)
}

func (s *server) handleIngestGitHub(c *gin.Context) {
	if s.ingestor == nil {
		s.respondError(c, apperrors.NewValidationError("ingestion is not configured", nil))
		return
	}

	var req struct {
		Owner     string `json:"owner" binding:"required"`
		Repo      string `json:"repo" binding:"required"`
		SinceDays int    `json:"since_days"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperrors.NewValidationError("invalid ingestion payload", err))
		return
	}
	if req.SinceDays <= 0 {
		req.SinceDays = s.cfg.Analysis.WindowDays
	}

	start := time.Now()
	since := time.Now().AddDate(0, 0, -req.SinceDays)
	result, err := s.ingestor.Run(c.Request.Context(), req.Owner, req.Repo, since)
	if err != nil {
		s.respondError(c, apperrors.NewExternalAPIError("GitHub", err))
		return
	}

	s.metrics.IncrementIngestRun()
	s.logger.IngestLogger("github", result.Fetched, result.Inserted, time.Since(start))
	c.JSON(http.StatusOK, result)
}

// developerID parses the :id path parameter, responding 400 on garbage.
func (s *server) developerID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.respondError(c, apperrors.NewValidationError("developer id must be an integer", err))
		return 0, false
	}
	return id, true
}

func (s *server) listLimit(c *gin.Context) int {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}
	return limit
}
