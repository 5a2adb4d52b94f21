// Package api exposes the service over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/itzzomkar/NavYatra/internal/database"
	"github.com/itzzomkar/NavYatra/internal/metrics"
	"github.com/itzzomkar/NavYatra/pkg/decision"
	"github.com/itzzomkar/NavYatra/pkg/fleet"
	"github.com/itzzomkar/NavYatra/pkg/health"
	"github.com/itzzomkar/NavYatra/pkg/models"
	"github.com/itzzomkar/NavYatra/pkg/optimizer"
	"github.com/itzzomkar/NavYatra/pkg/scheduler"
)

// Server represents the API server
type Server struct {
	router    *gin.Engine
	repo      *database.Repository
	reader    fleet.Reader
	assessor  *health.Assessor
	engine    *decision.Engine
	scheduler *scheduler.Scheduler
	optimizer *optimizer.Optimizer
	metrics   *metrics.Metrics
	logger    *zap.Logger
	port      string
}

// Deps bundles everything the server serves.
type Deps struct {
	Repo      *database.Repository
	Reader    fleet.Reader
	Assessor  *health.Assessor
	Engine    *decision.Engine
	Scheduler *scheduler.Scheduler
	Optimizer *optimizer.Optimizer
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// NewServer creates a new API server
func NewServer(deps Deps, port string, allowOrigins []string) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	config := cors.DefaultConfig()
	config.AllowOrigins = allowOrigins
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	router.Use(cors.New(config))

	server := &Server{
		router:    router,
		repo:      deps.Repo,
		reader:    deps.Reader,
		assessor:  deps.Assessor,
		engine:    deps.Engine,
		scheduler: deps.Scheduler,
		optimizer: deps.Optimizer,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		port:      port,
	}
	if server.logger == nil {
		server.logger = zap.NewNop()
	}
	router.Use(server.observe())

	server.setupRoutes()
	return server
}

// observe logs every request and feeds the latency histogram.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		if s.metrics != nil {
			s.metrics.RequestDuration.WithLabelValues(
				c.Request.Method, path, strconv.Itoa(c.Writer.Status())).
				Observe(elapsed.Seconds())
		}
		s.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", elapsed))
	}
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.Group("/api/v1")

	// Fleet endpoints
	api.GET("/trainsets", s.listTrainsets)
	api.GET("/trainsets/:id", s.getTrainset)
	api.PUT("/trainsets/:id", s.upsertTrainset)
	api.GET("/trainsets/:id/history", s.getStatusHistory)

	// Health assessment endpoints
	api.POST("/telemetry", s.ingestTelemetry)
	api.GET("/trainsets/:id/assessment", s.getAssessment)
	api.GET("/fleet/health", s.getFleetHealth)
	api.GET("/fleet/maintenance", s.getMaintenanceSchedule)

	// Decision endpoints
	api.GET("/decisions", s.listDecisions)
	api.GET("/decisions/summary", s.getDecisionSummary)
	api.GET("/decisions/history", s.getDecisionHistory)
	api.POST("/decisions/:id/approve", s.approveDecision)

	// Scheduling endpoints
	api.GET("/schedules", s.listSchedules)
	api.POST("/schedules/generate", s.generateSchedule)
	api.GET("/scheduler/status", s.getSchedulerStatus)

	// On-demand optimization
	api.POST("/optimize", s.runOptimization)

	// Health check
	api.GET("/health", s.healthCheck)

	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
}

// Start starts the server
func (s *Server) Start() error {
	return s.router.Run(":" + s.port)
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Handler implementations

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now(),
	})
}

func (s *Server) listTrainsets(c *gin.Context) {
	snapshot, err := s.reader.Snapshot(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (s *Server) getTrainset(c *gin.Context) {
	record, err := s.repo.GetTrainset(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "trainset not found"})
		return
	}

	out := models.DecoratedTrainset{Trainset: record.ToModel()}
	if view, ok := s.assessor.View(record.ID); ok {
		out.Health = view
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) upsertTrainset(c *gin.Context) {
	var trainset models.Trainset
	if err := c.ShouldBindJSON(&trainset); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	trainset.ID = c.Param("id")
	if err := trainset.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record := database.FromModel(trainset)
	if err := s.repo.UpsertTrainset(&record); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, trainset)
}

func (s *Server) getStatusHistory(c *gin.Context) {
	changes, err := s.repo.GetStatusChanges(c.Param("id"), parseLimit(c, 50))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, changes)
}

func (s *Server) ingestTelemetry(c *gin.Context) {
	var sample health.TelemetrySample
	if err := c.ShouldBindJSON(&sample); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if sample.TrainsetID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "trainset_id is required"})
		return
	}
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now()
	}

	s.assessor.Ingest(sample)

	codes, _ := json.Marshal(sample.FailureCodes)
	extra, _ := json.Marshal(sample.Metrics)
	record := &database.TelemetryRecord{
		TrainsetID:     sample.TrainsetID,
		Timestamp:      sample.Timestamp,
		EngineTempC:    sample.EngineTempC,
		BrakePressure:  sample.BrakePressure,
		BatteryVoltage: sample.BatteryVoltage,
		VibrationLevel: sample.VibrationLevel,
		FailureCodes:   string(codes),
		Metrics:        string(extra),
	}
	if err := s.repo.SaveTelemetry(record); err != nil {
		s.logger.Warn("telemetry persistence failed",
			zap.String("trainset", sample.TrainsetID), zap.Error(err))
	}

	c.JSON(http.StatusAccepted, gin.H{"accepted": true})
}

func (s *Server) getAssessment(c *gin.Context) {
	predictions := s.assessor.Assess(c.Param("id"))
	if predictions == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "insufficient telemetry for assessment"})
		return
	}
	c.JSON(http.StatusOK, predictions)
}

func (s *Server) getFleetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, s.assessor.Summary())
}

func (s *Server) getMaintenanceSchedule(c *gin.Context) {
	c.JSON(http.StatusOK, s.assessor.Schedule())
}

func (s *Server) listDecisions(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.Active())
}

func (s *Server) getDecisionSummary(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.Summarize())
}

func (s *Server) getDecisionHistory(c *gin.Context) {
	history := s.engine.History()
	if limit := parseLimit(c, 0); limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	c.JSON(http.StatusOK, history)
}

func (s *Server) approveDecision(c *gin.Context) {
	var body struct {
		ApprovedBy string `json:"approved_by" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	if !s.engine.Approve(id, body.ApprovedBy) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such pending decision"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"approved": true, "id": id})
}

func (s *Server) listSchedules(c *gin.Context) {
	schedules := s.scheduler.Schedules()
	if limit := parseLimit(c, 0); limit > 0 && len(schedules) > limit {
		schedules = schedules[len(schedules)-limit:]
	}
	c.JSON(http.StatusOK, schedules)
}

func (s *Server) generateSchedule(c *gin.Context) {
	if err := s.scheduler.GenerateNow(c.Request.Context()); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	schedules := s.scheduler.Schedules()
	if len(schedules) == 0 {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "generation produced no schedule"})
		return
	}
	c.JSON(http.StatusCreated, schedules[len(schedules)-1])
}

func (s *Server) getSchedulerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.scheduler.CurrentStatus())
}

func (s *Server) runOptimization(c *gin.Context) {
	var request optimizer.OptimizationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snapshot, err := s.reader.Snapshot(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result, err := s.optimizer.Optimize(c.Request.Context(), request, snapshot)
	switch {
	case errors.Is(err, optimizer.ErrQueueFull):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func parseLimit(c *gin.Context, def int) int {
	raw := c.Query("limit")
	if raw == "" {
		return def
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return def
	}
	return limit
}
