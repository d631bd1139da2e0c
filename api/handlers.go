package api

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	internalErrors "github.com/gcbaptista/go-archive-search/internal/errors"
	"github.com/gcbaptista/go-archive-search/internal/logging"
	"github.com/gcbaptista/go-archive-search/internal/metrics"
	"github.com/gcbaptista/go-archive-search/services"
)

// Options configures the HTTP surface.
type Options struct {
	Metrics          *metrics.Metrics // Optional; enables /metrics and request metrics
	MetricsPath      string
	DashboardDir     string // Served under /dashboard when the directory exists
	MaxBodyBytes     int64
	MaxUploadBytes   int64
	AllowedOrigins   []string
	DefaultMaxLength int                     // Applied when a request omits max_length; 0 means unbounded
	DefaultRebuild   services.RebuildRequest // Fills fields omitted from /admin/rebuild
	RebuildDir       string                  // Paths sent to /admin/rebuild must resolve inside it; empty rejects them
}

// API holds dependencies for API handlers.
type API struct {
	engine   services.IndexManager
	searcher services.Searcher
	opts     Options
	logger   *logrus.Entry
}

// NewAPI creates a new API handler structure.
func NewAPI(engine services.IndexManager, searcher services.Searcher, opts Options) *API {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 256 << 20
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	return &API{
		engine:   engine,
		searcher: searcher,
		opts:     opts,
		logger:   logging.WithComponent("api"),
	}
}

// SetupRoutes defines all the API routes for the archive search server.
func SetupRoutes(router *gin.Engine, engine services.IndexManager, searcher services.Searcher, opts Options) {
	apiHandler := NewAPI(engine, searcher, opts)
	opts = apiHandler.opts

	router.Use(RequestIDMiddleware(), LoggingMiddleware(apiHandler.logger), CORSMiddleware(opts.AllowedOrigins))
	if opts.Metrics != nil {
		router.Use(MetricsMiddleware(opts.Metrics))
		router.GET(opts.MetricsPath, gin.WrapH(opts.Metrics.Handler()))
	}

	router.GET("/", apiHandler.IndexHandler)
	router.GET("/health", apiHandler.HealthCheckHandler)
	router.GET("/stats", apiHandler.StatsHandler)

	// Search routes
	router.POST("/search", RequestSizeLimitMiddleware(opts.MaxBodyBytes), apiHandler.SearchHandler)
	router.POST("/search_by_file", RequestSizeLimitMiddleware(opts.MaxUploadBytes), apiHandler.SearchByFileHandler)

	// Job management routes
	jobRoutes := router.Group("/jobs")
	{
		jobRoutes.GET("", apiHandler.ListJobsHandler)
		jobRoutes.GET("/metrics", apiHandler.GetJobMetricsHandler)
		jobRoutes.GET("/:jobId", apiHandler.GetJobHandler)
	}

	adminRoutes := router.Group("/admin", RequestSizeLimitMiddleware(opts.MaxBodyBytes))
	{
		adminRoutes.POST("/rebuild", apiHandler.RebuildHandler)
	}

	if opts.DashboardDir != "" {
		if info, err := os.Stat(opts.DashboardDir); err == nil && info.IsDir() {
			router.Static("/dashboard", opts.DashboardDir)
		} else {
			apiHandler.logger.WithField("dir", opts.DashboardDir).Warn("dashboard directory not found, /dashboard disabled")
		}
	}
}

// IndexHandler greets clients hitting the root path.
func (api *API) IndexHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Hello, welcome to our server!"})
}

// HealthCheckHandler reports liveness and whether an index is being served.
func (api *API) HealthCheckHandler(c *gin.Context) {
	status := "healthy"
	code := http.StatusOK
	if _, err := api.engine.Read(); err != nil {
		status = "index_not_loaded"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"service":   "go-archive-search",
		"timestamp": time.Now().Unix(),
	})
}

// StatsHandler describes the serving index.
func (api *API) StatsHandler(c *gin.Context) {
	stats, err := api.engine.Stats()
	if err != nil {
		api.sendEngineError(c, "stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// sendEngineError maps internal errors onto the standard error envelope.
func (api *API) sendEngineError(c *gin.Context, operation string, err error) {
	var validationErr *internalErrors.ValidationError
	switch {
	case errors.As(err, &validationErr):
		SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, validationErr.Message,
			ErrorDetail{Field: validationErr.Field, Message: validationErr.Message, Code: "VALIDATION_ERROR"})
	case errors.Is(err, internalErrors.ErrInvalidInput):
		SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
	case errors.Is(err, internalErrors.ErrIndexNotLoaded):
		SendIndexNotLoadedError(c)
	case errors.Is(err, internalErrors.ErrJobNotFound):
		SendError(c, http.StatusNotFound, ErrorCodeJobNotFound, err.Error())
	default:
		api.logger.WithError(err).WithField("operation", operation).Error("request failed")
		SendInternalError(c, operation, err)
	}
}
