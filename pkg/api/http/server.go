package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/wai-network/globe/internal/application/globe"
)

// DataPath is the path of the metrics endpoint
const DataPath = "/api/data"

// Snapshotter produces the payload served on DataPath
type Snapshotter interface {
	Snapshot(ctx context.Context) globe.AggregateResponse
}

// RequestObserver records served requests
type RequestObserver interface {
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)
}

// Server represents the HTTP server
type Server struct {
	router     *gin.Engine
	server     *http.Server
	aggregator Snapshotter
	gatherer   prometheus.Gatherer
	logger     *zap.Logger
}

// Config holds HTTP server configuration
type Config struct {
	Port       int
	StaticDir  string
	Aggregator Snapshotter
	Metrics    RequestObserver
	Gatherer   prometheus.Gatherer
	Logger     *zap.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	staticDir := cfg.StaticDir
	if staticDir == "" {
		staticDir = "."
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(requestLogger(logger))
	if cfg.Metrics != nil {
		router.Use(requestMetrics(cfg.Metrics))
	}

	s := &Server{
		router:     router,
		aggregator: cfg.Aggregator,
		gatherer:   gatherer,
		logger:     logger,
	}

	s.setupRoutes(staticDir)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// setupRoutes configures routes
func (s *Server) setupRoutes(staticDir string) {
	s.router.GET(DataPath, corsMiddleware(), s.handleData)

	// Health check
	s.router.GET("/health", s.handleHealth)

	// Metrics
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	// Everything else is a static asset
	s.router.NoRoute(gin.WrapH(http.FileServer(http.Dir(staticDir))))
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info("HTTP server shut down complete")
	return nil
}
