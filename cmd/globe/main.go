package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wai-network/globe/internal/application/globe"
	"github.com/wai-network/globe/internal/config"
	"github.com/wai-network/globe/pkg/adapters/grafana"
	metrics "github.com/wai-network/globe/pkg/adapters/metrics/prometheus"
	"github.com/wai-network/globe/pkg/api/http"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("starting globe visualization server",
		zap.String("version", Version),
		zap.String("build_time", BuildTime))

	// Metrics registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metricsCollector := metrics.NewCollector(registry)

	// Initialize adapters
	grafanaClient := grafana.NewClient(&grafana.Config{
		BaseURL:            cfg.Grafana.URL,
		User:               cfg.Grafana.User,
		Password:           cfg.Grafana.Password,
		DatasourceUID:      cfg.Grafana.DatasourceUID,
		DatasourceType:     cfg.Grafana.DatasourceType,
		Timeout:            cfg.Grafana.Timeout,
		InsecureSkipVerify: cfg.Grafana.InsecureSkipVerify,
		Instrument:         metricsCollector.InstrumentRoundTripper,
		Logger:             logger,
	})

	// Initialize application components
	aggregator := globe.NewAggregator(
		globe.NewExtractor(grafanaClient),
		metricsCollector,
		logger,
	)

	httpServer := http.NewServer(&http.Config{
		Port:       cfg.HTTPPort,
		StaticDir:  cfg.StaticDir,
		Aggregator: aggregator,
		Metrics:    metricsCollector,
		Gatherer:   registry,
		Logger:     logger,
	})

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	logger.Info("globe visualization server started",
		zap.String("addr", httpServer.Addr()),
		zap.String("static_dir", cfg.StaticDir),
		zap.String("grafana_url", cfg.Grafana.URL),
		zap.String("visit", fmt.Sprintf("http://localhost:%d", cfg.HTTPPort)),
		zap.String("api_endpoint", fmt.Sprintf("http://localhost:%d%s", cfg.HTTPPort, http.DataPath)))

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	logger.Info("globe visualization server shut down complete")
}

// initLogger initializes the logger based on log level
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}
