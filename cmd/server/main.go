package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/api"
	"github.com/bobby-s-dev/weather-dashboard/internal/config"
	"github.com/bobby-s-dev/weather-dashboard/internal/scheduler"
	"github.com/bobby-s-dev/weather-dashboard/internal/services"
	"github.com/bobby-s-dev/weather-dashboard/internal/storage"
	"github.com/bobby-s-dev/weather-dashboard/pkg/client"
	"github.com/bobby-s-dev/weather-dashboard/pkg/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// Initialize logger
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = level
	logger, _ := zapConfig.Build()
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	logger.Info("Starting Weather Dashboard Service")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	if err := level.UnmarshalText([]byte(cfg.Server.LogLevel)); err != nil {
		logger.Warn("Invalid log level, keeping info", zap.String("level", cfg.Server.LogLevel))
	}
	if cfg.WeatherAPI.OpenWeatherAPIKey == "" {
		logger.Warn("OPENWEATHER_API_KEY is not set; every fetch will fail with a provider error")
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector("weather_dashboard", registry)

	// Provider client
	weatherClient := client.NewOpenWeatherClient(
		cfg.WeatherAPI.OpenWeatherAPIKey,
		cfg.WeatherAPI.OpenWeatherURL,
		client.ClientConfig{
			Timeout:           cfg.WeatherAPI.Timeout,
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
			Threshold:         cfg.CircuitBreaker.Threshold,
			BreakerTimeout:    cfg.CircuitBreaker.Timeout,
			Metrics:           collector,
		},
		logger,
	)

	var suggester api.Suggester
	if cfg.Suggestions.GeoDBAPIKey != "" {
		suggester = client.NewGeoDBClient(
			cfg.Suggestions.GeoDBURL,
			cfg.Suggestions.GeoDBHost,
			cfg.Suggestions.GeoDBAPIKey,
			cfg.Suggestions.Timeout,
			logger,
		)
		logger.Info("City suggestions enabled")
	}

	// Preferences
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 15*time.Second)
	store, err := storage.Open(startupCtx, cfg.Storage.Driver, cfg.Storage.FilePath, cfg.Storage.DSN)
	if err != nil {
		cancelStartup()
		logger.Fatal("Failed to open preference storage",
			zap.String("driver", cfg.Storage.Driver),
			zap.Error(err))
	}
	if pg, ok := store.(*storage.PostgresStore); ok {
		defer pg.Close()
	}
	prefs := storage.NewPreferences(store, logger)

	// Initialize dashboard
	dashboard := services.NewDashboard(startupCtx, cfg.Dashboard, weatherClient, prefs, collector, logger)
	cancelStartup()

	// Initialize scheduler
	refreshScheduler := scheduler.NewScheduler(
		dashboard,
		cfg.Scheduler.RefreshInterval,
		cfg.Dashboard.PipelineTimeout,
		logger,
	)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		JSONEncoder:  json.Marshal,
		ErrorHandler: errorHandler,
	})

	// Setup handlers and routes
	locator := services.StaticLocator{Coordinates: cfg.Dashboard.DefaultCoordinates}
	handler := api.NewHandler(dashboard, locator, suggester, logger)
	api.SetupRoutes(app, handler, api.RouteOptions{
		CORSOrigins: cfg.Server.CORSOrigins,
		Metrics:     collector,
		Gatherer:    registry,
	}, logger)

	// Initial load for the default city
	go dashboard.Refresh(context.Background())

	// Start scheduler
	if err := refreshScheduler.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}

	// Start server in goroutine
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("Starting server", zap.String("address", addr))

		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop scheduler
	refreshScheduler.Stop()

	// Shutdown Fiber app
	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}

func errorHandler(c *fiber.Ctx, err error) error {
	zap.L().Error("HTTP error",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err))

	// Default to 500 status code
	code := fiber.StatusInternalServerError

	// Check if it's a Fiber error
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   err.Error(),
		"success": false,
	})
}
