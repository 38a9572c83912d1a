package api

import (
	"errors"
	"strconv"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/pkg/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type RouteOptions struct {
	CORSOrigins string
	Metrics     *metrics.Collector
	Gatherer    prometheus.Gatherer
}

func SetupRoutes(app *fiber.App, handler *Handler, opts RouteOptions, log *zap.Logger) {
	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: opts.CORSOrigins,
		AllowMethods: "GET,POST,PUT,HEAD",
	}))

	// Custom logger middleware
	app.Use(logger.New(logger.Config{
		Format:     "${time} ${pid} ${locals:requestid} ${status} - ${method} ${path}\n",
		TimeFormat: time.RFC3339,
	}))

	app.Use(recordRequests(opts.Metrics))

	// Prometheus
	if opts.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	// API v1 routes
	api := app.Group("/api/v1")

	api.Get("/health", handler.GetHealth)
	api.Get("/suggestions", handler.GetSuggestions)

	// Dashboard state
	api.Get("/state", handler.GetState)
	api.Get("/state/stream", handler.StreamState)

	// Dashboard operations
	api.Post("/search", handler.Search)
	api.Post("/location", handler.UseLocation)
	api.Put("/units", handler.ChangeUnits)
	api.Post("/refresh", handler.Refresh)
	api.Post("/favourites/toggle", handler.ToggleFavourite)
	api.Post("/theme/toggle", handler.ToggleTheme)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Endpoint not found",
			"path":  c.Path(),
		})
	})

	log.Info("Routes registered", zap.Bool("metrics", opts.Gatherer != nil))
}

// recordRequests counts every request by matched route, method and status.
func recordRequests(collector *metrics.Collector) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		status := c.Response().StatusCode()
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		collector.RecordAPIRequest(c.Route().Path, c.Method(), strconv.Itoa(status))
		return err
	}
}
