package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"github.com/bobby-s-dev/weather-dashboard/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const streamKeepAlive = 15 * time.Second

var validate = validator.New()

// Suggester returns city-name completions for a typed prefix.
type Suggester interface {
	Suggest(ctx context.Context, prefix string) []string
}

type Handler struct {
	dashboard *services.Dashboard
	locator   services.Geolocator
	suggester Suggester
	logger    *zap.Logger
}

// NewHandler wires the dashboard operations to HTTP. locator answers
// location requests that carry no position; suggester may be nil.
func NewHandler(dashboard *services.Dashboard, locator services.Geolocator, suggester Suggester, logger *zap.Logger) *Handler {
	return &Handler{
		dashboard: dashboard,
		locator:   locator,
		suggester: suggester,
		logger:    logger,
	}
}

type searchRequest struct {
	City string   `json:"city"`
	Lat  *float64 `json:"lat" validate:"required_with=Lon"`
	Lon  *float64 `json:"lon" validate:"required_with=Lat"`
}

type locationRequest struct {
	Lat   *float64 `json:"lat" validate:"required_with=Lon"`
	Lon   *float64 `json:"lon" validate:"required_with=Lat"`
	Error string   `json:"error" validate:"omitempty,oneof=denied unsupported"`
}

type unitsRequest struct {
	Units string `json:"units" validate:"required,oneof=metric imperial"`
}

type favouriteRequest struct {
	City string `json:"city" validate:"max=200"`
}

// GetState handles GET /api/v1/state
func (h *Handler) GetState(c *fiber.Ctx) error {
	return c.JSON(h.dashboard.State())
}

// StreamState handles GET /api/v1/state/stream. It sends the current state
// immediately, then one event per change.
func (h *Handler) StreamState(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	updates, unsubscribe := h.dashboard.Subscribe()
	initial := h.dashboard.State()
	requestID := fmt.Sprint(c.Locals("requestid"))

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()

		keepAlive := time.NewTicker(streamKeepAlive)
		defer keepAlive.Stop()

		if err := writeEvent(w, initial); err != nil {
			return
		}
		for {
			select {
			case state, ok := <-updates:
				if !ok {
					return
				}
				if err := writeEvent(w, state); err != nil {
					h.logger.Debug("State stream closed",
						zap.String("request_id", requestID),
						zap.Error(err))
					return
				}
			case <-keepAlive.C:
				if _, err := w.WriteString(": keep-alive\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))
	return nil
}

func writeEvent(w *bufio.Writer, state models.ViewState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: state\ndata: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}

// Search handles POST /api/v1/search with either {city} or {lat, lon}.
func (h *Handler) Search(c *fiber.Ctx) error {
	var req searchRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err)
	}

	if req.Lat != nil && req.Lon != nil {
		h.logger.Info("Searching by coordinates",
			zap.Float64("lat", *req.Lat),
			zap.Float64("lon", *req.Lon))
		return c.JSON(h.dashboard.SearchByCoordinates(c.UserContext(), *req.Lat, *req.Lon))
	}

	h.logger.Info("Searching by name", zap.String("city", req.City))
	return c.JSON(h.dashboard.SearchByName(c.UserContext(), req.City))
}

// UseLocation handles POST /api/v1/location. The browser posts the position
// it resolved, or the reason it could not; an empty body falls back to the
// configured locator.
func (h *Handler) UseLocation(c *fiber.Ctx) error {
	var req locationRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err)
	}

	var locator services.Geolocator
	switch {
	case req.Error != "":
		locator = services.PositionReport{Failure: req.Error}
	case req.Lat != nil && req.Lon != nil:
		locator = services.PositionReport{Coordinates: &models.Coordinates{Lat: *req.Lat, Lon: *req.Lon}}
	default:
		locator = h.locator
	}

	return c.JSON(h.dashboard.UseMyLocation(c.UserContext(), locator))
}

// ChangeUnits handles PUT /api/v1/units
func (h *Handler) ChangeUnits(c *fiber.Ctx) error {
	var req unitsRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err)
	}

	units, err := models.ParseUnits(req.Units)
	if err != nil {
		return badRequest(c, err)
	}

	h.logger.Info("Changing units", zap.String("units", req.Units))
	return c.JSON(h.dashboard.ChangeUnits(c.UserContext(), units))
}

// Refresh handles POST /api/v1/refresh
func (h *Handler) Refresh(c *fiber.Ctx) error {
	return c.JSON(h.dashboard.Refresh(c.UserContext()))
}

// ToggleFavourite handles POST /api/v1/favourites/toggle. A missing city
// toggles the city currently shown.
func (h *Handler) ToggleFavourite(c *fiber.Ctx) error {
	var req favouriteRequest
	if err := bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	return c.JSON(h.dashboard.ToggleFavourite(c.UserContext(), req.City))
}

// ToggleTheme handles POST /api/v1/theme/toggle
func (h *Handler) ToggleTheme(c *fiber.Ctx) error {
	return c.JSON(h.dashboard.ToggleTheme(c.UserContext()))
}

// GetSuggestions handles GET /api/v1/suggestions
func (h *Handler) GetSuggestions(c *fiber.Ctx) error {
	suggestions := []string{}
	if h.suggester != nil {
		suggestions = h.suggester.Suggest(c.UserContext(), c.Query("q"))
	}
	return c.JSON(fiber.Map{
		"suggestions": suggestions,
	})
}

// GetHealth handles GET /api/v1/health
func (h *Handler) GetHealth(c *fiber.Ctx) error {
	state := h.dashboard.State()

	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now(),
		"uptime":    time.Since(startTime).String(),
		"city":      state.City,
		"loading":   state.Loading,
	})
}

// bind decodes an optional JSON body and validates it. An empty body
// validates the zero value.
func bind(c *fiber.Ctx, out interface{}) error {
	if len(c.Body()) > 0 {
		if err := c.App().Config().JSONDecoder(c.Body(), out); err != nil {
			return fmt.Errorf("invalid JSON body: %w", err)
		}
	}
	return validate.Struct(out)
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": err.Error(),
	})
}

var startTime = time.Now()
