package services

import (
	"context"
	"fmt"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
)

const (
	GeolocationUnsupported = "unsupported"
	GeolocationDenied      = "denied"
)

// Geolocator yields the viewer's position once, or fails.
type Geolocator interface {
	Locate(ctx context.Context) (models.Coordinates, error)
}

type GeolocationError struct {
	Reason  string
	Message string
}

func (e *GeolocationError) Error() string {
	return fmt.Sprintf("geolocation %s: %s", e.Reason, e.Message)
}

func NewGeolocationError(reason string) *GeolocationError {
	if reason == GeolocationUnsupported {
		return &GeolocationError{Reason: reason, Message: "Geolocation is not supported by your browser."}
	}
	return &GeolocationError{Reason: GeolocationDenied, Message: "Unable to retrieve your location."}
}

// PositionReport is a position (or failure) the browser already resolved
// and posted to the server.
type PositionReport struct {
	Coordinates *models.Coordinates
	Failure     string
}

func (p PositionReport) Locate(ctx context.Context) (models.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return models.Coordinates{}, NewGeolocationError(GeolocationDenied)
	}
	if p.Failure != "" {
		return models.Coordinates{}, NewGeolocationError(p.Failure)
	}
	if p.Coordinates == nil {
		return models.Coordinates{}, NewGeolocationError(GeolocationDenied)
	}
	return *p.Coordinates, nil
}

// StaticLocator answers with fixed, configured coordinates. Without any it
// behaves like a host that has no geolocation support.
type StaticLocator struct {
	Coordinates *models.Coordinates
}

func (s StaticLocator) Locate(context.Context) (models.Coordinates, error) {
	if s.Coordinates == nil {
		return models.Coordinates{}, NewGeolocationError(GeolocationUnsupported)
	}
	return *s.Coordinates, nil
}
