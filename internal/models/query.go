package models

import (
	"fmt"
	"math"
	"strings"
)

type QueryKind int

const (
	QueryByName QueryKind = iota
	QueryByCoordinates
)

// LocationQuery selects a place either by free-text city name or by a
// coordinate pair. Exactly one form is active.
type LocationQuery struct {
	kind   QueryKind
	name   string
	coords Coordinates
}

func ByName(name string) LocationQuery {
	return LocationQuery{kind: QueryByName, name: name}
}

func ByCoordinates(lat, lon float64) LocationQuery {
	return LocationQuery{kind: QueryByCoordinates, coords: Coordinates{Lat: lat, Lon: lon}}
}

func (q LocationQuery) Kind() QueryKind { return q.kind }

func (q LocationQuery) Name() string { return q.name }

func (q LocationQuery) Coordinates() Coordinates { return q.coords }

func (q LocationQuery) String() string {
	if q.kind == QueryByCoordinates {
		return fmt.Sprintf("%.4f,%.4f", q.coords.Lat, q.coords.Lon)
	}
	return q.name
}

// InvalidQueryError marks a location query that cannot be sent to the provider.
type InvalidQueryError struct {
	Reason string
}

func (e *InvalidQueryError) Error() string {
	return e.Reason
}

// Validate checks the active form of the query.
func (q LocationQuery) Validate() error {
	switch q.kind {
	case QueryByName:
		if strings.TrimSpace(q.name) == "" {
			return &InvalidQueryError{Reason: "Please enter a city name."}
		}
	case QueryByCoordinates:
		lat, lon := q.coords.Lat, q.coords.Lon
		if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
			return &InvalidQueryError{Reason: "Coordinates must be numeric."}
		}
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return &InvalidQueryError{Reason: "Coordinates are out of range."}
		}
	default:
		return &InvalidQueryError{Reason: "Unknown location query."}
	}
	return nil
}
