package models

import (
	"strings"
	"time"
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Condition is the primary weather condition reported by the provider.
type Condition struct {
	Code        int    `json:"code"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// IsNight reports whether the provider icon is the night variant ("01n").
func (c Condition) IsNight() bool {
	return strings.HasSuffix(c.Icon, "n")
}

type CurrentConditions struct {
	City          string       `json:"city"`
	Country       string       `json:"country"`
	Temperature   float64      `json:"temperature"`
	FeelsLike     float64      `json:"feels_like"`
	Humidity      float64      `json:"humidity"`
	WindSpeed     float64      `json:"wind_speed"`
	Precipitation float64      `json:"precipitation"`
	Condition     Condition    `json:"condition"`
	Animation     string       `json:"animation"`
	Sunrise       int64        `json:"sunrise"`
	Sunset        int64        `json:"sunset"`
	UTCOffset     int          `json:"utc_offset"`
	Coord         *Coordinates `json:"coord,omitempty"`
	Timestamp     time.Time    `json:"timestamp"`
}

// SunriseLocal returns sunrise shifted into the city's own UTC offset.
func (c *CurrentConditions) SunriseLocal() time.Time {
	return time.Unix(c.Sunrise, 0).In(time.FixedZone("", c.UTCOffset))
}

// SunsetLocal returns sunset shifted into the city's own UTC offset.
func (c *CurrentConditions) SunsetLocal() time.Time {
	return time.Unix(c.Sunset, 0).In(time.FixedZone("", c.UTCOffset))
}

type ForecastSample struct {
	Dt          int64     `json:"dt"`
	Temperature float64   `json:"temperature"`
	TempMin     float64   `json:"temp_min"`
	TempMax     float64   `json:"temp_max"`
	Humidity    float64   `json:"humidity"`
	Condition   Condition `json:"condition"`
}

func (s ForecastSample) Time() time.Time {
	return time.Unix(s.Dt, 0)
}

type DailySummary struct {
	Date      string    `json:"date"`
	Dt        int64     `json:"dt"`
	MinTemp   float64   `json:"min_temp"`
	MaxTemp   float64   `json:"max_temp"`
	Condition Condition `json:"condition"`
}

type AirQuality struct {
	AQI        int                `json:"aqi"`
	Components map[string]float64 `json:"components"`
	Coord      Coordinates        `json:"coord"`
	Dt         int64              `json:"dt"`
}

var aqiCategories = map[int]string{
	1: "Good",
	2: "Fair",
	3: "Moderate",
	4: "Poor",
	5: "Very Poor",
}

// Category returns the provider's label for the AQI index.
func (a *AirQuality) Category() string {
	if label, ok := aqiCategories[a.AQI]; ok {
		return label
	}
	return "Unknown"
}
