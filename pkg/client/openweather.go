package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/forecast"
	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"go.uber.org/zap"
)

const (
	DefaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5"

	endpointWeather      = "weather"
	endpointForecast     = "forecast"
	endpointAirPollution = "air_pollution"
)

type OpenWeatherClient struct {
	*BaseClient
	apiKey  string
	baseURL string
	now     func() time.Time
}

// statusCode accepts the provider's "cod" field, which is a number on
// success and frequently a string on failure.
type statusCode int

func (s *statusCode) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*s = 0
		return nil
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("invalid cod %q: %w", data, err)
	}
	*s = statusCode(n)
	return nil
}

type providerStatus struct {
	Cod     statusCode `json:"cod"`
	Message any        `json:"message"`
}

type owmCondition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type OpenWeatherCurrentResponse struct {
	Coord *struct {
		Lon float64 `json:"lon"`
		Lat float64 `json:"lat"`
	} `json:"coord"`
	Weather []owmCondition `json:"weather"`
	Main    struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Pressure  float64 `json:"pressure"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	Rain *struct {
		OneH float64 `json:"1h"`
	} `json:"rain"`
	Snow *struct {
		OneH float64 `json:"1h"`
	} `json:"snow"`
	Dt  int64 `json:"dt"`
	Sys struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Timezone int    `json:"timezone"`
	Name     string `json:"name"`
}

type OpenWeatherForecastResponse struct {
	Cnt  int `json:"cnt"`
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp     float64 `json:"temp"`
			TempMin  float64 `json:"temp_min"`
			TempMax  float64 `json:"temp_max"`
			Humidity float64 `json:"humidity"`
		} `json:"main"`
		Weather []owmCondition `json:"weather"`
		DtTxt   string         `json:"dt_txt"`
	} `json:"list"`
	City struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"city"`
}

type OpenWeatherAirPollutionResponse struct {
	Coord struct {
		Lon float64 `json:"lon"`
		Lat float64 `json:"lat"`
	} `json:"coord"`
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			AQI int `json:"aqi"`
		} `json:"main"`
		Components map[string]float64 `json:"components"`
	} `json:"list"`
}

func NewOpenWeatherClient(apiKey, baseURL string, config ClientConfig, logger *zap.Logger) *OpenWeatherClient {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherURL
	}
	baseClient := NewBaseClient("openweather", config, logger)
	return &OpenWeatherClient{
		BaseClient: baseClient,
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		now:        time.Now,
	}
}

// SetClock replaces the clock used to window hourly samples.
func (c *OpenWeatherClient) SetClock(now func() time.Time) {
	c.now = now
}

func (c *OpenWeatherClient) GetCurrentConditions(ctx context.Context, query models.LocationQuery, units models.Units) (*models.CurrentConditions, error) {
	params, err := locationParams(query, units)
	if err != nil {
		return nil, err
	}

	var response OpenWeatherCurrentResponse
	if err := c.fetch(ctx, endpointWeather, params, &response); err != nil {
		return nil, err
	}

	conditions := &models.CurrentConditions{
		City:        response.Name,
		Country:     response.Sys.Country,
		Temperature: response.Main.Temp,
		FeelsLike:   response.Main.FeelsLike,
		Humidity:    response.Main.Humidity,
		WindSpeed:   response.Wind.Speed,
		Condition:   firstCondition(response.Weather),
		Sunrise:     response.Sys.Sunrise,
		Sunset:      response.Sys.Sunset,
		UTCOffset:   response.Timezone,
		Timestamp:   time.Unix(response.Dt, 0),
	}

	switch {
	case response.Rain != nil:
		conditions.Precipitation = response.Rain.OneH
	case response.Snow != nil:
		conditions.Precipitation = response.Snow.OneH
	}

	if response.Coord != nil {
		conditions.Coord = &models.Coordinates{Lat: response.Coord.Lat, Lon: response.Coord.Lon}
	}

	return conditions, nil
}

func (c *OpenWeatherClient) GetForecastSamples(ctx context.Context, query models.LocationQuery, units models.Units) ([]models.ForecastSample, error) {
	params, err := locationParams(query, units)
	if err != nil {
		return nil, err
	}

	var response OpenWeatherForecastResponse
	if err := c.fetch(ctx, endpointForecast, params, &response); err != nil {
		return nil, err
	}

	samples := make([]models.ForecastSample, 0, len(response.List))
	for _, item := range response.List {
		samples = append(samples, models.ForecastSample{
			Dt:          item.Dt,
			Temperature: item.Main.Temp,
			TempMin:     item.Main.TempMin,
			TempMax:     item.Main.TempMax,
			Humidity:    item.Main.Humidity,
			Condition:   firstCondition(item.Weather),
		})
	}

	return samples, nil
}

// GetHourlyWindow has no endpoint of its own on the free tier; it windows
// the 3-hour forecast feed.
func (c *OpenWeatherClient) GetHourlyWindow(ctx context.Context, query models.LocationQuery, units models.Units) ([]models.ForecastSample, error) {
	samples, err := c.GetForecastSamples(ctx, query, units)
	if err != nil {
		return nil, err
	}
	return forecast.NextHours(samples, c.now()), nil
}

// GetAirQuality returns the latest air quality reading near lat, lon. A
// response with no readings yields nil and no error.
func (c *OpenWeatherClient) GetAirQuality(ctx context.Context, lat, lon float64) (*models.AirQuality, error) {
	if err := models.ByCoordinates(lat, lon).Validate(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("lat", formatCoordinate(lat))
	params.Set("lon", formatCoordinate(lon))

	var response OpenWeatherAirPollutionResponse
	if err := c.fetch(ctx, endpointAirPollution, params, &response); err != nil {
		return nil, err
	}

	if len(response.List) == 0 {
		c.logger.Info("No air quality readings",
			zap.Float64("lat", lat),
			zap.Float64("lon", lon))
		return nil, nil
	}

	entry := response.List[0]
	return &models.AirQuality{
		AQI:        entry.Main.AQI,
		Components: entry.Components,
		Coord:      models.Coordinates{Lat: response.Coord.Lat, Lon: response.Coord.Lon},
		Dt:         entry.Dt,
	}, nil
}

// locationParams validates the query before any request is built, so an
// invalid query never reaches the network.
func locationParams(query models.LocationQuery, units models.Units) (url.Values, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	params := url.Values{}
	if query.Kind() == models.QueryByCoordinates {
		coords := query.Coordinates()
		params.Set("lat", formatCoordinate(coords.Lat))
		params.Set("lon", formatCoordinate(coords.Lon))
	} else {
		params.Set("q", query.Name())
	}
	if units == "" {
		units = models.Metric
	}
	params.Set("units", string(units))
	return params, nil
}

// fetch checks the provider status both from the HTTP status line and from
// the "cod" embedded in the body; a transport-level 200 can still carry a
// provider failure.
func (c *OpenWeatherClient) fetch(ctx context.Context, endpoint string, params url.Values, out any) error {
	params.Set("appid", c.apiKey)
	requestURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())

	resp, err := c.Get(ctx, endpoint, requestURL)
	if err != nil {
		return err
	}

	var status providerStatus
	if err := json.Unmarshal(resp.Body, &status); err != nil {
		if resp.Status < 200 || resp.Status >= 300 {
			return &ProviderError{Endpoint: endpoint, StatusCode: resp.Status, Message: statusMessage(resp.Status, nil)}
		}
		return &TransportError{Endpoint: endpoint, Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	code := int(status.Cod)
	if code == 0 {
		code = resp.Status
	}
	if resp.Status < 200 || resp.Status >= 300 || code != http.StatusOK {
		if code == http.StatusOK {
			code = resp.Status
		}
		return &ProviderError{Endpoint: endpoint, StatusCode: code, Message: statusMessage(code, status.Message)}
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &TransportError{Endpoint: endpoint, Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	return nil
}

func statusMessage(code int, message any) string {
	if s, ok := message.(string); ok && s != "" {
		return s
	}
	if text := http.StatusText(code); text != "" {
		return strings.ToLower(text)
	}
	return fmt.Sprintf("provider error %d", code)
}

func firstCondition(items []owmCondition) models.Condition {
	if len(items) == 0 {
		return models.Condition{}
	}
	return models.Condition{
		Code:        items[0].ID,
		Main:        items[0].Main,
		Description: items[0].Description,
		Icon:        items[0].Icon,
	}
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
