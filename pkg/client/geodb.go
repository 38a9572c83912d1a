package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	DefaultGeoDBURL  = "https://wft-geo-db.p.rapidapi.com/v1"
	DefaultGeoDBHost = "wft-geo-db.p.rapidapi.com"

	suggestionLimit = 5
)

// GeoDBClient looks up city name suggestions for the search box.
type GeoDBClient struct {
	client *resty.Client
	logger *zap.Logger
}

type geoDBCitiesResponse struct {
	Data []struct {
		City        string  `json:"city"`
		Name        string  `json:"name"`
		Country     string  `json:"country"`
		CountryCode string  `json:"countryCode"`
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
	} `json:"data"`
}

func NewGeoDBClient(baseURL, host, apiKey string, timeout time.Duration, logger *zap.Logger) *GeoDBClient {
	if baseURL == "" {
		baseURL = DefaultGeoDBURL
	}
	if host == "" {
		host = DefaultGeoDBHost
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("X-RapidAPI-Key", apiKey).
		SetHeader("X-RapidAPI-Host", host).
		SetTimeout(timeout)

	return &GeoDBClient{
		client: client,
		logger: logger,
	}
}

// Suggest returns up to five city names starting with prefix. Lookup
// failures yield an empty list; suggestions are best effort.
func (g *GeoDBClient) Suggest(ctx context.Context, prefix string) []string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return []string{}
	}

	cities, err := g.lookup(ctx, prefix)
	if err != nil {
		g.logger.Warn("City suggestion lookup failed",
			zap.String("prefix", prefix),
			zap.Error(err))
		return []string{}
	}
	return cities
}

func (g *GeoDBClient) lookup(ctx context.Context, prefix string) ([]string, error) {
	var result geoDBCitiesResponse

	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParam("namePrefix", prefix).
		SetQueryParam("limit", fmt.Sprint(suggestionLimit)).
		SetResult(&result).
		Get("/geo/cities")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("geodb returned HTTP %d", resp.StatusCode())
	}

	cities := make([]string, 0, len(result.Data))
	seen := make(map[string]bool)
	for _, item := range result.Data {
		name := item.City
		if name == "" {
			name = item.Name
		}
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		cities = append(cities, name)
	}
	return cities, nil
}
