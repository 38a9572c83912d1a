package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Server struct {
		Port         string
		ReadTimeout  time.Duration
		WriteTimeout time.Duration
		LogLevel     string
		CORSOrigins  string
	}

	WeatherAPI struct {
		OpenWeatherAPIKey string
		OpenWeatherURL    string
		Timeout           time.Duration
	}

	Suggestions struct {
		GeoDBAPIKey string
		GeoDBURL    string
		GeoDBHost   string
		Timeout     time.Duration
	}

	RateLimit struct {
		RequestsPerSecond float64
		Burst             int
	}

	CircuitBreaker struct {
		Threshold int
		Timeout   time.Duration
	}

	Dashboard DashboardConfig

	Storage struct {
		Driver   string
		FilePath string
		DSN      string
	}

	Scheduler struct {
		RefreshInterval time.Duration
	}
}

// DashboardConfig holds the controller's startup defaults.
type DashboardConfig struct {
	DefaultCity     string
	Units           models.Units
	Location        *time.Location
	PipelineTimeout time.Duration
	ThemeFallback   models.Theme

	// DefaultCoordinates backs "use my location" when the caller does not
	// report a position. Nil means geolocation is unsupported.
	DefaultCoordinates *models.Coordinates
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		zap.L().Info("No .env file found, using environment variables")
	}

	cfg := &Config{}

	// Server configuration
	cfg.Server.Port = getEnv("FIBER_PORT", "8080")
	cfg.Server.ReadTimeout = parseDuration(getEnv("FIBER_READ_TIMEOUT", "10s"))
	cfg.Server.WriteTimeout = parseDuration(getEnv("FIBER_WRITE_TIMEOUT", "45s"))
	cfg.Server.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.Server.CORSOrigins = getEnv("CORS_ORIGINS", "*")

	// Weather API configuration
	cfg.WeatherAPI.OpenWeatherAPIKey = getEnv("OPENWEATHER_API_KEY", "")
	cfg.WeatherAPI.OpenWeatherURL = getEnv("OPENWEATHER_URL", "https://api.openweathermap.org/data/2.5")
	cfg.WeatherAPI.Timeout = parseDuration(getEnv("OPENWEATHER_TIMEOUT", "10s"))

	// City suggestions
	cfg.Suggestions.GeoDBAPIKey = getEnv("GEODB_API_KEY", "")
	cfg.Suggestions.GeoDBURL = getEnv("GEODB_URL", "https://wft-geo-db.p.rapidapi.com/v1")
	cfg.Suggestions.GeoDBHost = getEnv("GEODB_HOST", "wft-geo-db.p.rapidapi.com")
	cfg.Suggestions.Timeout = parseDuration(getEnv("GEODB_TIMEOUT", "5s"))

	// Rate limiting of provider calls; 0 disables it
	cfg.RateLimit.RequestsPerSecond = parseFloat(getEnv("PROVIDER_RATE_LIMIT", "5"))
	cfg.RateLimit.Burst = parseInt(getEnv("PROVIDER_RATE_BURST", "4"))

	// Circuit breaker configuration
	cfg.CircuitBreaker.Threshold = parseInt(getEnv("CIRCUIT_BREAKER_THRESHOLD", "3"))
	cfg.CircuitBreaker.Timeout = parseDuration(getEnv("CIRCUIT_BREAKER_TIMEOUT", "30s"))

	// Dashboard defaults
	cfg.Dashboard.DefaultCity = getEnv("DEFAULT_CITY", "Allahabad")
	cfg.Dashboard.PipelineTimeout = parseDuration(getEnv("PIPELINE_TIMEOUT", "30s"))

	units, err := models.ParseUnits(getEnv("DEFAULT_UNITS", string(models.Metric)))
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_UNITS: %w", err)
	}
	cfg.Dashboard.Units = units

	theme, ok := models.ParseTheme(getEnv("SYSTEM_THEME", string(models.Light)))
	if !ok {
		return nil, fmt.Errorf("SYSTEM_THEME must be light or dark")
	}
	cfg.Dashboard.ThemeFallback = theme

	location, err := time.LoadLocation(getEnv("CLIENT_TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("CLIENT_TIMEZONE: %w", err)
	}
	cfg.Dashboard.Location = location

	if lat, lon := os.Getenv("DEFAULT_LAT"), os.Getenv("DEFAULT_LON"); lat != "" && lon != "" {
		coords := &models.Coordinates{Lat: parseFloat(lat), Lon: parseFloat(lon)}
		if err := models.ByCoordinates(coords.Lat, coords.Lon).Validate(); err != nil {
			return nil, fmt.Errorf("DEFAULT_LAT/DEFAULT_LON: %w", err)
		}
		cfg.Dashboard.DefaultCoordinates = coords
	}

	// Preference storage
	cfg.Storage.Driver = getEnv("STORAGE_DRIVER", "file")
	cfg.Storage.FilePath = getEnv("STORAGE_FILE", "data/preferences.json")
	cfg.Storage.DSN = getEnv("DATABASE_URL", "")
	switch cfg.Storage.Driver {
	case "file", "memory":
	case "postgres":
		if cfg.Storage.DSN == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres storage driver")
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.Storage.Driver)
	}

	// Scheduler configuration; 0 disables periodic refresh
	cfg.Scheduler.RefreshInterval = parseDuration(getEnv("REFRESH_INTERVAL", "15m"))

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(value string) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil {
		zap.L().Warn("Failed to parse duration", zap.String("value", value), zap.Error(err))
		return 0
	}
	return duration
}

func parseInt(value string) int {
	intValue, err := strconv.Atoi(value)
	if err != nil {
		zap.L().Warn("Failed to parse int", zap.String("value", value), zap.Error(err))
		return 0
	}
	return intValue
}

func parseFloat(value string) float64 {
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		zap.L().Warn("Failed to parse float", zap.String("value", value), zap.Error(err))
		return 0
	}
	return floatValue
}
