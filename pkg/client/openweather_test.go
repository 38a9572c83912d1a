package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"go.uber.org/zap"
)

const testAPIKey = "test-key"

const currentBody = `{
	"coord": {"lon": 81.85, "lat": 25.45},
	"weather": [{"id": 802, "main": "Clouds", "description": "scattered clouds", "icon": "03d"}],
	"main": {"temp": 31.2, "feels_like": 33.0, "temp_min": 30.0, "temp_max": 32.0, "pressure": 1006, "humidity": 48},
	"wind": {"speed": 3.6, "deg": 270},
	"rain": {"1h": 0.4},
	"dt": 1718000000,
	"sys": {"country": "IN", "sunrise": 1717975000, "sunset": 1718024000},
	"timezone": 19800,
	"name": "Allahabad",
	"cod": 200
}`

func forecastBody(start int64, n int) string {
	items := make([]string, 0, n)
	for i := 0; i < n; i++ {
		dt := start + int64(i)*3*3600
		items = append(items, fmt.Sprintf(
			`{"dt": %d, "main": {"temp": %d, "temp_min": %d, "temp_max": %d, "humidity": 50},
			  "weather": [{"id": 800, "main": "Clear", "description": "clear sky", "icon": "01d"}]}`,
			dt, 20+i, 19+i, 21+i))
	}
	return fmt.Sprintf(`{"cod": "200", "message": 0, "cnt": %d, "list": [%s], "city": {"name": "Allahabad", "country": "IN"}}`,
		n, strings.Join(items, ","))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*OpenWeatherClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewOpenWeatherClient(testAPIKey, srv.URL, ClientConfig{
		Timeout:        5 * time.Second,
		Threshold:      3,
		BreakerTimeout: time.Minute,
	}, zap.NewNop())
	return c, srv
}

func TestGetCurrentConditionsByName(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/weather" {
			t.Errorf("path = %s, want /weather", r.URL.Path)
		}
		q := r.URL.Query()
		if got := q.Get("q"); got != "Allahabad" {
			t.Errorf("q = %q, want Allahabad", got)
		}
		if got := q.Get("units"); got != "imperial" {
			t.Errorf("units = %q, want imperial", got)
		}
		if got := q.Get("appid"); got != testAPIKey {
			t.Errorf("appid = %q, want %q", got, testAPIKey)
		}
		fmt.Fprint(w, currentBody)
	})

	got, err := c.GetCurrentConditions(context.Background(), models.ByName("Allahabad"), models.Imperial)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.City != "Allahabad" || got.Country != "IN" {
		t.Errorf("place = %s/%s, want Allahabad/IN", got.City, got.Country)
	}
	if got.Temperature != 31.2 || got.Humidity != 48 || got.WindSpeed != 3.6 {
		t.Errorf("unexpected readings: %+v", got)
	}
	if got.Precipitation != 0.4 {
		t.Errorf("precipitation = %v, want 0.4", got.Precipitation)
	}
	if got.Condition.Code != 802 || got.Condition.Icon != "03d" {
		t.Errorf("condition = %+v", got.Condition)
	}
	if got.UTCOffset != 19800 || got.Sunrise != 1717975000 {
		t.Errorf("sun times = %d/%d", got.Sunrise, got.UTCOffset)
	}
	if got.Coord == nil || got.Coord.Lat != 25.45 || got.Coord.Lon != 81.85 {
		t.Errorf("coord = %+v", got.Coord)
	}
}

func TestGetCurrentConditionsByCoordinates(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Has("q") {
			t.Error("coordinate query must not send q")
		}
		if q.Get("lat") != "25.45" || q.Get("lon") != "81.85" {
			t.Errorf("lat/lon = %s/%s", q.Get("lat"), q.Get("lon"))
		}
		if q.Get("units") != "metric" {
			t.Errorf("units = %q, want metric", q.Get("units"))
		}
		fmt.Fprint(w, currentBody)
	})

	if _, err := c.GetCurrentConditions(context.Background(), models.ByCoordinates(25.45, 81.85), models.Metric); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestProviderErrorFromBody(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{
			name:    "not found with string cod",
			status:  http.StatusNotFound,
			body:    `{"cod": "404", "message": "city not found"}`,
			wantMsg: "city not found",
		},
		{
			name:    "embedded failure behind 200",
			status:  http.StatusOK,
			body:    `{"cod": 401, "message": "Invalid API key"}`,
			wantMsg: "Invalid API key",
		},
		{
			name:    "non JSON error page",
			status:  http.StatusTooManyRequests,
			body:    `<html>slow down</html>`,
			wantMsg: "too many requests",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})

			_, err := c.GetCurrentConditions(context.Background(), models.ByName("Atlantis"), models.Metric)
			var pe *ProviderError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ProviderError, got %T (%v)", err, err)
			}
			if pe.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", pe.Message, tt.wantMsg)
			}
		})
	}
}

func TestTransportErrorOnUnreachableProvider(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := c.GetCurrentConditions(context.Background(), models.ByName("Paris"), models.Metric)
	if !IsTransportError(err) {
		t.Fatalf("expected TransportError, got %T (%v)", err, err)
	}
	if IsProviderError(err) {
		t.Error("transport failure must not be reported as a provider error")
	}
}

func TestTransportErrorOnMalformedBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"cod": 200, "main": `)
	})

	_, err := c.GetCurrentConditions(context.Background(), models.ByName("Paris"), models.Metric)
	if !IsTransportError(err) {
		t.Fatalf("expected TransportError, got %T (%v)", err, err)
	}
}

func TestInvalidQueryIssuesNoRequest(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	_, err := c.GetCurrentConditions(context.Background(), models.ByName(" "), models.Metric)
	var invalid *models.InvalidQueryError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidQueryError, got %T (%v)", err, err)
	}
	if _, err := c.GetForecastSamples(context.Background(), models.ByCoordinates(200, 0), models.Metric); err == nil {
		t.Fatal("expected error for out-of-range coordinates")
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Errorf("provider was called %d times", calls)
	}
}

func TestGetForecastSamples(t *testing.T) {
	start := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC).Unix()
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forecast" {
			t.Errorf("path = %s, want /forecast", r.URL.Path)
		}
		fmt.Fprint(w, forecastBody(start, 40))
	})

	samples, err := c.GetForecastSamples(context.Background(), models.ByName("Allahabad"), models.Metric)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(samples) != 40 {
		t.Fatalf("len(samples) = %d, want 40", len(samples))
	}
	if samples[1].Dt != start+3*3600 || samples[1].TempMin != 20 || samples[1].TempMax != 22 {
		t.Errorf("sample[1] = %+v", samples[1])
	}
	if samples[0].Condition.Main != "Clear" {
		t.Errorf("condition = %+v", samples[0].Condition)
	}
}

func TestGetHourlyWindowUsesClock(t *testing.T) {
	start := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, forecastBody(start.Unix(), 40))
	})
	c.SetClock(func() time.Time { return start.Add(35*3*time.Hour - time.Minute) })

	window, err := c.GetHourlyWindow(context.Background(), models.ByName("Allahabad"), models.Metric)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(window) != 5 {
		t.Fatalf("len(window) = %d, want 5", len(window))
	}
}

func TestGetAirQuality(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/air_pollution" {
			t.Errorf("path = %s, want /air_pollution", r.URL.Path)
		}
		if r.URL.Query().Has("units") {
			t.Error("air quality request must not send units")
		}
		fmt.Fprint(w, `{"coord": {"lon": 81.85, "lat": 25.45},
			"list": [{"dt": 1718000000, "main": {"aqi": 4},
			"components": {"co": 400.5, "pm2_5": 61.2, "pm10": 90.1}}]}`)
	})

	aq, err := c.GetAirQuality(context.Background(), 25.45, 81.85)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if aq.AQI != 4 || aq.Category() != "Poor" {
		t.Errorf("aqi = %d (%s), want 4 (Poor)", aq.AQI, aq.Category())
	}
	if aq.Components["pm2_5"] != 61.2 {
		t.Errorf("pm2_5 = %v", aq.Components["pm2_5"])
	}
	if aq.Coord.Lat != 25.45 {
		t.Errorf("coord = %+v", aq.Coord)
	}
}

func TestGetAirQualityEmptyList(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"coord": {"lon": 81.85, "lat": 25.45}, "list": []}`)
	})

	aq, err := c.GetAirQuality(context.Background(), 25.45, 81.85)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if aq != nil {
		t.Errorf("aq = %+v, want nil", aq)
	}
}

func TestCircuitBreakerOpensOnTransportFailures(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	for i := 0; i < 3; i++ {
		_, _ = c.GetCurrentConditions(context.Background(), models.ByName("Paris"), models.Metric)
	}

	_, err := c.GetCurrentConditions(context.Background(), models.ByName("Paris"), models.Metric)
	if !IsTransportError(err) {
		t.Fatalf("expected TransportError, got %T (%v)", err, err)
	}
	if !strings.Contains(err.Error(), "circuit breaker is open") {
		t.Errorf("expected open circuit, got %v", err)
	}
}

func TestProviderErrorsDoNotTripBreaker(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"cod": "404", "message": "city not found"}`)
	})

	for i := 0; i < 5; i++ {
		_, err := c.GetCurrentConditions(context.Background(), models.ByName("Atlantis"), models.Metric)
		if !IsProviderError(err) {
			t.Fatalf("attempt %d: expected ProviderError, got %T (%v)", i, err, err)
		}
	}
}
