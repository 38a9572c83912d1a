package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/pkg/metrics"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type BaseClient struct {
	name           string
	client         HTTPClient
	logger         *zap.Logger
	circuitBreaker *gobreaker.CircuitBreaker
	limiter        *rate.Limiter
	metrics        *metrics.Collector
}

type ClientConfig struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	Threshold         int
	BreakerTimeout    time.Duration
	Metrics           *metrics.Collector
	HTTPClient        HTTPClient
}

type Response struct {
	Status int
	Body   []byte
}

func NewBaseClient(name string, config ClientConfig, logger *zap.Logger) *BaseClient {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: config.Timeout,
		}
	}

	threshold := uint32(3)
	if config.Threshold > 0 {
		threshold = uint32(config.Threshold)
	}

	// Circuit breaker settings
	breakerSettings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				zap.String("client", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}
	burst := config.Burst
	if burst <= 0 {
		burst = 1
	}

	return &BaseClient{
		name:           name,
		client:         httpClient,
		logger:         logger,
		circuitBreaker: gobreaker.NewCircuitBreaker(breakerSettings),
		limiter:        rate.NewLimiter(limit, burst),
		metrics:        config.Metrics,
	}
}

// Get issues a single GET. Any HTTP response, whatever its status, is
// returned to the caller for classification; only failures to obtain a
// response count against the circuit breaker. There are no retries.
func (c *BaseClient) Get(ctx context.Context, endpoint, url string) (*Response, error) {
	start := time.Now()

	if err := c.limiter.Wait(ctx); err != nil {
		c.metrics.RecordProviderRequest(endpoint, "rate_limited", time.Since(start))
		return nil, &TransportError{Endpoint: endpoint, Err: fmt.Errorf("rate limit wait canceled: %w", err)}
	}

	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return c.do(ctx, url)
	})
	if err != nil {
		c.logger.Warn("Provider request failed",
			zap.String("client", c.name),
			zap.String("endpoint", endpoint),
			zap.Error(err))
		c.metrics.RecordProviderRequest(endpoint, "transport_error", time.Since(start))
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}

	resp, ok := result.(*Response)
	if !ok {
		return nil, &TransportError{Endpoint: endpoint, Err: fmt.Errorf("unexpected result type from circuit breaker")}
	}

	outcome := "ok"
	if resp.Status < 200 || resp.Status >= 300 {
		outcome = "provider_error"
	}
	c.metrics.RecordProviderRequest(endpoint, outcome, time.Since(start))

	c.logger.Debug("Provider request completed",
		zap.String("client", c.name),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.Status),
		zap.Int("body_size", len(resp.Body)),
		zap.Duration("duration", time.Since(start)))

	return resp, nil
}

func (c *BaseClient) do(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request failed: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body failed: %w", err)
	}

	return &Response{Status: resp.StatusCode, Body: body}, nil
}
