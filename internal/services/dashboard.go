package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/animation"
	"github.com/bobby-s-dev/weather-dashboard/internal/config"
	"github.com/bobby-s-dev/weather-dashboard/internal/forecast"
	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"github.com/bobby-s-dev/weather-dashboard/internal/storage"
	"github.com/bobby-s-dev/weather-dashboard/pkg/client"
	"github.com/bobby-s-dev/weather-dashboard/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WeatherClient is the provider surface the dashboard pipeline consumes.
type WeatherClient interface {
	GetCurrentConditions(ctx context.Context, query models.LocationQuery, units models.Units) (*models.CurrentConditions, error)
	GetForecastSamples(ctx context.Context, query models.LocationQuery, units models.Units) ([]models.ForecastSample, error)
	GetHourlyWindow(ctx context.Context, query models.LocationQuery, units models.Units) ([]models.ForecastSample, error)
	GetAirQuality(ctx context.Context, lat, lon float64) (*models.AirQuality, error)
}

const (
	EntrySearchName        = "search_name"
	EntrySearchCoordinates = "search_coordinates"
	EntryChangeUnits       = "change_units"
	EntryRefresh           = "refresh"
	EntryScheduled         = "scheduled"
)

const subscriberBuffer = 1

// Dashboard owns the single canonical ViewState. Every mutation goes through
// one of its operations; readers get deep copies.
type Dashboard struct {
	client   WeatherClient
	prefs    *storage.Preferences
	metrics  *metrics.Collector
	logger   *zap.Logger
	location *time.Location
	timeout  time.Duration

	mu          sync.Mutex
	seq         uint64
	state       models.ViewState
	favourites  *models.Favourites
	subscribers map[uint64]chan models.ViewState
	nextSubID   uint64
}

type pipelineResult struct {
	current *models.CurrentConditions
	daily   []models.DailySummary
	hourly  []models.ForecastSample
	air     *models.AirQuality
}

// NewDashboard loads persisted favourites and theme and seeds the state with
// the configured default city. It does not fetch; call Refresh for that.
func NewDashboard(ctx context.Context, cfg config.DashboardConfig, weather WeatherClient, prefs *storage.Preferences, collector *metrics.Collector, logger *zap.Logger) *Dashboard {
	location := cfg.Location
	if location == nil {
		location = time.Local
	}
	units := cfg.Units
	if units == "" {
		units = models.Metric
	}

	favourites := models.NewFavourites(prefs.LoadFavourites(ctx))
	theme := prefs.LoadTheme(ctx, cfg.ThemeFallback)

	logger.Info("Dashboard initialized",
		zap.String("city", cfg.DefaultCity),
		zap.String("units", string(units)),
		zap.String("theme", string(theme)),
		zap.Int("favourites", favourites.Len()),
		zap.String("timezone", location.String()))

	return &Dashboard{
		client:   weather,
		prefs:    prefs,
		metrics:  collector,
		logger:   logger,
		location: location,
		timeout:  cfg.PipelineTimeout,
		state: models.ViewState{
			City:   cfg.DefaultCity,
			Units:  units,
			Daily:  []models.DailySummary{},
			Hourly: []models.ForecastSample{},
			Theme:  theme,
		},
		favourites:  favourites,
		subscribers: make(map[uint64]chan models.ViewState),
	}
}

func (d *Dashboard) SearchByName(ctx context.Context, name string) models.ViewState {
	d.mu.Lock()
	units := d.state.Units
	d.mu.Unlock()

	d.run(ctx, EntrySearchName, models.ByName(name), units)
	return d.State()
}

func (d *Dashboard) SearchByCoordinates(ctx context.Context, lat, lon float64) models.ViewState {
	d.mu.Lock()
	units := d.state.Units
	d.mu.Unlock()

	d.run(ctx, EntrySearchCoordinates, models.ByCoordinates(lat, lon), units)
	return d.State()
}

// ChangeUnits switches the unit system and re-fetches the current city, since
// the provider bakes units into every numeric field.
func (d *Dashboard) ChangeUnits(ctx context.Context, units models.Units) models.ViewState {
	d.mu.Lock()
	d.state.Units = units
	city := d.state.City
	d.publishLocked()
	d.mu.Unlock()

	d.run(ctx, EntryChangeUnits, models.ByName(city), units)
	return d.State()
}

// Refresh re-runs the pipeline for the current city and units.
func (d *Dashboard) Refresh(ctx context.Context) models.ViewState {
	d.mu.Lock()
	city, units := d.state.City, d.state.Units
	d.mu.Unlock()

	d.run(ctx, EntryRefresh, models.ByName(city), units)
	return d.State()
}

// RefreshIfIdle is Refresh for background callers. It does nothing while a
// pipeline is in flight, since starting one would discard the pending result.
// The boolean reports whether a refresh ran.
func (d *Dashboard) RefreshIfIdle(ctx context.Context) (models.ViewState, bool) {
	d.mu.Lock()
	if d.state.Loading {
		snap, pending := d.snapshotLocked(), d.seq
		d.mu.Unlock()
		d.logger.Info("Skipping refresh, pipeline in flight", zap.Uint64("seq", pending))
		return snap, false
	}
	query, units := models.ByName(d.state.City), d.state.Units
	seq := d.beginLocked()
	d.mu.Unlock()

	d.settle(ctx, seq, EntryScheduled, query, units)
	return d.State(), true
}

// UseMyLocation asks locator for a position and searches by it. A locator
// failure only sets the error message; displayed weather is left alone.
func (d *Dashboard) UseMyLocation(ctx context.Context, locator Geolocator) models.ViewState {
	coords, err := locator.Locate(ctx)
	if err != nil {
		d.logger.Warn("Geolocation failed", zap.Error(err))

		d.mu.Lock()
		d.state.LastError = userMessage(err)
		d.publishLocked()
		d.mu.Unlock()
		return d.State()
	}
	return d.SearchByCoordinates(ctx, coords.Lat, coords.Lon)
}

// ToggleFavourite adds or removes city, defaulting to the current city when
// city is blank, and persists the whole list before returning.
func (d *Dashboard) ToggleFavourite(ctx context.Context, city string) models.ViewState {
	d.mu.Lock()
	defer d.mu.Unlock()

	if strings.TrimSpace(city) == "" {
		city = d.state.City
	}
	if strings.TrimSpace(city) == "" {
		return d.snapshotLocked()
	}

	added := d.favourites.Toggle(city)
	if err := d.prefs.SaveFavourites(ctx, d.favourites.List()); err != nil {
		d.logger.Error("Failed to persist favourites",
			zap.String("city", city),
			zap.Error(err))
	}

	d.logger.Info("Favourite toggled",
		zap.String("city", city),
		zap.Bool("favourite", added))

	d.publishLocked()
	return d.snapshotLocked()
}

func (d *Dashboard) ToggleTheme(ctx context.Context) models.ViewState {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.state.Theme = d.state.Theme.Toggle()
	if err := d.prefs.SaveTheme(ctx, d.state.Theme); err != nil {
		d.logger.Error("Failed to persist theme",
			zap.String("theme", string(d.state.Theme)),
			zap.Error(err))
	}

	d.publishLocked()
	return d.snapshotLocked()
}

// State returns a deep copy of the current view state.
func (d *Dashboard) State() models.ViewState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

// Subscribe returns a channel that receives a snapshot after every state
// change. Slow readers only ever see the newest snapshot. The returned
// function unsubscribes and closes the channel.
func (d *Dashboard) Subscribe() (<-chan models.ViewState, func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextSubID
	d.nextSubID++
	ch := make(chan models.ViewState, subscriberBuffer)
	d.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			delete(d.subscribers, id)
			close(ch)
		})
	}
}

// run executes one pipeline invocation. Only the most recently started
// invocation may commit; anything older is dropped when it settles.
func (d *Dashboard) run(ctx context.Context, entry string, query models.LocationQuery, units models.Units) {
	d.mu.Lock()
	seq := d.beginLocked()
	d.mu.Unlock()

	d.settle(ctx, seq, entry, query, units)
}

// beginLocked claims the next sequence number and marks the state loading.
func (d *Dashboard) beginLocked() uint64 {
	d.seq++
	d.state.Loading = true
	d.publishLocked()
	return d.seq
}

// settle fetches and commits the result only if seq is still the latest.
func (d *Dashboard) settle(ctx context.Context, seq uint64, entry string, query models.LocationQuery, units models.Units) {
	logger := d.logger.With(
		zap.String("trace_id", uuid.NewString()),
		zap.String("entry", entry),
		zap.Stringer("query", query),
		zap.Uint64("seq", seq))

	start := time.Now()
	result, err := d.fetch(ctx, query, units)
	elapsed := time.Since(start)

	d.mu.Lock()
	defer d.mu.Unlock()

	if seq != d.seq {
		logger.Info("Discarding stale pipeline result",
			zap.Uint64("latest_seq", d.seq),
			zap.Duration("duration", elapsed))
		d.metrics.RecordStaleResult()
		d.metrics.RecordPipeline(entry, "stale", elapsed)
		return
	}

	d.state.Loading = false

	if err != nil {
		d.clearWeatherLocked()
		d.state.LastError = userMessage(err)

		var invalid *models.InvalidQueryError
		if query.Kind() == models.QueryByName && !errors.As(err, &invalid) {
			d.state.City = query.Name()
		}

		logger.Warn("Weather pipeline failed",
			zap.String("message", d.state.LastError),
			zap.Duration("duration", elapsed),
			zap.Error(err))
		d.metrics.RecordPipeline(entry, outcome(err), elapsed)
		d.publishLocked()
		return
	}

	d.state.City = result.current.City
	d.state.Current = result.current
	d.state.Daily = result.daily
	d.state.Hourly = result.hourly
	d.state.AirQuality = result.air
	d.state.LastError = ""

	logger.Info("Weather pipeline completed",
		zap.String("city", result.current.City),
		zap.Int("daily", len(result.daily)),
		zap.Int("hourly", len(result.hourly)),
		zap.Bool("air_quality", result.air != nil),
		zap.Duration("duration", elapsed))
	d.metrics.RecordPipeline(entry, "success", elapsed)
	d.publishLocked()
}

// fetch runs the dependent steps strictly in order: conditions, forecast,
// hourly window, then air quality when the provider resolved coordinates.
func (d *Dashboard) fetch(ctx context.Context, query models.LocationQuery, units models.Units) (*pipelineResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	current, err := d.client.GetCurrentConditions(ctx, query, units)
	if err != nil {
		return nil, err
	}

	resolved := query
	if current.Coord != nil {
		resolved = models.ByCoordinates(current.Coord.Lat, current.Coord.Lon)
	}

	samples, err := d.client.GetForecastSamples(ctx, resolved, units)
	if err != nil {
		return nil, err
	}

	hourly, err := d.client.GetHourlyWindow(ctx, resolved, units)
	if err != nil {
		return nil, err
	}

	var air *models.AirQuality
	if current.Coord != nil {
		air, err = d.client.GetAirQuality(ctx, current.Coord.Lat, current.Coord.Lon)
		if err != nil {
			return nil, err
		}
	}

	current.Animation = animation.ForCondition(current.Condition)

	if hourly == nil {
		hourly = []models.ForecastSample{}
	}

	return &pipelineResult{
		current: current,
		daily:   forecast.Daily(samples, d.location),
		hourly:  hourly,
		air:     air,
	}, nil
}

func (d *Dashboard) clearWeatherLocked() {
	d.state.Current = nil
	d.state.Daily = []models.DailySummary{}
	d.state.Hourly = []models.ForecastSample{}
	d.state.AirQuality = nil
}

func (d *Dashboard) snapshotLocked() models.ViewState {
	snap := d.state.Clone()
	snap.Favourites = d.favourites.List()
	snap.IsFavourite = d.state.City != "" && d.favourites.Contains(d.state.City)
	return snap
}

func (d *Dashboard) publishLocked() {
	if len(d.subscribers) == 0 {
		return
	}
	snap := d.snapshotLocked()
	for _, ch := range d.subscribers {
		select {
		case ch <- snap:
		default:
			// replace the unread snapshot with the newer one
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// userMessage converts a pipeline or geolocation error into the single
// user-facing message stored in the view state.
func userMessage(err error) string {
	var (
		invalid  *models.InvalidQueryError
		provider *client.ProviderError
		geo      *GeolocationError
	)
	switch {
	case errors.As(err, &invalid):
		return invalid.Reason
	case errors.As(err, &provider):
		return provider.Message
	case errors.As(err, &geo):
		return geo.Message
	}
	return client.TransportMessage
}

func outcome(err error) string {
	var invalid *models.InvalidQueryError
	switch {
	case errors.As(err, &invalid):
		return "invalid_query"
	case client.IsProviderError(err):
		return "provider_error"
	}
	return "transport_error"
}
