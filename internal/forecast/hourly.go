package forecast

import (
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
)

// HourlyWindow is the maximum number of samples in the short-range chart.
const HourlyWindow = 8

// NextHours returns the first HourlyWindow samples strictly after now, in
// input order. The result is truncated, never padded.
func NextHours(samples []models.ForecastSample, now time.Time) []models.ForecastSample {
	out := make([]models.ForecastSample, 0, HourlyWindow)
	cutoff := now.Unix()

	for _, s := range samples {
		if len(out) == HourlyWindow {
			break
		}
		if s.Dt > cutoff {
			out = append(out, s)
		}
	}
	return out
}
