// Package forecast shapes the provider's 3-hour forecast feed into daily
// summaries and a short-range hourly window.
package forecast

import (
	"math"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
)

const (
	// DailyDays is the number of summaries produced after skipping today.
	DailyDays  = 5
	middayHour = 12
)

type bucket struct {
	date    string
	samples []models.ForecastSample
}

// Daily groups samples by calendar date in loc, drops the first bucket
// (today, usually partial) and summarises the next DailyDays buckets.
//
// loc is the viewer's zone, not the forecast city's.
func Daily(samples []models.ForecastSample, loc *time.Location) []models.DailySummary {
	if loc == nil {
		loc = time.Local
	}

	buckets := groupByDate(samples, loc)
	if len(buckets) <= 1 {
		return []models.DailySummary{}
	}

	buckets = buckets[1:]
	if len(buckets) > DailyDays {
		buckets = buckets[:DailyDays]
	}

	out := make([]models.DailySummary, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, summarise(b, loc))
	}
	return out
}

func groupByDate(samples []models.ForecastSample, loc *time.Location) []bucket {
	var buckets []bucket
	index := make(map[string]int)

	for _, s := range samples {
		date := s.Time().In(loc).Format("2006-01-02")
		i, ok := index[date]
		if !ok {
			i = len(buckets)
			index[date] = i
			buckets = append(buckets, bucket{date: date})
		}
		buckets[i].samples = append(buckets[i].samples, s)
	}
	return buckets
}

func summarise(b bucket, loc *time.Location) models.DailySummary {
	minTemp := math.Inf(1)
	maxTemp := math.Inf(-1)
	rep := b.samples[0]
	bestDist := middayDistance(rep, loc)

	for _, s := range b.samples {
		minTemp = math.Min(minTemp, s.TempMin)
		maxTemp = math.Max(maxTemp, s.TempMax)

		// strict less-than keeps the earliest sample on ties
		if d := middayDistance(s, loc); d < bestDist {
			rep = s
			bestDist = d
		}
	}

	return models.DailySummary{
		Date:      b.date,
		Dt:        rep.Dt,
		MinTemp:   minTemp,
		MaxTemp:   maxTemp,
		Condition: rep.Condition,
	}
}

func middayDistance(s models.ForecastSample, loc *time.Location) int {
	d := s.Time().In(loc).Hour() - middayHour
	if d < 0 {
		return -d
	}
	return d
}
