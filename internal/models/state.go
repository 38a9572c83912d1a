package models

import "fmt"

type Units string

const (
	Metric   Units = "metric"
	Imperial Units = "imperial"
)

func ParseUnits(s string) (Units, error) {
	switch Units(s) {
	case Metric, Imperial:
		return Units(s), nil
	}
	return "", fmt.Errorf("unknown unit system %q", s)
}

func (u Units) TemperatureSymbol() string {
	if u == Imperial {
		return "°F"
	}
	return "°C"
}

func (u Units) WindSpeedUnit() string {
	if u == Imperial {
		return "mph"
	}
	return "m/s"
}

type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

func ParseTheme(s string) (Theme, bool) {
	switch Theme(s) {
	case Light, Dark:
		return Theme(s), true
	}
	return "", false
}

func (t Theme) Toggle() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// Favourites is an insertion-ordered set of city names. Matching is exact
// and case-sensitive.
type Favourites struct {
	cities []string
}

func NewFavourites(cities []string) *Favourites {
	f := &Favourites{}
	for _, c := range cities {
		f.Add(c)
	}
	return f
}

func (f *Favourites) Contains(city string) bool {
	for _, c := range f.cities {
		if c == city {
			return true
		}
	}
	return false
}

// Add appends city unless already present. It reports whether the set changed.
func (f *Favourites) Add(city string) bool {
	if f.Contains(city) {
		return false
	}
	f.cities = append(f.cities, city)
	return true
}

// Remove deletes city if present. It reports whether the set changed.
func (f *Favourites) Remove(city string) bool {
	for i, c := range f.cities {
		if c == city {
			f.cities = append(f.cities[:i:i], f.cities[i+1:]...)
			return true
		}
	}
	return false
}

// Toggle adds an absent city or removes a present one and reports whether
// city is a favourite afterwards.
func (f *Favourites) Toggle(city string) bool {
	if f.Remove(city) {
		return false
	}
	f.Add(city)
	return true
}

func (f *Favourites) List() []string {
	out := make([]string, len(f.cities))
	copy(out, f.cities)
	return out
}

func (f *Favourites) Len() int { return len(f.cities) }

// ViewState is the dashboard snapshot handed to the presentation layer.
type ViewState struct {
	City        string             `json:"city"`
	Units       Units              `json:"units"`
	Current     *CurrentConditions `json:"current"`
	Daily       []DailySummary     `json:"daily"`
	Hourly      []ForecastSample   `json:"hourly"`
	AirQuality  *AirQuality        `json:"air_quality"`
	Favourites  []string           `json:"favourites"`
	IsFavourite bool               `json:"is_favourite"`
	Loading     bool               `json:"loading"`
	LastError   string             `json:"last_error,omitempty"`
	Theme       Theme              `json:"theme"`
}

// Clone returns a deep copy safe to hand out while the original keeps changing.
func (v ViewState) Clone() ViewState {
	out := v
	if v.Current != nil {
		cur := *v.Current
		if v.Current.Coord != nil {
			coord := *v.Current.Coord
			cur.Coord = &coord
		}
		out.Current = &cur
	}
	if v.AirQuality != nil {
		aq := *v.AirQuality
		aq.Components = make(map[string]float64, len(v.AirQuality.Components))
		for k, val := range v.AirQuality.Components {
			aq.Components[k] = val
		}
		out.AirQuality = &aq
	}
	out.Daily = append([]DailySummary{}, v.Daily...)
	out.Hourly = append([]ForecastSample{}, v.Hourly...)
	out.Favourites = append([]string{}, v.Favourites...)
	return out
}
