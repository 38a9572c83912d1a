// Package animation maps provider condition codes to the dashboard's
// animated icon identifiers.
package animation

import "github.com/bobby-s-dev/weather-dashboard/internal/models"

type Category string

const (
	Thunderstorm Category = "thunderstorm"
	Drizzle      Category = "drizzle"
	Rain         Category = "rain"
	Snow         Category = "snow"
	Atmosphere   Category = "atmosphere"
	Wind         Category = "wind"
	Clear        Category = "clear"
	Clouds       Category = "clouds"
	Unknown      Category = "unknown"
)

// Keyword refines a category. It is derived from the numeric condition
// code so lookups never depend on the description's language.
type Keyword string

const (
	NoKeyword Keyword = ""
	Scattered Keyword = "scattered"
	Broken    Keyword = "broken"
	Storm     Keyword = "storm"
)

const (
	Sunny        = "sunny"
	Night        = "night"
	PartlyCloudy = "partly-cloudy"
	CloudyNight  = "cloudy-night"
	PartlyShower = "partly-shower"
	RainyNight   = "rainy-night"
	StormRain    = "storm-rain"
	SnowFall     = "snow"
	Windy        = "windy"
)

// Fallback is returned for conditions the table does not cover.
const Fallback = Sunny

type key struct {
	category Category
	night    bool
	keyword  Keyword
}

var table = map[key]string{
	{Clear, false, NoKeyword}: Sunny,
	{Clear, true, NoKeyword}:  Night,

	{Clouds, false, NoKeyword}: PartlyShower,
	{Clouds, false, Scattered}: PartlyCloudy,
	{Clouds, false, Broken}:    PartlyCloudy,
	{Clouds, true, NoKeyword}:  CloudyNight,

	{Rain, false, NoKeyword}: PartlyShower,
	{Rain, false, Storm}:     StormRain,
	{Rain, true, NoKeyword}:  RainyNight,

	{Thunderstorm, false, NoKeyword}: StormRain,
	{Thunderstorm, true, NoKeyword}:  StormRain,

	{Snow, false, NoKeyword}: SnowFall,
	{Snow, true, NoKeyword}:  SnowFall,

	{Drizzle, false, NoKeyword}: PartlyShower,
	{Drizzle, true, NoKeyword}:  PartlyShower,

	{Wind, false, NoKeyword}: Windy,
	{Wind, true, NoKeyword}:  Windy,
}

// Classify derives the category and keyword from an OpenWeatherMap
// condition code (https://openweathermap.org/weather-conditions).
func Classify(code int) (Category, Keyword) {
	switch {
	case code >= 200 && code < 300:
		return Thunderstorm, NoKeyword
	case code >= 300 && code < 400:
		return Drizzle, NoKeyword
	case code >= 502 && code <= 504, code == 522:
		return Rain, Storm
	case code >= 500 && code < 600:
		return Rain, NoKeyword
	case code >= 600 && code < 700:
		return Snow, NoKeyword
	case code == 771 || code == 781:
		return Wind, NoKeyword
	case code >= 700 && code < 800:
		return Atmosphere, NoKeyword
	case code == 800:
		return Clear, NoKeyword
	case code == 802:
		return Clouds, Scattered
	case code == 803:
		return Clouds, Broken
	case code > 800 && code < 900:
		return Clouds, NoKeyword
	}
	return Unknown, NoKeyword
}

// Lookup resolves an animation id. A keyword that has no entry of its own
// falls back to the category's plain entry.
func Lookup(category Category, night bool, keyword Keyword) string {
	if id, ok := table[key{category, night, keyword}]; ok {
		return id
	}
	if id, ok := table[key{category, night, NoKeyword}]; ok {
		return id
	}
	return Fallback
}

// ForCondition is Lookup applied to a provider condition.
func ForCondition(c models.Condition) string {
	category, keyword := Classify(c.Code)
	return Lookup(category, c.IsNight(), keyword)
}
