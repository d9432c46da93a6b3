package types

import "time"

// WeatherMissing is the sentinel a provider reports for a metric it could not
// resolve. Approximate comparisons must skip it to avoid false matches.
const WeatherMissing = -9999

// WeatherSummary is one point-in-time weather observation.
type WeatherSummary struct {
	Temperature   float64 `json:"temperature"`
	WindSpeed     float64 `json:"windSpeed"`
	Humidity      float64 `json:"humidity"`
	Precipitation float64 `json:"precipitation"`
	AQI           float64 `json:"aqi,omitempty"`
	Summary       string  `json:"summary,omitempty"`
}

// Metric returns the named sub-property value, or WeatherMissing.
func (w *WeatherSummary) Metric(name string) float64 {
	if w == nil {
		return WeatherMissing
	}
	switch name {
	case "temperature":
		return w.Temperature
	case "windSpeed":
		return w.WindSpeed
	case "humidity":
		return w.Humidity
	case "precipitation":
		return w.Precipitation
	case "aqi":
		return w.AQI
	}
	return WeatherMissing
}

// Track is one played music track, ordered by play time.
type Track struct {
	Title    string    `json:"title"`
	Artist   string    `json:"artist,omitempty"`
	PlayedAt time.Time `json:"playedAt,omitempty"`
	Lyrics   string    `json:"lyrics,omitempty"`
}
