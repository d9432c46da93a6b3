// Package weather implements the weather collaborator on the Open-Meteo
// archive API. A failed lookup returns nil without error: the engine treats
// nil as "no weather available".
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/pacebot/server/pkg/types"
)

const baseURL = "https://archive-api.open-meteo.com/v1/archive"

type Provider struct {
	client *http.Client
}

func New() *Provider {
	return &Provider{
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// openMeteoResponse represents the API response structure
type openMeteoResponse struct {
	Hourly struct {
		Time          []string  `json:"time"`
		Temperature   []float64 `json:"temperature_2m"`
		WeatherCode   []int     `json:"weathercode"`
		WindSpeed     []float64 `json:"windspeed_10m"`
		Humidity      []float64 `json:"relativehumidity_2m"`
		Precipitation []float64 `json:"precipitation"`
	} `json:"hourly"`
}

// GetSummary resolves the observation closest to the given instant.
func (p *Provider) GetSummary(ctx context.Context, coordinates []float64, at time.Time) (*types.WeatherSummary, error) {
	if len(coordinates) != 2 {
		return nil, nil
	}
	dateStr := at.Format("2006-01-02")
	url := fmt.Sprintf(
		"%s?latitude=%.6f&longitude=%.6f&start_date=%s&end_date=%s&hourly=temperature_2m,weathercode,windspeed_10m,relativehumidity_2m,precipitation",
		baseURL, coordinates[0], coordinates[1], dateStr, dateStr,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather API request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather API returned status %d", resp.StatusCode)
	}

	var data openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		slog.Warn("Failed to decode weather response", "error", err)
		return nil, nil
	}

	idx := findClosestHourIndex(data.Hourly.Time, at)
	if idx == -1 || idx >= len(data.Hourly.Temperature) {
		slog.Debug("No weather observation for instant", "at", at)
		return nil, nil
	}

	summary := &types.WeatherSummary{
		Temperature: data.Hourly.Temperature[idx],
		AQI:         types.WeatherMissing, // archive API has no air quality
	}
	if idx < len(data.Hourly.WeatherCode) {
		summary.Summary = mapWeatherCode(data.Hourly.WeatherCode[idx])
	}
	if idx < len(data.Hourly.WindSpeed) {
		summary.WindSpeed = data.Hourly.WindSpeed[idx]
	}
	if idx < len(data.Hourly.Humidity) {
		summary.Humidity = data.Hourly.Humidity[idx]
	}
	if idx < len(data.Hourly.Precipitation) {
		summary.Precipitation = data.Hourly.Precipitation[idx]
	}
	return summary, nil
}

// findClosestHourIndex finds the index of the hour closest to the target time
func findClosestHourIndex(times []string, target time.Time) int {
	if len(times) == 0 {
		return -1
	}

	minDiff := time.Duration(math.MaxInt64)
	closestIdx := -1

	for i, timeStr := range times {
		t, err := time.Parse("2006-01-02T15:04", timeStr)
		if err != nil {
			continue
		}

		diff := target.Sub(t)
		if diff < 0 {
			diff = -diff
		}

		if diff < minDiff {
			minDiff = diff
			closestIdx = i
		}
	}

	return closestIdx
}

// mapWeatherCode maps WMO weather codes to human-readable descriptions
func mapWeatherCode(code int) string {
	switch {
	case code == 0:
		return "Clear"
	case code >= 1 && code <= 3:
		return "Partly Cloudy"
	case code >= 45 && code <= 48:
		return "Fog"
	case code >= 51 && code <= 67:
		return "Rain"
	case code >= 71 && code <= 77:
		return "Snow"
	case code >= 95 && code <= 99:
		return "Thunderstorm"
	default:
		return "Unknown"
	}
}
