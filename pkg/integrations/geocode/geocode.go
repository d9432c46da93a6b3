// Package geocode resolves coordinates to city names. The primary provider is
// Nominatim; the secondary (used as a PRO-tier fallback) is LocationIQ, which
// needs an API key but tolerates heavier traffic.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Geocoder struct {
	client       *http.Client
	secondaryKey string
}

func New(secondaryKey string) *Geocoder {
	return &Geocoder{
		client:       &http.Client{Timeout: 10 * time.Second},
		secondaryKey: secondaryKey,
	}
}

// nominatimResponse represents the reverse geocode response; LocationIQ uses
// the same address shape.
type nominatimResponse struct {
	Address struct {
		Suburb  string `json:"suburb"`
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		County  string `json:"county"`
	} `json:"address"`
}

// ReverseGeocode returns the best city-level name for the coordinates.
// providerHint "" selects the primary provider, "secondary" the fallback.
func (g *Geocoder) ReverseGeocode(ctx context.Context, coordinates []float64, providerHint string) (string, error) {
	if len(coordinates) != 2 {
		return "", fmt.Errorf("need [lat, lng] coordinates")
	}

	var url string
	if providerHint == "secondary" {
		if g.secondaryKey == "" {
			return "", fmt.Errorf("secondary geocoder not configured")
		}
		url = fmt.Sprintf("https://eu1.locationiq.com/v1/reverse?key=%s&lat=%.6f&lon=%.6f&format=json&zoom=16",
			g.secondaryKey, coordinates[0], coordinates[1])
	} else {
		url = fmt.Sprintf("https://nominatim.openstreetmap.org/reverse?lat=%.6f&lon=%.6f&format=json&zoom=16",
			coordinates[0], coordinates[1])
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Pacebot/1.0")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse geocode request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reverse geocode returned status %d", resp.StatusCode)
	}

	var data nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("decode reverse geocode response: %w", err)
	}
	return cityName(data), nil
}

// cityName prefers city, then town, village, suburb, county.
func cityName(data nominatimResponse) string {
	addr := data.Address
	for _, candidate := range []string{addr.City, addr.Town, addr.Village, addr.Suburb, addr.County} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}
