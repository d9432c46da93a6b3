// Package spotify lists tracks played during an activity window using the
// Spotify Web API recently-played endpoint.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	shared "github.com/pacebot/server/pkg"
	"github.com/pacebot/server/pkg/infrastructure/oauth"
	"github.com/pacebot/server/pkg/types"
)

const (
	baseURL   = "https://api.spotify.com/v1"
	lyricsURL = "https://api.lyrics.ovh/v1"

	// Spotify caps recently-played at 50 items per request.
	maxTracks = 50
)

type Client struct {
	db shared.Database

	mu      sync.Mutex
	clients map[string]*http.Client

	lyricsClient *http.Client
}

func NewClient(db shared.Database) *Client {
	return &Client{
		db:           db,
		clients:      make(map[string]*http.Client),
		lyricsClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) userClient(userID string) *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if client, ok := c.clients[userID]; ok {
		return client
	}
	source := oauth.NewFirestoreTokenSource(c.db, userID, "spotify")
	client := oauth.NewClient(source)
	client.Timeout = 15 * time.Second
	c.clients[userID] = client
	return client
}

type recentlyPlayedResponse struct {
	Items []struct {
		PlayedAt time.Time `json:"played_at"`
		Track    struct {
			Name    string `json:"name"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
		} `json:"track"`
	} `json:"items"`
}

// GetTracksForWindow returns tracks whose play time falls inside the
// activity's start/end window, oldest first.
func (c *Client) GetTracksForWindow(ctx context.Context, user *types.UserProfile, activity *types.Activity) ([]*types.Track, error) {
	if !user.HasIntegration("spotify") {
		return nil, nil
	}

	// The endpoint paginates backwards from "before", so anchor at the
	// activity end and filter the window client-side.
	query := url.Values{}
	query.Set("limit", fmt.Sprintf("%d", maxTracks))
	query.Set("before", fmt.Sprintf("%d", activity.EndDate.UnixMilli()))
	reqURL := fmt.Sprintf("%s/me/player/recently-played?%s", baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.userClient(user.ID).Do(req)
	if err != nil {
		return nil, fmt.Errorf("spotify recently-played failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("spotify recently-played returned status %d", resp.StatusCode)
	}

	var data recentlyPlayedResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode spotify response: %w", err)
	}

	var tracks []*types.Track
	for _, item := range data.Items {
		if item.PlayedAt.Before(activity.StartDate) || item.PlayedAt.After(activity.EndDate) {
			continue
		}
		track := &types.Track{
			Title:    item.Track.Name,
			PlayedAt: item.PlayedAt,
		}
		var artists []string
		for _, a := range item.Track.Artists {
			artists = append(artists, a.Name)
		}
		track.Artist = strings.Join(artists, ", ")
		tracks = append(tracks, track)
	}

	// Items come newest first; callers want play order.
	for i, j := 0, len(tracks)-1; i < j; i, j = i+1, j-1 {
		tracks[i], tracks[j] = tracks[j], tracks[i]
	}
	return tracks, nil
}

// GetLyrics fetches lyrics from a keyless public API. Missing lyrics are not
// an error.
func (c *Client) GetLyrics(ctx context.Context, track *types.Track) (string, error) {
	if track == nil || track.Title == "" {
		return "", nil
	}
	artist := track.Artist
	if i := strings.Index(artist, ","); i >= 0 {
		artist = artist[:i]
	}
	reqURL := fmt.Sprintf("%s/%s/%s", lyricsURL, url.PathEscape(artist), url.PathEscape(track.Title))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.lyricsClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("lyrics request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", nil
	}

	var data struct {
		Lyrics string `json:"lyrics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", nil
	}
	return strings.TrimSpace(data.Lyrics), nil
}
