// Package strava is the activity platform client. It implements the activity
// source/sink over the platform REST API with per-user OAuth tokens.
package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	shared "github.com/pacebot/server/pkg"
	"github.com/pacebot/server/pkg/infrastructure/oauth"
	"github.com/pacebot/server/pkg/recipes/actions"
	"github.com/pacebot/server/pkg/types"
)

const baseURL = "https://www.strava.com/api/v3"

// Client implements shared.ActivityService. HTTP clients are built per user
// (the OAuth token source is user-scoped) and cached.
type Client struct {
	db shared.Database

	mu      sync.Mutex
	clients map[string]*http.Client
}

func NewClient(db shared.Database) *Client {
	return &Client{
		db:      db,
		clients: make(map[string]*http.Client),
	}
}

func (c *Client) userClient(userID string) *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hc, ok := c.clients[userID]; ok {
		return hc
	}
	src := oauth.NewFirestoreTokenSource(c.db, userID, "platform")
	hc := oauth.NewClient(src)
	hc.Timeout = 30 * time.Second
	c.clients[userID] = hc
	return hc
}

// apiActivity is the platform's wire representation.
type apiActivity struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	PrivateNote    string  `json:"private_note"`
	SportType      string  `json:"sport_type"`
	WorkoutType    int     `json:"workout_type"`
	Distance       float64 `json:"distance"`             // meters
	MovingTime     int64   `json:"moving_time"`          // seconds
	ElapsedTime    int64   `json:"elapsed_time"`         // seconds
	ElevationGain  float64 `json:"total_elevation_gain"` // meters
	ElevationHigh  float64 `json:"elev_high"`
	AvgSpeed       float64 `json:"average_speed"` // m/s
	MaxSpeed       float64 `json:"max_speed"`     // m/s
	AvgCadence     float64 `json:"average_cadence"`
	Calories       float64 `json:"calories"`
	AvgHeartrate   float64 `json:"average_heartrate"`
	MaxHeartrate   float64 `json:"max_heartrate"`
	AvgWatts       float64 `json:"average_watts"`
	MaxWatts       float64 `json:"max_watts"`
	WeightedWatts  float64 `json:"weighted_average_watts"`
	RelativeEffort float64 `json:"suffer_score"`

	StartDate time.Time `json:"start_date"`
	UtcOffset float64   `json:"utc_offset"` // seconds

	StartLatLng []float64 `json:"start_latlng"`
	EndLatLng   []float64 `json:"end_latlng"`
	Map         struct {
		SummaryPolyline string `json:"summary_polyline"`
	} `json:"map"`

	Gear *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"gear"`
	DeviceName string `json:"device_name"`

	Commute      bool `json:"commute"`
	Trainer      bool `json:"trainer"`
	Flagged      bool `json:"flagged"`
	HideFromHome bool `json:"hide_from_home"`
}

func (a *apiActivity) toActivity() *types.Activity {
	act := &types.Activity{
		ID:             a.ID,
		Name:           a.Name,
		Description:    a.Description,
		PrivateNote:    a.PrivateNote,
		Type:           types.ActivityType(a.SportType),
		WorkoutType:    a.WorkoutType,
		Device:         a.DeviceName,
		Distance:       a.Distance / 1000, // km
		ElevationGain:  a.ElevationGain,
		ElevationMax:   a.ElevationHigh,
		SpeedAvg:       a.AvgSpeed * 3.6, // km/h
		SpeedMax:       a.MaxSpeed * 3.6,
		CadenceAvg:     a.AvgCadence,
		Calories:       a.Calories,
		HrAvg:          a.AvgHeartrate,
		HrMax:          a.MaxHeartrate,
		WattsAvg:       a.AvgWatts,
		WattsMax:       a.MaxWatts,
		WattsWeighted:  a.WeightedWatts,
		RelativeEffort: a.RelativeEffort,
		TotalTime:      a.ElapsedTime,
		MovingTime:     a.MovingTime,
		StartDate:      a.StartDate,
		EndDate:        a.StartDate.Add(time.Duration(a.ElapsedTime) * time.Second),
		UtcStartOffset: int(a.UtcOffset / 60), // minutes
		Polyline:       a.Map.SummaryPolyline,
		Commute:        a.Commute,
		Trainer:        a.Trainer,
		Flagged:        a.Flagged,
		HideHome:       a.HideFromHome,
	}
	if len(a.StartLatLng) == 2 {
		act.LocationStart = a.StartLatLng
	}
	if len(a.EndLatLng) == 2 {
		act.LocationEnd = a.EndLatLng
	}
	if a.AvgSpeed > 0 {
		act.PaceAvg = 3600 / (a.AvgSpeed * 3.6) // seconds per km
	}
	if a.MaxSpeed > 0 {
		act.PaceMax = 3600 / (a.MaxSpeed * 3.6)
	}
	if a.Gear != nil {
		gearType := types.GearBike
		if act.Type.Category() == types.CategoryRun {
			gearType = types.GearShoe
		}
		act.Gear = &types.Gear{ID: a.Gear.ID, Name: a.Gear.Name, Type: gearType}
	}
	return act
}

func (c *Client) Fetch(ctx context.Context, user *types.UserProfile, activityID int64) (*types.Activity, error) {
	var a apiActivity
	url := fmt.Sprintf("%s/activities/%d?include_all_efforts=false", baseURL, activityID)
	if err := c.getJSON(ctx, user.ID, url, &a); err != nil {
		return nil, fmt.Errorf("fetch activity %d: %w", activityID, err)
	}
	return a.toActivity(), nil
}

// updatableFields maps our recorded field names to the platform's update
// payload keys. Fields the platform won't accept on update are left out and
// silently dropped.
var updatableFields = map[string]string{
	actions.FieldName:        "name",
	actions.FieldDescription: "description",
	actions.FieldPrivateNote: "private_note",
	actions.FieldCommute:     "commute",
	actions.FieldTrainer:     "trainer",
	actions.FieldHideHome:    "hide_from_home",
	actions.FieldGear:        "gear_id",
	actions.FieldSportType:   "sport_type",
	actions.FieldWorkoutType: "workout_type",
}

// Update persists exactly the fields listed in activity.UpdatedFields.
func (c *Client) Update(ctx context.Context, user *types.UserProfile, act *types.Activity) error {
	payload := make(map[string]interface{})
	for _, field := range act.UpdatedFields {
		key, ok := updatableFields[field]
		if !ok {
			continue
		}
		switch field {
		case actions.FieldName:
			payload[key] = act.Name
		case actions.FieldDescription:
			payload[key] = act.Description
		case actions.FieldPrivateNote:
			payload[key] = act.PrivateNote
		case actions.FieldCommute:
			payload[key] = act.Commute
		case actions.FieldTrainer:
			payload[key] = act.Trainer
		case actions.FieldHideHome:
			payload[key] = act.HideHome
		case actions.FieldGear:
			if act.Gear != nil {
				payload[key] = act.Gear.ID
			} else {
				payload[key] = "none"
			}
		case actions.FieldSportType:
			payload[key] = string(act.Type)
		case actions.FieldWorkoutType:
			payload[key] = act.WorkoutType
		}
	}
	if len(payload) == 0 {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal update payload: %w", err)
	}
	url := fmt.Sprintf("%s/activities/%d", baseURL, act.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.userClient(user.ID).Do(req)
	if err != nil {
		return fmt.Errorf("update activity %d: %w", act.ID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("update activity %d: API error %d: %s", act.ID, resp.StatusCode, string(bodyBytes))
	}
	return nil
}

func (c *Client) List(ctx context.Context, user *types.UserProfile, q shared.ActivityQuery) ([]*types.Activity, error) {
	params := url.Values{}
	params.Set("per_page", "100")
	if !q.After.IsZero() {
		params.Set("after", fmt.Sprintf("%d", q.After.Unix()))
	}
	if !q.Before.IsZero() {
		params.Set("before", fmt.Sprintf("%d", q.Before.Unix()))
	}

	var list []apiActivity
	endpoint := baseURL + "/athlete/activities?" + params.Encode()
	if err := c.getJSON(ctx, user.ID, endpoint, &list); err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}

	out := make([]*types.Activity, 0, len(list))
	for i := range list {
		act := list[i].toActivity()
		if q.Type != "" && act.Type != q.Type {
			continue
		}
		out = append(out, act)
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, userID, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.userClient(userID).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("API error %d: %s", resp.StatusCode, string(bodyBytes))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
