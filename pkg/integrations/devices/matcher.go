// Package devices matches a platform activity against recordings from a
// paired secondary device (Garmin or Wahoo). The match is by start-time
// proximity; devices rarely agree on the exact second the recording started.
package devices

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	shared "github.com/pacebot/server/pkg"
	"github.com/pacebot/server/pkg/infrastructure/oauth"
	"github.com/pacebot/server/pkg/types"
)

const (
	garminBaseURL = "https://apis.garmin.com/wellness-api/rest"
	wahooBaseURL  = "https://api.wahooligan.com/v1"

	// matchTolerance is the maximum start-time gap accepted as "the same
	// activity".
	matchTolerance = 5 * time.Minute

	// searchPadding widens the listing window so a device that started
	// recording slightly early still shows up.
	searchPadding = 10 * time.Minute
)

// Matcher implements shared.DeviceMatcher over the Garmin and Wahoo APIs.
type Matcher struct {
	db shared.Database

	mu      sync.Mutex
	clients map[string]*http.Client
}

func NewMatcher(db shared.Database) *Matcher {
	return &Matcher{
		db:      db,
		clients: make(map[string]*http.Client),
	}
}

func (m *Matcher) userClient(userID, provider string) *http.Client {
	key := userID + ":" + provider
	m.mu.Lock()
	defer m.mu.Unlock()
	if client, ok := m.clients[key]; ok {
		return client
	}
	source := oauth.NewFirestoreTokenSource(m.db, userID, provider)
	client := oauth.NewClient(source)
	client.Timeout = 15 * time.Second
	m.clients[key] = client
	return client
}

// FindMatching lists the source device's activities around the platform
// activity's window and returns the one whose start time is closest, within
// tolerance. Returns nil with no error when nothing matches.
func (m *Matcher) FindMatching(ctx context.Context, user *types.UserProfile, activity *types.Activity, sourceName string) (*types.Activity, error) {
	if !user.HasIntegration(sourceName) {
		return nil, nil
	}

	var (
		candidates []*types.Activity
		err        error
	)
	client := m.userClient(user.ID, sourceName)
	from := activity.StartDate.Add(-searchPadding)
	to := activity.EndDate.Add(searchPadding)

	switch sourceName {
	case "garmin":
		candidates, err = m.listGarmin(ctx, client, from, to)
	case "wahoo":
		candidates, err = m.listWahoo(ctx, client, from, to)
	default:
		return nil, fmt.Errorf("unknown device source %q", sourceName)
	}
	if err != nil {
		return nil, err
	}
	return closestMatch(activity, candidates), nil
}

func closestMatch(activity *types.Activity, candidates []*types.Activity) *types.Activity {
	var best *types.Activity
	bestGap := matchTolerance + 1
	for _, c := range candidates {
		gap := c.StartDate.Sub(activity.StartDate)
		if gap < 0 {
			gap = -gap
		}
		if gap <= matchTolerance && gap < bestGap {
			best, bestGap = c, gap
		}
	}
	return best
}

type garminActivity struct {
	SummaryID            string  `json:"summaryId"`
	ActivityType         string  `json:"activityType"`
	StartTimeInSeconds   int64   `json:"startTimeInSeconds"`
	DurationInSeconds    int64   `json:"durationInSeconds"`
	DistanceInMeters     float64 `json:"distanceInMeters"`
	AverageHeartRate     float64 `json:"averageHeartRateInBeatsPerMinute"`
	MaxHeartRate         float64 `json:"maxHeartRateInBeatsPerMinute"`
	ActiveKilocalories   float64 `json:"activeKilocalories"`
	TotalElevationGain   float64 `json:"totalElevationGainInMeters"`
	AverageBikeCadence   float64 `json:"averageBikeCadenceInRoundsPerMinute"`
	AveragePowerInWatts  float64 `json:"averagePowerInWatts"`
	DeviceName           string  `json:"deviceName"`
	AverageSpeedInMeters float64 `json:"averageSpeedInMetersPerSecond"`
}

func (m *Matcher) listGarmin(ctx context.Context, client *http.Client, from, to time.Time) ([]*types.Activity, error) {
	url := fmt.Sprintf("%s/activities?uploadStartTimeInSeconds=%d&uploadEndTimeInSeconds=%d",
		garminBaseURL, from.Unix(), to.Unix())
	var items []garminActivity
	if err := getJSON(ctx, client, url, &items); err != nil {
		return nil, fmt.Errorf("garmin activity listing failed: %w", err)
	}

	var out []*types.Activity
	for _, item := range items {
		start := time.Unix(item.StartTimeInSeconds, 0).UTC()
		act := &types.Activity{
			Name:          item.ActivityType,
			Device:        item.DeviceName,
			StartDate:     start,
			EndDate:       start.Add(time.Duration(item.DurationInSeconds) * time.Second),
			TotalTime:     item.DurationInSeconds,
			Distance:      item.DistanceInMeters / 1000,
			SpeedAvg:      item.AverageSpeedInMeters * 3.6,
			HrAvg:         item.AverageHeartRate,
			HrMax:         item.MaxHeartRate,
			Calories:      item.ActiveKilocalories,
			ElevationGain: item.TotalElevationGain,
			CadenceAvg:    item.AverageBikeCadence,
			WattsAvg:      item.AveragePowerInWatts,
		}
		out = append(out, act)
	}
	return out, nil
}

type wahooWorkout struct {
	ID             int64                `json:"id"`
	Name           string               `json:"name"`
	Starts         string               `json:"starts"` // RFC 3339
	Minutes        int64                `json:"minutes"`
	WorkoutSummary *wahooWorkoutSummary `json:"workout_summary"`
}

type wahooWorkoutSummary struct {
	DistanceAccum float64 `json:"distance_accum,string"`
	HeartRateAvg  float64 `json:"heart_rate_avg,string"`
	CaloriesAccum float64 `json:"calories_accum,string"`
	PowerAvg      float64 `json:"power_avg,string"`
	CadenceAvg    float64 `json:"cadence_avg,string"`
	AscentAccum   float64 `json:"ascent_accum,string"`
	SpeedAvg      float64 `json:"speed_avg,string"`
}

func (m *Matcher) listWahoo(ctx context.Context, client *http.Client, from, to time.Time) ([]*types.Activity, error) {
	url := fmt.Sprintf("%s/workouts?created_after=%s&created_before=%s",
		wahooBaseURL, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	var data struct {
		Workouts []wahooWorkout `json:"workouts"`
	}
	if err := getJSON(ctx, client, url, &data); err != nil {
		return nil, fmt.Errorf("wahoo workout listing failed: %w", err)
	}

	var out []*types.Activity
	for _, w := range data.Workouts {
		start, err := time.Parse(time.RFC3339, w.Starts)
		if err != nil {
			continue
		}
		act := &types.Activity{
			ID:        w.ID,
			Name:      w.Name,
			StartDate: start.UTC(),
			EndDate:   start.UTC().Add(time.Duration(w.Minutes) * time.Minute),
			TotalTime: w.Minutes * 60,
		}
		if s := w.WorkoutSummary; s != nil {
			act.Distance = s.DistanceAccum / 1000
			act.HrAvg = s.HeartRateAvg
			act.Calories = s.CaloriesAccum
			act.WattsAvg = s.PowerAvg
			act.CadenceAvg = s.CadenceAvg
			act.ElevationGain = s.AscentAccum
			act.SpeedAvg = s.SpeedAvg * 3.6
		}
		out = append(out, act)
	}
	return out, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
