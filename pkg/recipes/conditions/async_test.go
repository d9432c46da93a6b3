package conditions

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	shared "github.com/pacebot/server/pkg"
	"github.com/pacebot/server/pkg/testing/mocks"
	"github.com/pacebot/server/pkg/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func proUser(integrations ...string) *types.UserProfile {
	u := &types.UserProfile{ID: "u1", IsPro: true}
	for _, name := range integrations {
		ref := &types.IntegrationRef{Enabled: true}
		switch name {
		case "garmin":
			u.Integration.Garmin = ref
		case "wahoo":
			u.Integration.Wahoo = ref
		case "spotify":
			u.Integration.Spotify = ref
		}
	}
	return u
}

func TestCheckWeather(t *testing.T) {
	ctx := context.Background()
	logger := discardLogger()
	act := &types.Activity{
		LocationStart: []float64{51.5, -0.14},
		StartDate:     time.Date(2025, 6, 14, 8, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC),
	}

	t.Run("matches either instant", func(t *testing.T) {
		calls := 0
		e := New(&mocks.MockWeatherProvider{
			GetSummaryFunc: func(ctx context.Context, coords []float64, at time.Time) (*types.WeatherSummary, error) {
				calls++
				// Cold at the start, warm at the end.
				if calls == 1 {
					return &types.WeatherSummary{Temperature: 5}, nil
				}
				return &types.WeatherSummary{Temperature: 21}, nil
			},
		}, nil, nil, nil)

		got, err := e.Check(ctx, logger, proUser(), act, cond("weather.temperature", types.OpGreaterThan, "20"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got {
			t.Error("warm end instant should satisfy the greater-than condition")
		}
	})

	t.Run("not-equal requires both instants to differ", func(t *testing.T) {
		e := New(&mocks.MockWeatherProvider{
			GetSummaryFunc: func(ctx context.Context, coords []float64, at time.Time) (*types.WeatherSummary, error) {
				return &types.WeatherSummary{Temperature: 20}, nil
			},
		}, nil, nil, nil)

		got, _ := e.Check(ctx, logger, proUser(), act, cond("weather.temperature", types.OpNotEqual, "20"))
		if got {
			t.Error("matching temperature at both instants should fail the not-equal condition")
		}
	})

	t.Run("notlike requires both instants outside the band", func(t *testing.T) {
		e := New(&mocks.MockWeatherProvider{
			GetSummaryFunc: func(ctx context.Context, coords []float64, at time.Time) (*types.WeatherSummary, error) {
				return &types.WeatherSummary{Temperature: 18}, nil
			},
		}, nil, nil, nil)

		got, err := e.Check(ctx, logger, proUser(), act, cond("weather.temperature", types.OpNotLike, "10"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got {
			t.Error("18 is outside the fuzzy band around 10, notlike should hold")
		}

		got, _ = e.Check(ctx, logger, proUser(), act, cond("weather.temperature", types.OpNotLike, "18"))
		if got {
			t.Error("a fuzzy match at either instant should fail the notlike condition")
		}
	})

	t.Run("no provider defaults by operator", func(t *testing.T) {
		e := New(nil, nil, nil, nil)
		got, _ := e.Check(ctx, logger, proUser(), act, cond("weather.temperature", types.OpNotEqual, "20"))
		if !got {
			t.Error("not-equal should default true without a provider")
		}
		got, _ = e.Check(ctx, logger, proUser(), act, cond("weather.temperature", types.OpEqual, "20"))
		if got {
			t.Error("equal should default false without a provider")
		}
	})

	t.Run("indoor activity defaults by operator", func(t *testing.T) {
		e := New(&mocks.MockWeatherProvider{}, nil, nil, nil)
		indoor := &types.Activity{StartDate: act.StartDate}
		got, _ := e.Check(ctx, logger, proUser(), indoor, cond("weather.temperature", types.OpLessThan, "0"))
		if got {
			t.Error("activity without GPS should never match a weather threshold")
		}
	})
}

func TestCheckDevice(t *testing.T) {
	ctx := context.Background()
	logger := discardLogger()
	act := &types.Activity{
		ID:        42,
		StartDate: time.Date(2025, 6, 14, 8, 0, 0, 0, time.UTC),
		HrAvg:     140,
	}

	t.Run("existence match", func(t *testing.T) {
		e := New(nil, &mocks.MockDeviceMatcher{
			FindMatchingFunc: func(ctx context.Context, u *types.UserProfile, a *types.Activity, source string) (*types.Activity, error) {
				return &types.Activity{HrAvg: 145}, nil
			},
		}, nil, nil)

		got, err := e.Check(ctx, logger, proUser("garmin"), act, cond("garmin", types.OpEqual, ""))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got {
			t.Error("matched device activity should satisfy the existence condition")
		}
	})

	t.Run("namespaced sub-property uses the matched activity", func(t *testing.T) {
		e := New(nil, &mocks.MockDeviceMatcher{
			FindMatchingFunc: func(ctx context.Context, u *types.UserProfile, a *types.Activity, source string) (*types.Activity, error) {
				return &types.Activity{HrAvg: 145}, nil
			},
		}, nil, nil)

		got, _ := e.Check(ctx, logger, proUser("garmin"), act, cond("garmin.hrAvg", types.OpGreaterThan, "140"))
		if !got {
			t.Error("device hrAvg 145 should be greater than 140")
		}
	})

	t.Run("free tier defaults by operator", func(t *testing.T) {
		free := proUser("garmin")
		free.IsPro = false
		e := New(nil, &mocks.MockDeviceMatcher{}, nil, nil)

		got, _ := e.Check(ctx, logger, free, act, cond("garmin", types.OpNotEqual, ""))
		if !got {
			t.Error("not-equal should default true for free tier")
		}
		got, _ = e.Check(ctx, logger, free, act, cond("garmin", types.OpEqual, ""))
		if got {
			t.Error("equal should default false for free tier")
		}
	})

	t.Run("retries once when the device signature suggests the source", func(t *testing.T) {
		calls := 0
		e := New(nil, &mocks.MockDeviceMatcher{
			FindMatchingFunc: func(ctx context.Context, u *types.UserProfile, a *types.Activity, source string) (*types.Activity, error) {
				calls++
				if calls == 1 {
					return nil, nil
				}
				return &types.Activity{}, nil
			},
		}, nil, nil)
		e.RematchDelay = time.Millisecond

		tagged := &types.Activity{Device: "Garmin Edge 840", StartDate: act.StartDate}
		got, _ := e.Check(ctx, logger, proUser("garmin"), tagged, cond("garmin", types.OpEqual, ""))
		if !got {
			t.Error("second lookup should have matched")
		}
		if calls != 2 {
			t.Errorf("expected exactly 2 lookups, got %d", calls)
		}
	})

	t.Run("lookup error defaults by operator", func(t *testing.T) {
		e := New(nil, &mocks.MockDeviceMatcher{
			FindMatchingFunc: func(ctx context.Context, u *types.UserProfile, a *types.Activity, source string) (*types.Activity, error) {
				return nil, fmt.Errorf("upstream down")
			},
		}, nil, nil)

		got, _ := e.Check(ctx, logger, proUser("wahoo"), act, cond("wahoo", types.OpNotEqual, ""))
		if !got {
			t.Error("not-equal should default true on lookup failure")
		}
	})
}

func TestCheckSpotify(t *testing.T) {
	ctx := context.Background()
	logger := discardLogger()
	act := &types.Activity{StartDate: time.Now(), EndDate: time.Now().Add(time.Hour)}

	tracks := []*types.Track{
		{Title: "Eye of the Tiger"},
		{Title: "Thunderstruck"},
	}
	e := New(nil, nil, &mocks.MockMusicService{
		GetTracksForWindowFunc: func(ctx context.Context, u *types.UserProfile, a *types.Activity) ([]*types.Track, error) {
			return tracks, nil
		},
	}, nil)

	user := proUser("spotify")

	got, _ := e.Check(ctx, logger, user, act, cond("spotify", types.OpLike, "tiger"))
	if !got {
		t.Error("substring should match a played track title")
	}
	got, _ = e.Check(ctx, logger, user, act, cond("spotify", types.OpEqual, "thunderstruck"))
	if !got {
		t.Error("exact title should match case-insensitively")
	}
	got, _ = e.Check(ctx, logger, user, act, cond("spotify", types.OpNotLike, "disco"))
	if !got {
		t.Error("notlike should pass when no title contains the value")
	}

	t.Run("no integration defaults by operator", func(t *testing.T) {
		got, _ := e.Check(ctx, logger, proUser(), act, cond("spotify", types.OpEqual, "tiger"))
		if got {
			t.Error("equal should default false without the integration")
		}
	})
}

func TestCheckFirstOfDay(t *testing.T) {
	ctx := context.Background()
	logger := discardLogger()

	t.Run("earlier last activity means first", func(t *testing.T) {
		user := proUser()
		user.LastActivityDate = time.Date(2025, 6, 13, 18, 0, 0, 0, time.UTC)
		act := &types.Activity{ID: 1, StartDate: time.Date(2025, 6, 14, 8, 0, 0, 0, time.UTC)}

		e := New(nil, nil, nil, &mocks.MockActivityService{})
		got, err := e.Check(ctx, logger, user, act, cond("firstOfDay", types.OpEqual, ""))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got {
			t.Error("activity after yesterday's last should be first of day")
		}
	})

	t.Run("same-day conflict falls back to a listing query", func(t *testing.T) {
		user := proUser()
		user.LastActivityDate = time.Date(2025, 6, 14, 7, 0, 0, 0, time.UTC)
		act := &types.Activity{ID: 2, StartDate: time.Date(2025, 6, 14, 8, 0, 0, 0, time.UTC)}

		e := New(nil, nil, nil, &mocks.MockActivityService{
			ListFunc: func(ctx context.Context, u *types.UserProfile, q shared.ActivityQuery) ([]*types.Activity, error) {
				return []*types.Activity{
					{ID: 9, StartDate: time.Date(2025, 6, 14, 7, 0, 0, 0, time.UTC)},
					act,
				}, nil
			},
		})
		got, _ := e.Check(ctx, logger, user, act, cond("firstOfDay", types.OpEqual, ""))
		if got {
			t.Error("an earlier same-day activity should make this one not first")
		}

		gotNeg, _ := e.Check(ctx, logger, user, act, cond("firstOfDay", types.OpNotEqual, ""))
		if !gotNeg {
			t.Error("not-equal should invert the verdict")
		}
	})
}
