package actions

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pacebot/server/pkg/testing/mocks"
	"github.com/pacebot/server/pkg/types"
)

func TestResolveTemplateActivityFields(t *testing.T) {
	p := &Processor{}
	act := &types.Activity{
		Name:     "Sunday Long Run",
		Distance: 21.1,
		HrAvg:    152,
	}

	got := p.ResolveTemplate(context.Background(), discardLogger(), testUser(), act, &types.Recipe{}, "${distance} at ${hrAvg}")
	if got != "21.1 km at 152 bpm" {
		t.Errorf("got %q", got)
	}
}

func TestResolveTemplateUnknownTagBecomesEmpty(t *testing.T) {
	p := &Processor{}
	got := p.ResolveTemplate(context.Background(), discardLogger(), testUser(), &types.Activity{}, &types.Recipe{}, "x${noSuchTag}y")
	if got != "xy" {
		t.Errorf("unresolved tag must become empty, got %q", got)
	}
}

func TestResolveCounter(t *testing.T) {
	ctx := context.Background()
	logger := discardLogger()
	user := testUser()
	recipe := &types.Recipe{ID: "r1"}

	t.Run("advances past the stored counter", func(t *testing.T) {
		p := &Processor{Database: &mocks.MockDatabase{
			GetRecipeStatsFunc: func(ctx context.Context, userID, recipeID string) (*types.RecipeStats, error) {
				return &types.RecipeStats{Counter: 7}, nil
			},
		}}
		act := &types.Activity{ID: 100}
		got := p.ResolveTemplate(ctx, logger, user, act, recipe, "Run #${counter}")
		if got != "Run #8" {
			t.Errorf("got %q", got)
		}
		if act.CounterValue != 8 {
			t.Errorf("counter value should be carried on the activity, got %d", act.CounterValue)
		}
	})

	t.Run("re-processing the same activity does not advance", func(t *testing.T) {
		p := &Processor{Database: &mocks.MockDatabase{
			GetRecipeStatsFunc: func(ctx context.Context, userID, recipeID string) (*types.RecipeStats, error) {
				return &types.RecipeStats{Counter: 7, ActivityIDs: []int64{100}}, nil
			},
		}}
		act := &types.Activity{ID: 100}
		got := p.ResolveTemplate(ctx, logger, user, act, recipe, "Run #${counter}")
		if got != "Run #7" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("no stats starts at 1", func(t *testing.T) {
		p := &Processor{Database: &mocks.MockDatabase{}}
		got := p.ResolveTemplate(ctx, logger, user, &types.Activity{ID: 1}, recipe, "#${counter}")
		if got != "#1" {
			t.Errorf("got %q", got)
		}
	})
}

func TestResolveCityTags(t *testing.T) {
	ctx := context.Background()
	logger := discardLogger()
	act := &types.Activity{
		LocationStart: []float64{51.5, -0.14},
		LocationEnd:   []float64{51.6, -0.10},
	}

	t.Run("resolves both endpoints", func(t *testing.T) {
		p := &Processor{Geocoder: &mocks.MockGeocoder{
			ReverseGeocodeFunc: func(ctx context.Context, coords []float64, hint string) (string, error) {
				if coords[0] == 51.5 {
					return "Westminster", nil
				}
				return "Islington", nil
			},
		}}
		got := p.ResolveTemplate(ctx, logger, testUser(), act, &types.Recipe{}, "${cityStart} to ${cityEnd}")
		if got != "Westminster to Islington" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("pro users get the secondary provider on failure", func(t *testing.T) {
		hints := []string{}
		p := &Processor{Geocoder: &mocks.MockGeocoder{
			ReverseGeocodeFunc: func(ctx context.Context, coords []float64, hint string) (string, error) {
				hints = append(hints, hint)
				if hint == "secondary" {
					return "Camden", nil
				}
				return "", fmt.Errorf("rate limited")
			},
		}}
		user := testUser()
		user.IsPro = true
		got := p.ResolveTemplate(ctx, logger, user, act, &types.Recipe{}, "${cityStart}")
		if got != "Camden" {
			t.Errorf("got %q", got)
		}
		if len(hints) != 2 || hints[1] != "secondary" {
			t.Errorf("expected a secondary retry, got hints %v", hints)
		}
	})

	t.Run("missing coordinates resolve empty", func(t *testing.T) {
		p := &Processor{Geocoder: &mocks.MockGeocoder{}}
		got := p.ResolveTemplate(ctx, logger, testUser(), act, &types.Recipe{}, "${cityMid}")
		if got != "" {
			t.Errorf("got %q", got)
		}
	})
}

func TestResolveWeatherTags(t *testing.T) {
	act := &types.Activity{
		LocationStart: []float64{51.5, -0.14},
		StartDate:     time.Date(2025, 6, 14, 8, 0, 0, 0, time.UTC),
	}
	p := &Processor{Weather: &mocks.MockWeatherProvider{
		GetSummaryFunc: func(ctx context.Context, coords []float64, at time.Time) (*types.WeatherSummary, error) {
			return &types.WeatherSummary{Temperature: 18.4, Humidity: 62, Summary: "Partly cloudy"}, nil
		},
	}}

	got := p.ResolveTemplate(context.Background(), discardLogger(), testUser(), act, &types.Recipe{},
		"${weather.summary}, ${weather.temperature}, ${weather.humidity}")
	if got != "Partly cloudy, 18°C, 62%" {
		t.Errorf("got %q", got)
	}
}

func TestResolveMusicTags(t *testing.T) {
	user := testUser()
	user.Integration.Spotify = &types.IntegrationRef{Enabled: true}
	act := &types.Activity{StartDate: time.Now().Add(-time.Hour), EndDate: time.Now()}

	p := &Processor{Music: &mocks.MockMusicService{
		GetTracksForWindowFunc: func(ctx context.Context, u *types.UserProfile, a *types.Activity) ([]*types.Track, error) {
			return []*types.Track{
				{Title: "Thunderstruck", Artist: "AC/DC"},
				{Title: "Eye of the Tiger", Artist: "Survivor"},
			}, nil
		},
	}}

	got := p.ResolveTemplate(context.Background(), discardLogger(), user, act, &types.Recipe{}, "${spotify.track}")
	if got != "Thunderstruck - AC/DC" {
		t.Errorf("got %q", got)
	}

	got = p.ResolveTemplate(context.Background(), discardLogger(), user, act, &types.Recipe{}, "${spotify.tracklist}")
	if got != "Thunderstruck, Eye of the Tiger" {
		t.Errorf("got %q", got)
	}
}

func TestResolveRawTags(t *testing.T) {
	act := &types.Activity{
		ID:       987,
		Name:     "Lunch Ride & Coffee",
		Distance: 15.5,
		Commute:  true,
	}

	tests := []struct {
		in   string
		want string
	}{
		{"https://x.test/a/${id}", "https://x.test/a/987"},
		{"https://x.test/?d=${distance}", "https://x.test/?d=15.5"},
		{"https://x.test/?n=${name}", "https://x.test/?n=Lunch+Ride+%26+Coffee"},
		{"https://x.test/?c=${commute}", "https://x.test/?c=true"},
		{"https://x.test/?x=${unknown}", "https://x.test/?x="},
	}
	for _, tt := range tests {
		if got := resolveRawTags(act, tt.in); got != tt.want {
			t.Errorf("resolveRawTags(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
