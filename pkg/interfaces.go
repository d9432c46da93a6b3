package shared

import (
	"context"
	"time"

	"github.com/pacebot/server/pkg/types"
)

// --- Platform (activity source/sink) ---

// ActivityQuery filters a paginated activity listing.
type ActivityQuery struct {
	After  time.Time
	Before time.Time
	Type   types.ActivityType // empty = all sports
}

type ActivityService interface {
	Fetch(ctx context.Context, user *types.UserProfile, activityID int64) (*types.Activity, error)
	// Update persists exactly the fields listed in activity.UpdatedFields.
	Update(ctx context.Context, user *types.UserProfile, activity *types.Activity) error
	List(ctx context.Context, user *types.UserProfile, q ActivityQuery) ([]*types.Activity, error)
}

// --- Persistence Interfaces ---

type Database interface {
	GetUser(ctx context.Context, id string) (*types.UserProfile, error)
	UpdateUser(ctx context.Context, id string, data map[string]interface{}) error

	// Recipes (read-only during evaluation; validated writes from the API layer)
	GetRecipes(ctx context.Context, userID string) ([]*types.Recipe, error)

	// Recipe Stats
	GetRecipeStats(ctx context.Context, userID, recipeID string) (*types.RecipeStats, error)
	// SetRecipeStats is a merge upsert; last writer wins.
	SetRecipeStats(ctx context.Context, stats *types.RecipeStats) error
	ArchiveRecipeStats(ctx context.Context, userID, recipeID string) error
	PurgeArchivedStats(ctx context.Context, olderThan time.Time) (int, error)

	// Gear Wear
	GetGearWear(ctx context.Context, userID, gearID string) (*types.GearWear, error)
	SetGearWear(ctx context.Context, gw *types.GearWear) error

	// Failed-to-process activities, for operator visibility
	RecordFailedActivity(ctx context.Context, userID string, activityID int64, reason string) error
}

// --- Messaging Interfaces ---

type Publisher interface {
	Publish(ctx context.Context, topicID string, data []byte) (string, error)
}

// --- Storage Interfaces ---

// BlobStore persists processed-activity snapshots for the history surface.
type BlobStore interface {
	Write(ctx context.Context, bucket, object string, data []byte) error
}

// --- Notification Interfaces ---

type NotificationService interface {
	SendPushNotification(ctx context.Context, userID string, title, body string, tokens []string, data map[string]string) error
}

// --- External Lookup Interfaces ---

// WeatherProvider returns nil (no error) when no observation is available;
// callers treat nil as "no weather", never as a failure.
type WeatherProvider interface {
	GetSummary(ctx context.Context, coordinates []float64, at time.Time) (*types.WeatherSummary, error)
}

// Geocoder resolves coordinates to a city name. providerHint selects the
// backing service ("" = primary, "secondary" = the PRO fallback).
type Geocoder interface {
	ReverseGeocode(ctx context.Context, coordinates []float64, providerHint string) (string, error)
}

type MusicService interface {
	// GetTracksForWindow returns tracks played during the activity, ordered by
	// play time.
	GetTracksForWindow(ctx context.Context, user *types.UserProfile, activity *types.Activity) ([]*types.Track, error)
	GetLyrics(ctx context.Context, track *types.Track) (string, error)
}

// DeviceMatcher finds a secondary-device activity by time proximity.
// A nil result with nil error means "no match".
type DeviceMatcher interface {
	FindMatching(ctx context.Context, user *types.UserProfile, activity *types.Activity, sourceName string) (*types.Activity, error)
}

// AIGenerator produces activity text from an external model.
type AIGenerator interface {
	GenerateActivityText(ctx context.Context, user *types.UserProfile, activity *types.Activity, mode string, humour string) (string, error)
}

// Requester dispatches an outbound webhook request. Timeout, retry and rate
// limiting live behind this interface.
type Requester interface {
	Request(ctx context.Context, method, url string, body []byte) (status int, err error)
}
