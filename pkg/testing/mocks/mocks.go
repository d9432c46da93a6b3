package mocks

import (
	"context"
	"fmt"
	"time"

	shared "github.com/pacebot/server/pkg"
	"github.com/pacebot/server/pkg/types"
)

// --- Mock Database ---
type MockDatabase struct {
	GetUserFunc              func(ctx context.Context, id string) (*types.UserProfile, error)
	UpdateUserFunc           func(ctx context.Context, id string, data map[string]interface{}) error
	GetRecipesFunc           func(ctx context.Context, userID string) ([]*types.Recipe, error)
	GetRecipeStatsFunc       func(ctx context.Context, userID, recipeID string) (*types.RecipeStats, error)
	SetRecipeStatsFunc       func(ctx context.Context, stats *types.RecipeStats) error
	ArchiveRecipeStatsFunc   func(ctx context.Context, userID, recipeID string) error
	PurgeArchivedStatsFunc   func(ctx context.Context, olderThan time.Time) (int, error)
	GetGearWearFunc          func(ctx context.Context, userID, gearID string) (*types.GearWear, error)
	SetGearWearFunc          func(ctx context.Context, gw *types.GearWear) error
	RecordFailedActivityFunc func(ctx context.Context, userID string, activityID int64, reason string) error
}

func (m *MockDatabase) GetUser(ctx context.Context, id string) (*types.UserProfile, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, id)
	}
	return nil, fmt.Errorf("user not found")
}
func (m *MockDatabase) UpdateUser(ctx context.Context, id string, data map[string]interface{}) error {
	if m.UpdateUserFunc != nil {
		return m.UpdateUserFunc(ctx, id, data)
	}
	return nil
}
func (m *MockDatabase) GetRecipes(ctx context.Context, userID string) ([]*types.Recipe, error) {
	if m.GetRecipesFunc != nil {
		return m.GetRecipesFunc(ctx, userID)
	}
	return nil, nil
}
func (m *MockDatabase) GetRecipeStats(ctx context.Context, userID, recipeID string) (*types.RecipeStats, error) {
	if m.GetRecipeStatsFunc != nil {
		return m.GetRecipeStatsFunc(ctx, userID, recipeID)
	}
	return nil, nil
}
func (m *MockDatabase) SetRecipeStats(ctx context.Context, stats *types.RecipeStats) error {
	if m.SetRecipeStatsFunc != nil {
		return m.SetRecipeStatsFunc(ctx, stats)
	}
	return nil
}
func (m *MockDatabase) ArchiveRecipeStats(ctx context.Context, userID, recipeID string) error {
	if m.ArchiveRecipeStatsFunc != nil {
		return m.ArchiveRecipeStatsFunc(ctx, userID, recipeID)
	}
	return nil
}
func (m *MockDatabase) PurgeArchivedStats(ctx context.Context, olderThan time.Time) (int, error) {
	if m.PurgeArchivedStatsFunc != nil {
		return m.PurgeArchivedStatsFunc(ctx, olderThan)
	}
	return 0, nil
}
func (m *MockDatabase) GetGearWear(ctx context.Context, userID, gearID string) (*types.GearWear, error) {
	if m.GetGearWearFunc != nil {
		return m.GetGearWearFunc(ctx, userID, gearID)
	}
	return nil, nil
}
func (m *MockDatabase) SetGearWear(ctx context.Context, gw *types.GearWear) error {
	if m.SetGearWearFunc != nil {
		return m.SetGearWearFunc(ctx, gw)
	}
	return nil
}
func (m *MockDatabase) RecordFailedActivity(ctx context.Context, userID string, activityID int64, reason string) error {
	if m.RecordFailedActivityFunc != nil {
		return m.RecordFailedActivityFunc(ctx, userID, activityID, reason)
	}
	return nil
}

// --- Mock Activity Service ---
type MockActivityService struct {
	FetchFunc  func(ctx context.Context, user *types.UserProfile, activityID int64) (*types.Activity, error)
	UpdateFunc func(ctx context.Context, user *types.UserProfile, activity *types.Activity) error
	ListFunc   func(ctx context.Context, user *types.UserProfile, q shared.ActivityQuery) ([]*types.Activity, error)
}

func (m *MockActivityService) Fetch(ctx context.Context, user *types.UserProfile, activityID int64) (*types.Activity, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, user, activityID)
	}
	return nil, fmt.Errorf("activity not found")
}
func (m *MockActivityService) Update(ctx context.Context, user *types.UserProfile, activity *types.Activity) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, user, activity)
	}
	return nil
}
func (m *MockActivityService) List(ctx context.Context, user *types.UserProfile, q shared.ActivityQuery) ([]*types.Activity, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, user, q)
	}
	return nil, nil
}

// --- Mock Publisher ---
type MockPublisher struct {
	PublishFunc func(ctx context.Context, topicID string, data []byte) (string, error)
}

func (m *MockPublisher) Publish(ctx context.Context, topicID string, data []byte) (string, error) {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topicID, data)
	}
	return "msg-id", nil
}

// --- Mock Storage ---
type MockBlobStore struct {
	WriteFunc func(ctx context.Context, bucket, object string, data []byte) error
}

func (m *MockBlobStore) Write(ctx context.Context, bucket, object string, data []byte) error {
	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, bucket, object, data)
	}
	return nil
}

// --- Mock Notifications ---
type MockNotificationService struct {
	SendPushNotificationFunc func(ctx context.Context, userID string, title, body string, tokens []string, data map[string]string) error
}

func (m *MockNotificationService) SendPushNotification(ctx context.Context, userID string, title, body string, tokens []string, data map[string]string) error {
	if m.SendPushNotificationFunc != nil {
		return m.SendPushNotificationFunc(ctx, userID, title, body, tokens, data)
	}
	return nil
}

// --- Mock Weather ---
type MockWeatherProvider struct {
	GetSummaryFunc func(ctx context.Context, coordinates []float64, at time.Time) (*types.WeatherSummary, error)
}

func (m *MockWeatherProvider) GetSummary(ctx context.Context, coordinates []float64, at time.Time) (*types.WeatherSummary, error) {
	if m.GetSummaryFunc != nil {
		return m.GetSummaryFunc(ctx, coordinates, at)
	}
	return nil, nil
}

// --- Mock Geocoder ---
type MockGeocoder struct {
	ReverseGeocodeFunc func(ctx context.Context, coordinates []float64, providerHint string) (string, error)
}

func (m *MockGeocoder) ReverseGeocode(ctx context.Context, coordinates []float64, providerHint string) (string, error) {
	if m.ReverseGeocodeFunc != nil {
		return m.ReverseGeocodeFunc(ctx, coordinates, providerHint)
	}
	return "", nil
}

// --- Mock Music ---
type MockMusicService struct {
	GetTracksForWindowFunc func(ctx context.Context, user *types.UserProfile, activity *types.Activity) ([]*types.Track, error)
	GetLyricsFunc          func(ctx context.Context, track *types.Track) (string, error)
}

func (m *MockMusicService) GetTracksForWindow(ctx context.Context, user *types.UserProfile, activity *types.Activity) ([]*types.Track, error) {
	if m.GetTracksForWindowFunc != nil {
		return m.GetTracksForWindowFunc(ctx, user, activity)
	}
	return nil, nil
}
func (m *MockMusicService) GetLyrics(ctx context.Context, track *types.Track) (string, error) {
	if m.GetLyricsFunc != nil {
		return m.GetLyricsFunc(ctx, track)
	}
	return "", nil
}

// --- Mock Device Matcher ---
type MockDeviceMatcher struct {
	FindMatchingFunc func(ctx context.Context, user *types.UserProfile, activity *types.Activity, sourceName string) (*types.Activity, error)
}

func (m *MockDeviceMatcher) FindMatching(ctx context.Context, user *types.UserProfile, activity *types.Activity, sourceName string) (*types.Activity, error) {
	if m.FindMatchingFunc != nil {
		return m.FindMatchingFunc(ctx, user, activity, sourceName)
	}
	return nil, nil
}

// --- Mock AI Generator ---
type MockAIGenerator struct {
	GenerateActivityTextFunc func(ctx context.Context, user *types.UserProfile, activity *types.Activity, mode string, humour string) (string, error)
}

func (m *MockAIGenerator) GenerateActivityText(ctx context.Context, user *types.UserProfile, activity *types.Activity, mode string, humour string) (string, error) {
	if m.GenerateActivityTextFunc != nil {
		return m.GenerateActivityTextFunc(ctx, user, activity, mode, humour)
	}
	return "mock-generated-text", nil
}

// --- Mock Requester ---
type MockRequester struct {
	RequestFunc func(ctx context.Context, method, url string, body []byte) (int, error)
	Calls       []RequesterCall
}

type RequesterCall struct {
	Method string
	URL    string
	Body   []byte
}

func (m *MockRequester) Request(ctx context.Context, method, url string, body []byte) (int, error) {
	m.Calls = append(m.Calls, RequesterCall{Method: method, URL: url, Body: body})
	if m.RequestFunc != nil {
		return m.RequestFunc(ctx, method, url, body)
	}
	return 200, nil
}
