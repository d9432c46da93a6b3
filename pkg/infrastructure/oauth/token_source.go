package oauth

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	shared "github.com/pacebot/server/pkg"
	"github.com/pacebot/server/pkg/types"
)

// tokenEndpoints maps provider names to their OAuth token URLs.
var tokenEndpoints = map[string]string{
	"platform": "https://www.strava.com/oauth/token",
	"garmin":   "https://connectapi.garmin.com/oauth-service/oauth/token",
	"wahoo":    "https://api.wahooligan.com/oauth/token",
	"spotify":  "https://accounts.spotify.com/api/token",
}

// TokenSource returns a valid token.
// It is safe for concurrent use by multiple goroutines.
type TokenSource interface {
	Token(context.Context) (*oauth2.Token, error)
	ForceRefresh(context.Context) (*oauth2.Token, error)
}

// FirestoreTokenSource reads tokens from the user document and refreshes
// them through the provider's token endpoint when needed.
type FirestoreTokenSource struct {
	db       shared.Database
	userID   string
	provider string
	mu       sync.Mutex
}

func NewFirestoreTokenSource(db shared.Database, userID, provider string) *FirestoreTokenSource {
	return &FirestoreTokenSource{
		db:       db,
		userID:   userID,
		provider: provider,
	}
}

func (s *FirestoreTokenSource) integration(user *types.UserProfile) *types.IntegrationRef {
	switch s.provider {
	case "platform":
		return user.Integration.Platform
	case "garmin":
		return user.Integration.Garmin
	case "wahoo":
		return user.Integration.Wahoo
	case "spotify":
		return user.Integration.Spotify
	}
	return nil
}

func (s *FirestoreTokenSource) load(ctx context.Context) (*types.IntegrationRef, error) {
	user, err := s.db.GetUser(ctx, s.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	ref := s.integration(user)
	if ref == nil || !ref.Enabled {
		return nil, fmt.Errorf("%s not linked/enabled", s.provider)
	}
	if ref.AccessToken == "" {
		return nil, fmt.Errorf("missing access token for %s", s.provider)
	}
	return ref, nil
}

// Token returns a token, refreshing it if it expires within the next minute.
func (s *FirestoreTokenSource) Token(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	if !ref.ExpiresAt.IsZero() && time.Now().Add(1*time.Minute).After(ref.ExpiresAt) {
		return s.refresh(ctx, ref.RefreshToken)
	}

	return &oauth2.Token{
		AccessToken:  ref.AccessToken,
		RefreshToken: ref.RefreshToken,
		Expiry:       ref.ExpiresAt,
	}, nil
}

// ForceRefresh forcibly refreshes the token regardless of expiry.
func (s *FirestoreTokenSource) ForceRefresh(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if ref.RefreshToken == "" {
		return nil, fmt.Errorf("missing refresh token for %s", s.provider)
	}
	return s.refresh(ctx, ref.RefreshToken)
}

// refresh exchanges the refresh token and persists the rotated credentials
// with dotted paths so the rest of the integration sub-object survives.
func (s *FirestoreTokenSource) refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	endpoint, ok := tokenEndpoints[s.provider]
	if !ok {
		return nil, fmt.Errorf("unsupported provider for refresh: %s", s.provider)
	}
	clientID, err := s.getSecret("client-id")
	if err != nil {
		return nil, err
	}
	clientSecret, err := s.getSecret("client-secret")
	if err != nil {
		return nil, err
	}

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: endpoint},
	}
	token, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("refresh failed for %s: %w", s.provider, err)
	}

	prefix := "integrations." + s.provider + "."
	updateData := map[string]interface{}{
		prefix + "access_token": token.AccessToken,
		prefix + "expires_at":   token.Expiry,
	}
	// Only persist the refresh token if the provider rotated it; writing an
	// empty response value would wipe the stored token.
	if token.RefreshToken != "" && token.RefreshToken != refreshToken {
		updateData[prefix+"refresh_token"] = token.RefreshToken
	}
	if err := s.db.UpdateUser(ctx, s.userID, updateData); err != nil {
		return nil, fmt.Errorf("failed to persist new tokens: %w", err)
	}

	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}
	return token, nil
}

func (s *FirestoreTokenSource) getSecret(keyType string) (string, error) {
	// e.g. provider "platform", key "client-id" -> PLATFORM_CLIENT_ID
	envVarName := strings.ToUpper(s.provider) + "_" + strings.ToUpper(strings.ReplaceAll(keyType, "-", "_"))
	value := os.Getenv(envVarName)
	if value == "" {
		return "", fmt.Errorf("environment variable %s not found", envVarName)
	}
	return value, nil
}
