package types

import "time"

// UserPreferences holds display and locale settings that affect template
// rendering but never condition evaluation.
type UserPreferences struct {
	ImperialUnits bool   `json:"imperialUnits,omitempty"`
	Language      string `json:"language,omitempty"` // BCP 47, defaults to "en"
}

// IntegrationRef is one linked third-party account. Token fields are only
// populated for integrations the engine calls directly.
type IntegrationRef struct {
	Enabled      bool      `json:"enabled"`
	AccountID    string    `json:"accountId,omitempty"`
	AccessToken  string    `json:"accessToken,omitempty"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt,omitempty"`
}

// UserIntegrations lists the user's linked accounts relevant to the engine.
// Platform is the activity source itself (the Strava-shaped API).
type UserIntegrations struct {
	Platform *IntegrationRef `json:"platform,omitempty"`
	Garmin   *IntegrationRef `json:"garmin,omitempty"`
	Wahoo    *IntegrationRef `json:"wahoo,omitempty"`
	Spotify  *IntegrationRef `json:"spotify,omitempty"`
}

// UserProfile is the engine's read-only view of a user.
type UserProfile struct {
	ID          string           `json:"id"`
	DisplayName string           `json:"displayName,omitempty"`
	IsPro       bool             `json:"isPro,omitempty"`
	Preferences UserPreferences  `json:"preferences"`
	Bikes       []*Gear          `json:"bikes,omitempty"`
	Shoes       []*Gear          `json:"shoes,omitempty"`
	Integration UserIntegrations `json:"integrations"`
	FcmTokens   []string         `json:"fcmTokens,omitempty"`

	// LastActivityDate is the start date of the newest known activity,
	// used by the first-of-day condition.
	LastActivityDate time.Time `json:"dateLastActivity,omitempty"`
}

// HasIntegration reports whether the named integration is linked and enabled.
func (u *UserProfile) HasIntegration(name string) bool {
	var ref *IntegrationRef
	switch name {
	case "platform":
		ref = u.Integration.Platform
	case "garmin":
		ref = u.Integration.Garmin
	case "wahoo":
		ref = u.Integration.Wahoo
	case "spotify":
		ref = u.Integration.Spotify
	}
	return ref != nil && ref.Enabled
}

// FindGear looks an ID up across both gear collections.
func (u *UserProfile) FindGear(id string) *Gear {
	for _, g := range u.Bikes {
		if g.ID == id {
			return g
		}
	}
	for _, g := range u.Shoes {
		if g.ID == id {
			return g
		}
	}
	return nil
}
