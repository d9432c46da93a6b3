package types

import "time"

// Operator is a condition comparison operator. Not every operator is valid for
// every property kind; the evaluator rejects invalid pairs loudly.
type Operator string

const (
	OpEqual       Operator = "="
	OpNotEqual    Operator = "!="
	OpLike        Operator = "like"
	OpNotLike     Operator = "notlike"
	OpApprox      Operator = "approx"
	OpLessThan    Operator = "<"
	OpGreaterThan Operator = ">"
)

// Condition is a single predicate over one activity property.
type Condition struct {
	Property      string   `json:"property"`
	Operator      Operator `json:"operator"`
	Value         string   `json:"value"`
	FriendlyValue string   `json:"friendlyValue,omitempty"`
}

// ActionType selects an action handler.
type ActionType string

const (
	ActionCommute  ActionType = "commute"
	ActionTrainer  ActionType = "trainer"
	ActionHideHome ActionType = "hideHome"
	ActionMute     ActionType = "mute"

	ActionGear        ActionType = "gear"
	ActionSportType   ActionType = "sportType"
	ActionWorkoutType ActionType = "workoutType"
	ActionMapStyle    ActionType = "mapStyle"

	ActionName               ActionType = "name"
	ActionPrependName        ActionType = "prependName"
	ActionAppendName         ActionType = "appendName"
	ActionDescription        ActionType = "description"
	ActionPrependDescription ActionType = "prependDescription"
	ActionAppendDescription  ActionType = "appendDescription"
	ActionPrivateNote        ActionType = "privateNote"

	ActionGenerateName        ActionType = "generateName"
	ActionGenerateDescription ActionType = "generateDescription"
	ActionGenerateInsights    ActionType = "generateInsights"

	ActionWebhook       ActionType = "webhook"
	ActionGearComponent ActionType = "gearComponent"
)

// Action is a single mutation or side effect applied when a recipe matches.
// Value semantics depend on Type: template text, boolean, gear ID, sport type,
// numeric workout code, URL (optionally "METHOD url") or
// "gearId:component:on|off" for gear components.
type Action struct {
	Type          ActionType `json:"type"`
	Value         string     `json:"value"`
	FriendlyValue string     `json:"friendlyValue,omitempty"`
}

// Recipe is a user-authored automation rule: an unordered AND set of
// conditions plus an ordered list of actions.
type Recipe struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Title  string `json:"title"`
	Order  int    `json:"order,omitempty"`

	// DefaultFor bypasses conditions: the recipe applies to every activity of
	// this sport type.
	DefaultFor ActivityType `json:"defaultFor,omitempty"`

	Conditions []*Condition `json:"conditions,omitempty"`
	Actions    []*Action    `json:"actions"`

	Disabled bool `json:"disabled,omitempty"`
	// Killed is the kill switch: the recipe is retained but never evaluated.
	Killed bool `json:"killed,omitempty"`
}

// RecipeStats tracks trigger history for one (user, recipe) pair.
// Document ID is "{userId}-{recipeId}".
type RecipeStats struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	RecipeID string `json:"recipeId"`

	// ActivityIDs is the deduplicated ring of triggering activities,
	// oldest evicted beyond MaxStatsActivities.
	ActivityIDs []int64 `json:"activities"`

	// Counter is cumulative and usable inside action templates.
	Counter int64 `json:"counter"`

	// FailureStreak counts consecutive passes with at least one failed
	// action; any fully successful pass resets it.
	FailureStreak int `json:"failureStreak,omitempty"`

	LastTrigger time.Time  `json:"dateLastTrigger,omitempty"`
	ArchivedAt  *time.Time `json:"dateArchived,omitempty"`
}

// MaxStatsActivities bounds the stats activity list.
const MaxStatsActivities = 100

// StatsID builds the canonical stats document ID.
func StatsID(userID, recipeID string) string {
	return userID + "-" + recipeID
}

// HasActivity reports whether the activity already triggered this recipe.
func (s *RecipeStats) HasActivity(activityID int64) bool {
	for _, id := range s.ActivityIDs {
		if id == activityID {
			return true
		}
	}
	return false
}

// GearWearComponent is one wearable part tracked on a gear item.
type GearWearComponent struct {
	Name     string  `json:"name"`
	Disabled bool    `json:"disabled,omitempty"`
	Distance float64 `json:"distance,omitempty"`
}

// GearWear tracks component wear for one gear item.
type GearWear struct {
	ID         string               `json:"id"` // gear ID
	UserID     string               `json:"userId"`
	Components []*GearWearComponent `json:"components"`
}

// Component returns the named component, or nil.
func (g *GearWear) Component(name string) *GearWearComponent {
	for _, c := range g.Components {
		if c.Name == name {
			return c
		}
	}
	return nil
}
