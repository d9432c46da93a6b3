package firestore

import (
	"time"

	"github.com/pacebot/server/pkg/types"
)

// Helper to safely get string from map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Helper to safely get bool from map
func getBool(m map[string]interface{}, key string) bool {
	if v, ok := m[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// Helper to safely get time from map
func getTime(m map[string]interface{}, key string) time.Time {
	if v, ok := m[key]; ok {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}
	return time.Time{}
}

// Firestore stores numbers as int64, float64 or int depending on the writer.
func getInt64(m map[string]interface{}, key string) int64 {
	if v, ok := m[key]; ok {
		switch n := v.(type) {
		case int64:
			return n
		case int:
			return int64(n)
		case float64:
			return int64(n)
		}
	}
	return 0
}

func getInt(m map[string]interface{}, key string) int {
	return int(getInt64(m, key))
}

func getStrings(m map[string]interface{}, key string) []string {
	if v, ok := m[key].([]string); ok {
		return v
	}
	if v, ok := m[key].([]interface{}); ok {
		out := make([]string, 0, len(v))
		for _, raw := range v {
			if s, ok := raw.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// --- UserProfile Converters ---

func gearToMap(g *types.Gear) map[string]interface{} {
	return map[string]interface{}{
		"id":       g.ID,
		"name":     g.Name,
		"type":     string(g.Type),
		"primary":  g.Primary,
		"distance": g.Distance,
	}
}

func mapToGear(m map[string]interface{}) *types.Gear {
	g := &types.Gear{
		ID:      getString(m, "id"),
		Name:    getString(m, "name"),
		Type:    types.GearType(getString(m, "type")),
		Primary: getBool(m, "primary"),
	}
	if v, ok := m["distance"]; ok {
		switch n := v.(type) {
		case float64:
			g.Distance = n
		case int64:
			g.Distance = float64(n)
		case int:
			g.Distance = float64(n)
		}
	}
	return g
}

func gearListToMaps(gear []*types.Gear) []map[string]interface{} {
	out := make([]map[string]interface{}, len(gear))
	for i, g := range gear {
		out[i] = gearToMap(g)
	}
	return out
}

func mapsToGearList(v interface{}) []*types.Gear {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]*types.Gear, 0, len(list))
	for _, raw := range list {
		if m, ok := raw.(map[string]interface{}); ok {
			out = append(out, mapToGear(m))
		}
	}
	return out
}

func integrationToMap(ref *types.IntegrationRef) map[string]interface{} {
	m := map[string]interface{}{
		"enabled":    ref.Enabled,
		"account_id": ref.AccountID,
	}
	if ref.AccessToken != "" {
		m["access_token"] = ref.AccessToken
	}
	if ref.RefreshToken != "" {
		m["refresh_token"] = ref.RefreshToken
	}
	if !ref.ExpiresAt.IsZero() {
		m["expires_at"] = ref.ExpiresAt
	}
	return m
}

func mapToIntegration(v interface{}) *types.IntegrationRef {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	return &types.IntegrationRef{
		Enabled:      getBool(m, "enabled"),
		AccountID:    getString(m, "account_id"),
		AccessToken:  getString(m, "access_token"),
		RefreshToken: getString(m, "refresh_token"),
		ExpiresAt:    getTime(m, "expires_at"),
	}
}

func UserToFirestore(u *types.UserProfile) map[string]interface{} {
	m := map[string]interface{}{
		"id":           u.ID,
		"display_name": u.DisplayName,
		"is_pro":       u.IsPro,
		"preferences": map[string]interface{}{
			"imperial_units": u.Preferences.ImperialUnits,
			"language":       u.Preferences.Language,
		},
	}

	if len(u.Bikes) > 0 {
		m["bikes"] = gearListToMaps(u.Bikes)
	}
	if len(u.Shoes) > 0 {
		m["shoes"] = gearListToMaps(u.Shoes)
	}

	integrations := make(map[string]interface{})
	if u.Integration.Platform != nil {
		integrations["platform"] = integrationToMap(u.Integration.Platform)
	}
	if u.Integration.Garmin != nil {
		integrations["garmin"] = integrationToMap(u.Integration.Garmin)
	}
	if u.Integration.Wahoo != nil {
		integrations["wahoo"] = integrationToMap(u.Integration.Wahoo)
	}
	if u.Integration.Spotify != nil {
		integrations["spotify"] = integrationToMap(u.Integration.Spotify)
	}
	if len(integrations) > 0 {
		m["integrations"] = integrations
	}

	if len(u.FcmTokens) > 0 {
		m["fcm_tokens"] = u.FcmTokens
	}
	if !u.LastActivityDate.IsZero() {
		m["last_activity_date"] = u.LastActivityDate
	}
	return m
}

func FirestoreToUser(m map[string]interface{}) *types.UserProfile {
	u := &types.UserProfile{
		ID:               getString(m, "id"),
		DisplayName:      getString(m, "display_name"),
		IsPro:            getBool(m, "is_pro"),
		FcmTokens:        getStrings(m, "fcm_tokens"),
		LastActivityDate: getTime(m, "last_activity_date"),
	}

	if p, ok := m["preferences"].(map[string]interface{}); ok {
		u.Preferences = types.UserPreferences{
			ImperialUnits: getBool(p, "imperial_units"),
			Language:      getString(p, "language"),
		}
	}

	u.Bikes = mapsToGearList(m["bikes"])
	u.Shoes = mapsToGearList(m["shoes"])

	if iMap, ok := m["integrations"].(map[string]interface{}); ok {
		u.Integration = types.UserIntegrations{
			Platform: mapToIntegration(iMap["platform"]),
			Garmin:   mapToIntegration(iMap["garmin"]),
			Wahoo:    mapToIntegration(iMap["wahoo"]),
			Spotify:  mapToIntegration(iMap["spotify"]),
		}
	}
	return u
}

// --- Recipe Converters ---

func RecipeToFirestore(r *types.Recipe) map[string]interface{} {
	m := map[string]interface{}{
		"id":      r.ID,
		"user_id": r.UserID,
		"title":   r.Title,
		"order":   r.Order,
	}

	if r.DefaultFor != "" {
		m["default_for"] = string(r.DefaultFor)
	}
	if r.Disabled {
		m["disabled"] = true
	}
	if r.Killed {
		m["killed"] = true
	}

	if len(r.Conditions) > 0 {
		conds := make([]map[string]interface{}, len(r.Conditions))
		for i, c := range r.Conditions {
			conds[i] = map[string]interface{}{
				"property":       c.Property,
				"operator":       string(c.Operator),
				"value":          c.Value,
				"friendly_value": c.FriendlyValue,
			}
		}
		m["conditions"] = conds
	}

	acts := make([]map[string]interface{}, len(r.Actions))
	for i, a := range r.Actions {
		acts[i] = map[string]interface{}{
			"type":           string(a.Type),
			"value":          a.Value,
			"friendly_value": a.FriendlyValue,
		}
	}
	m["actions"] = acts
	return m
}

func FirestoreToRecipe(m map[string]interface{}) *types.Recipe {
	r := &types.Recipe{
		ID:         getString(m, "id"),
		UserID:     getString(m, "user_id"),
		Title:      getString(m, "title"),
		Order:      getInt(m, "order"),
		DefaultFor: types.ActivityType(getString(m, "default_for")),
		Disabled:   getBool(m, "disabled"),
		Killed:     getBool(m, "killed"),
	}

	if list, ok := m["conditions"].([]interface{}); ok {
		for _, raw := range list {
			if cm, ok := raw.(map[string]interface{}); ok {
				r.Conditions = append(r.Conditions, &types.Condition{
					Property:      getString(cm, "property"),
					Operator:      types.Operator(getString(cm, "operator")),
					Value:         getString(cm, "value"),
					FriendlyValue: getString(cm, "friendly_value"),
				})
			}
		}
	}
	if list, ok := m["actions"].([]interface{}); ok {
		for _, raw := range list {
			if am, ok := raw.(map[string]interface{}); ok {
				r.Actions = append(r.Actions, &types.Action{
					Type:          types.ActionType(getString(am, "type")),
					Value:         getString(am, "value"),
					FriendlyValue: getString(am, "friendly_value"),
				})
			}
		}
	}
	return r
}

// --- RecipeStats Converters ---

func RecipeStatsToFirestore(s *types.RecipeStats) map[string]interface{} {
	m := map[string]interface{}{
		"id":             s.ID,
		"user_id":        s.UserID,
		"recipe_id":      s.RecipeID,
		"activities":     s.ActivityIDs,
		"counter":        s.Counter,
		"failure_streak": s.FailureStreak,
	}
	if !s.LastTrigger.IsZero() {
		m["last_trigger"] = s.LastTrigger
	}
	if s.ArchivedAt != nil {
		m["archived_at"] = *s.ArchivedAt
	}
	return m
}

func FirestoreToRecipeStats(m map[string]interface{}) *types.RecipeStats {
	s := &types.RecipeStats{
		ID:            getString(m, "id"),
		UserID:        getString(m, "user_id"),
		RecipeID:      getString(m, "recipe_id"),
		Counter:       getInt64(m, "counter"),
		FailureStreak: getInt(m, "failure_streak"),
		LastTrigger:   getTime(m, "last_trigger"),
	}

	if list, ok := m["activities"].([]interface{}); ok {
		s.ActivityIDs = make([]int64, 0, len(list))
		for _, raw := range list {
			switch n := raw.(type) {
			case int64:
				s.ActivityIDs = append(s.ActivityIDs, n)
			case int:
				s.ActivityIDs = append(s.ActivityIDs, int64(n))
			case float64:
				s.ActivityIDs = append(s.ActivityIDs, int64(n))
			}
		}
	} else if ids, ok := m["activities"].([]int64); ok {
		s.ActivityIDs = ids
	}

	if t := getTime(m, "archived_at"); !t.IsZero() {
		s.ArchivedAt = &t
	}
	return s
}

// --- GearWear Converters ---

func GearWearToFirestore(g *types.GearWear) map[string]interface{} {
	components := make([]map[string]interface{}, len(g.Components))
	for i, c := range g.Components {
		components[i] = map[string]interface{}{
			"name":     c.Name,
			"disabled": c.Disabled,
			"distance": c.Distance,
		}
	}
	return map[string]interface{}{
		"id":         g.ID,
		"user_id":    g.UserID,
		"components": components,
	}
}

func FirestoreToGearWear(m map[string]interface{}) *types.GearWear {
	g := &types.GearWear{
		ID:     getString(m, "id"),
		UserID: getString(m, "user_id"),
	}
	if list, ok := m["components"].([]interface{}); ok {
		for _, raw := range list {
			if cm, ok := raw.(map[string]interface{}); ok {
				comp := &types.GearWearComponent{
					Name:     getString(cm, "name"),
					Disabled: getBool(cm, "disabled"),
				}
				if v, ok := cm["distance"]; ok {
					switch n := v.(type) {
					case float64:
						comp.Distance = n
					case int64:
						comp.Distance = float64(n)
					case int:
						comp.Distance = float64(n)
					}
				}
				g.Components = append(g.Components, comp)
			}
		}
	}
	return g
}
