package actions

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/pacebot/server/pkg/domain/fields"
	"github.com/pacebot/server/pkg/types"
)

// tagPattern matches ${...} placeholder tags.
var tagPattern = regexp.MustCompile(`\$\{([a-zA-Z0-9_.]+)\}`)

// ResolveTemplate substitutes every placeholder tag in the template: activity
// fields (display formatted), city names, the recipe trigger counter, weather,
// music and paired-device data. External lookups are best effort; a failed
// lookup resolves its tags to empty string instead of aborting. Tags that
// remain unresolved also become empty, never literal.
func (p *Processor) ResolveTemplate(ctx context.Context, logger *slog.Logger, user *types.UserProfile, act *types.Activity, recipe *types.Recipe, tmpl string) string {
	matches := tagPattern.FindAllStringSubmatch(tmpl, -1)
	if len(matches) == 0 {
		return tmpl
	}

	need := make(map[string]bool)
	for _, m := range matches {
		need[m[1]] = true
	}

	fmtr := fields.NewFormatter(user.Preferences)
	values := make(map[string]string)

	if need["counter"] {
		values["counter"] = p.resolveCounter(ctx, logger, user, act, recipe)
	}
	p.resolveCityTags(ctx, logger, user, act, need, values)
	p.resolveWeatherTags(ctx, logger, act, need, values, fmtr)
	p.resolveMusicTags(ctx, logger, user, act, need, values)
	p.resolveDeviceTags(ctx, logger, user, act, need, values, fmtr)

	for tag := range need {
		if _, done := values[tag]; !done {
			values[tag] = fmtr.Display(act, tag)
		}
	}

	return tagPattern.ReplaceAllStringFunc(tmpl, func(m string) string {
		return values[tagPattern.FindStringSubmatch(m)[1]]
	})
}

// resolveCounter derives the recipe's trigger counter. When the activity has
// not triggered this recipe yet the counter is advanced by one, so "run #N"
// style templates see the value the trigger is about to reach.
func (p *Processor) resolveCounter(ctx context.Context, logger *slog.Logger, user *types.UserProfile, act *types.Activity, recipe *types.Recipe) string {
	var counter int64
	if p.Database != nil {
		stats, err := p.Database.GetRecipeStats(ctx, user.ID, recipe.ID)
		if err != nil {
			logger.Warn("Counter lookup failed, substituting 1", "recipe_id", recipe.ID, "error", err)
			counter = 0
		} else if stats != nil {
			counter = stats.Counter
			if stats.HasActivity(act.ID) {
				act.CounterValue = counter
				return fmt.Sprintf("%d", counter)
			}
		}
	}
	counter++
	act.CounterValue = counter
	return fmt.Sprintf("%d", counter)
}

var cityTagCoords = map[string]string{
	"cityStart": "locationStart",
	"cityMid":   "locationMid",
	"cityEnd":   "locationEnd",
}

// resolveCityTags reverse-geocodes the referenced coordinates, falling back to
// the secondary provider for PRO users, then to empty string.
func (p *Processor) resolveCityTags(ctx context.Context, logger *slog.Logger, user *types.UserProfile, act *types.Activity, need map[string]bool, values map[string]string) {
	for tag, prop := range cityTagCoords {
		if !need[tag] {
			continue
		}
		coords, ok := fields.Location(act, prop)
		if !ok || p.Geocoder == nil {
			values[tag] = ""
			continue
		}
		city, err := p.Geocoder.ReverseGeocode(ctx, coords, "")
		if err != nil && user.IsPro {
			logger.Warn("Primary geocoder failed, trying secondary", "tag", tag, "error", err)
			city, err = p.Geocoder.ReverseGeocode(ctx, coords, "secondary")
		}
		if err != nil {
			logger.Warn("Reverse geocode failed, substituting empty", "tag", tag, "error", err)
			city = ""
		}
		values[tag] = city
	}
}

func (p *Processor) resolveWeatherTags(ctx context.Context, logger *slog.Logger, act *types.Activity, need map[string]bool, values map[string]string, fmtr *fields.Formatter) {
	var tags []string
	for tag := range need {
		if strings.HasPrefix(tag, "weather.") {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		return
	}

	blank := func() {
		for _, tag := range tags {
			values[tag] = ""
		}
	}
	if p.Weather == nil || !act.HasLocation() {
		blank()
		return
	}
	coords := firstLocation(act)
	summary, err := p.Weather.GetSummary(ctx, coords, act.StartDate)
	if err != nil || summary == nil {
		if err != nil {
			logger.Warn("Weather fetch failed, substituting empty", "error", err)
		}
		blank()
		return
	}

	for _, tag := range tags {
		metric := strings.TrimPrefix(tag, "weather.")
		switch metric {
		case "temperature":
			values[tag] = fmtr.FormatTemperature(summary.Temperature)
		case "windSpeed":
			values[tag] = fmt.Sprintf("%.0f km/h", summary.WindSpeed)
		case "humidity":
			values[tag] = fmt.Sprintf("%.0f%%", summary.Humidity)
		case "precipitation":
			values[tag] = fmt.Sprintf("%.1f mm", summary.Precipitation)
		case "aqi":
			values[tag] = fmt.Sprintf("%.0f", summary.AQI)
		case "summary":
			values[tag] = summary.Summary
		default:
			values[tag] = ""
		}
	}
}

// resolveMusicTags substitutes played-track tags; lyrics are PRO-gated.
func (p *Processor) resolveMusicTags(ctx context.Context, logger *slog.Logger, user *types.UserProfile, act *types.Activity, need map[string]bool, values map[string]string) {
	var tags []string
	for tag := range need {
		if strings.HasPrefix(tag, "spotify.") {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		return
	}

	blank := func() {
		for _, tag := range tags {
			values[tag] = ""
		}
	}
	if p.Music == nil || !user.HasIntegration("spotify") {
		blank()
		return
	}
	tracks, err := p.Music.GetTracksForWindow(ctx, user, act)
	if err != nil || len(tracks) == 0 {
		if err != nil {
			logger.Warn("Music fetch failed, substituting empty", "error", err)
		}
		blank()
		return
	}

	first := tracks[0]
	for _, tag := range tags {
		switch strings.TrimPrefix(tag, "spotify.") {
		case "track":
			if first.Artist != "" {
				values[tag] = first.Title + " - " + first.Artist
			} else {
				values[tag] = first.Title
			}
		case "artist":
			values[tag] = first.Artist
		case "tracklist":
			var titles []string
			for _, t := range tracks {
				titles = append(titles, t.Title)
			}
			values[tag] = strings.Join(titles, ", ")
		case "lyrics":
			if !user.IsPro {
				values[tag] = ""
				continue
			}
			lyrics, err := p.Music.GetLyrics(ctx, first)
			if err != nil {
				logger.Warn("Lyrics fetch failed, substituting empty", "error", err)
				lyrics = ""
			}
			values[tag] = lyrics
		default:
			values[tag] = ""
		}
	}
}

// resolveDeviceTags substitutes fields from the matched secondary-device
// activity; PRO tier plus a linked account are required.
func (p *Processor) resolveDeviceTags(ctx context.Context, logger *slog.Logger, user *types.UserProfile, act *types.Activity, need map[string]bool, values map[string]string, fmtr *fields.Formatter) {
	for _, source := range []string{"garmin", "wahoo"} {
		prefix := source + "."
		var tags []string
		for tag := range need {
			if strings.HasPrefix(tag, prefix) {
				tags = append(tags, tag)
			}
		}
		if len(tags) == 0 {
			continue
		}

		blank := func() {
			for _, tag := range tags {
				values[tag] = ""
			}
		}
		if p.Devices == nil || !user.IsPro || !user.HasIntegration(source) {
			blank()
			continue
		}
		match, err := p.Devices.FindMatching(ctx, user, act, source)
		if err != nil || match == nil {
			if err != nil {
				logger.Warn("Paired-device fetch failed, substituting empty", "source", source, "error", err)
			}
			blank()
			continue
		}
		for _, tag := range tags {
			values[tag] = fmtr.Display(match, strings.TrimPrefix(tag, prefix))
		}
	}
}

func firstLocation(act *types.Activity) []float64 {
	for _, c := range [][]float64{act.LocationStart, act.LocationMid, act.LocationEnd} {
		if len(c) == 2 {
			return c
		}
	}
	return nil
}

// resolveRawTags substitutes placeholder tags with raw (unformatted,
// URL-escaped) activity values. Used for webhook URLs, where suffixed display
// text would corrupt query parameters.
func resolveRawTags(act *types.Activity, s string) string {
	return tagPattern.ReplaceAllStringFunc(s, func(m string) string {
		tag := tagPattern.FindStringSubmatch(m)[1]
		if tag == "id" {
			return fmt.Sprintf("%d", act.ID)
		}
		if v, ok := fields.Number(act, tag); ok {
			return fmt.Sprintf("%g", v)
		}
		if v, ok := fields.Text(act, tag); ok {
			return url.QueryEscape(v)
		}
		if v, ok := fields.Boolean(act, tag); ok {
			return fmt.Sprintf("%t", v)
		}
		return ""
	})
}
