// Package fields provides typed access to activity properties by name, plus
// display formatting for template output. Raw accessors never apply units or
// locale; conditions compare raw values, templates render display values.
package fields

import (
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pacebot/server/pkg/types"
)

// Number returns the numeric value of a property. Array-valued properties
// (newRecords, komSegments, prSegments) normalize to their length.
// The second return is false when the property is absent or not numeric.
func Number(a *types.Activity, property string) (float64, bool) {
	switch property {
	case "distance":
		return a.Distance, a.Distance != 0
	case "speedAvg":
		return a.SpeedAvg, a.SpeedAvg != 0
	case "speedMax":
		return a.SpeedMax, a.SpeedMax != 0
	case "paceAvg":
		return a.PaceAvg, a.PaceAvg != 0
	case "paceMax":
		return a.PaceMax, a.PaceMax != 0
	case "cadenceAvg":
		return a.CadenceAvg, a.CadenceAvg != 0
	case "calories":
		return a.Calories, a.Calories != 0
	case "hrAvg":
		return a.HrAvg, a.HrAvg != 0
	case "hrMax":
		return a.HrMax, a.HrMax != 0
	case "wattsAvg":
		return a.WattsAvg, a.WattsAvg != 0
	case "wattsMax":
		return a.WattsMax, a.WattsMax != 0
	case "wattsWeighted":
		return a.WattsWeighted, a.WattsWeighted != 0
	case "relativeEffort":
		return a.RelativeEffort, a.RelativeEffort != 0
	case "elevationGain":
		return a.ElevationGain, a.ElevationGain != 0
	case "elevationMax":
		return a.ElevationMax, a.ElevationMax != 0
	case "totalTime":
		return float64(a.TotalTime), a.TotalTime != 0
	case "movingTime":
		return float64(a.MovingTime), a.MovingTime != 0
	case "workoutType":
		return float64(a.WorkoutType), a.WorkoutType != 0
	case "counter":
		return float64(a.CounterValue), a.CounterValue != 0
	case "newRecords":
		return float64(len(a.NewRecords)), true
	case "komSegments":
		return float64(len(a.KomSegments)), true
	case "prSegments":
		return float64(len(a.PrSegments)), true
	}
	return 0, false
}

// Text returns the string value of a property.
func Text(a *types.Activity, property string) (string, bool) {
	switch property {
	case "name":
		return a.Name, a.Name != ""
	case "description":
		return a.Description, a.Description != ""
	case "privateNote":
		return a.PrivateNote, a.PrivateNote != ""
	case "device":
		return a.Device, a.Device != ""
	case "sportType":
		return string(a.Type), a.Type != ""
	case "mapStyle":
		return a.MapStyle, a.MapStyle != ""
	case "gear":
		if a.Gear == nil {
			return "", false
		}
		return a.Gear.Name, true
	}
	return "", false
}

// Boolean returns the boolean value of a property. Absence reads as false
// with ok=true, so conditions can treat "missing" and "false" alike.
func Boolean(a *types.Activity, property string) (bool, bool) {
	switch property {
	case "commute":
		return a.Commute, true
	case "trainer":
		return a.Trainer, true
	case "flagged":
		return a.Flagged, true
	case "hideHome":
		return a.HideHome, true
	case "mute":
		return a.Mute, true
	}
	return false, false
}

// Location returns a [lat, lng] coordinate property.
func Location(a *types.Activity, property string) ([]float64, bool) {
	var c []float64
	switch property {
	case "locationStart":
		c = a.LocationStart
	case "locationMid":
		c = a.LocationMid
	case "locationEnd":
		c = a.LocationEnd
	}
	if len(c) != 2 {
		return nil, false
	}
	return c, true
}

// Time returns an absolute-datetime property.
func Time(a *types.Activity, property string) (time.Time, bool) {
	switch property {
	case "dateStart":
		return a.StartDate, !a.StartDate.IsZero()
	case "dateEnd":
		return a.EndDate, !a.EndDate.IsZero()
	}
	return time.Time{}, false
}

const (
	kmToMiles = 0.621371
	mToFeet   = 3.28084
)

// Formatter renders display values with unit suffixes and locale-aware
// numbers. Used only when producing template text.
type Formatter struct {
	Imperial bool
	printer  *message.Printer
}

// NewFormatter builds a formatter for the user's preferences. Unknown
// language tags fall back to English.
func NewFormatter(prefs types.UserPreferences) *Formatter {
	tag, err := language.Parse(prefs.Language)
	if err != nil || prefs.Language == "" {
		tag = language.English
	}
	return &Formatter{
		Imperial: prefs.ImperialUnits,
		printer:  message.NewPrinter(tag),
	}
}

// Display renders a property for template substitution. Properties without a
// display rule fall through to their raw text or numeric value; unknown
// properties render as empty string.
func (f *Formatter) Display(a *types.Activity, property string) string {
	switch property {
	case "distance":
		if a.Distance == 0 {
			return ""
		}
		if f.Imperial {
			return f.printer.Sprintf("%.1f mi", a.Distance*kmToMiles)
		}
		return f.printer.Sprintf("%.1f km", a.Distance)
	case "speedAvg", "speedMax":
		v, ok := Number(a, property)
		if !ok {
			return ""
		}
		if f.Imperial {
			return f.printer.Sprintf("%.1f mph", v*kmToMiles)
		}
		return f.printer.Sprintf("%.1f km/h", v)
	case "paceAvg", "paceMax":
		v, ok := Number(a, property)
		if !ok {
			return ""
		}
		if f.Imperial {
			v = v / kmToMiles // seconds per mile
		}
		return fmt.Sprintf("%d:%02d", int(v)/60, int(v)%60)
	case "elevationGain", "elevationMax":
		v, ok := Number(a, property)
		if !ok {
			return ""
		}
		if f.Imperial {
			return f.printer.Sprintf("%.0f ft", v*mToFeet)
		}
		return f.printer.Sprintf("%.0f m", v)
	case "totalTime", "movingTime":
		v, ok := Number(a, property)
		if !ok {
			return ""
		}
		return FormatDuration(int64(v))
	case "hrAvg", "hrMax":
		v, ok := Number(a, property)
		if !ok {
			return ""
		}
		return f.printer.Sprintf("%.0f bpm", v)
	case "wattsAvg", "wattsMax", "wattsWeighted":
		v, ok := Number(a, property)
		if !ok {
			return ""
		}
		return f.printer.Sprintf("%.0f W", v)
	case "cadenceAvg":
		if a.CadenceAvg == 0 {
			return ""
		}
		return f.printer.Sprintf("%.0f rpm", a.CadenceAvg)
	case "calories":
		if a.Calories == 0 {
			return ""
		}
		return f.printer.Sprintf("%.0f kcal", a.Calories)
	case "dateStart":
		if a.StartDate.IsZero() {
			return ""
		}
		return a.LocalStartDate().Format("15:04")
	case "dateEnd":
		if a.EndDate.IsZero() {
			return ""
		}
		return a.LocalEndDate().Format("15:04")
	case "weekday":
		if a.StartDate.IsZero() {
			return ""
		}
		return a.LocalStartDate().Weekday().String()
	case "counter":
		return fmt.Sprintf("%d", a.CounterValue)
	}

	if s, ok := Text(a, property); ok {
		return s
	}
	if v, ok := Number(a, property); ok {
		if v == math.Trunc(v) {
			return f.printer.Sprintf("%.0f", v)
		}
		return f.printer.Sprintf("%.1f", v)
	}
	if b, ok := Boolean(a, property); ok {
		if b {
			return "yes"
		}
		return "no"
	}
	return ""
}

// FormatTemperature renders a weather temperature per unit preference.
func (f *Formatter) FormatTemperature(celsius float64) string {
	if f.Imperial {
		return f.printer.Sprintf("%.0f°F", celsius*9/5+32)
	}
	return f.printer.Sprintf("%.0f°C", celsius)
}

// FormatDuration renders seconds as "1h02m" / "42m" / "50s".
func FormatDuration(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh%02dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// KnownProperty reports whether fields recognizes the given plain (non
// namespaced) property name.
func KnownProperty(name string) bool {
	if strings.Contains(name, ".") {
		return false
	}
	switch name {
	case "name", "description", "privateNote", "device", "sportType", "mapStyle", "gear",
		"locationStart", "locationMid", "locationEnd", "dateStart", "dateEnd", "weekday",
		"dateRange", "firstOfDay", "counter",
		"commute", "trainer", "flagged", "hideHome", "mute",
		"distance", "speedAvg", "speedMax", "paceAvg", "paceMax", "cadenceAvg",
		"calories", "hrAvg", "hrMax", "wattsAvg", "wattsMax", "wattsWeighted",
		"relativeEffort", "elevationGain", "elevationMax", "totalTime", "movingTime",
		"workoutType", "newRecords", "komSegments", "prSegments":
		return true
	}
	return false
}
