// Package conditions implements recipe condition matching over activities.
// Pure checkers are plain functions; checkers that need an external lookup
// (weather, paired devices, music, first-of-day) hang off an Evaluator that
// carries the collaborator interfaces.
package conditions

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	shared "github.com/pacebot/server/pkg"
	"github.com/pacebot/server/pkg/domain/fields"
	"github.com/pacebot/server/pkg/types"
)

// Kind is the enum key for condition dispatch. Dispatching over an enum (and
// failing loudly in the default branch) replaces stringly-typed property
// indexing.
type Kind int

const (
	KindUnknown Kind = iota
	KindText
	KindNumber
	KindBoolean
	KindLocation
	KindDateTime
	KindDuration
	KindPace
	KindWeekday
	KindSportType
	KindGear
	KindDateRange
	KindRecords
	KindWeather
	KindGarmin
	KindWahoo
	KindSpotify
	KindFirstOfDay
)

var propertyKinds = map[string]Kind{
	"name":        KindText,
	"description": KindText,
	"privateNote": KindText,
	"device":      KindText,

	"distance":       KindNumber,
	"speedAvg":       KindNumber,
	"speedMax":       KindNumber,
	"cadenceAvg":     KindNumber,
	"calories":       KindNumber,
	"hrAvg":          KindNumber,
	"hrMax":          KindNumber,
	"wattsAvg":       KindNumber,
	"wattsMax":       KindNumber,
	"wattsWeighted":  KindNumber,
	"relativeEffort": KindNumber,
	"elevationGain":  KindNumber,
	"elevationMax":   KindNumber,

	"commute":  KindBoolean,
	"trainer":  KindBoolean,
	"flagged":  KindBoolean,
	"hideHome": KindBoolean,
	"mute":     KindBoolean,

	"locationStart": KindLocation,
	"locationMid":   KindLocation,
	"locationEnd":   KindLocation,
	"polyline":      KindLocation,

	"dateStart":  KindDateTime,
	"dateEnd":    KindDateTime,
	"totalTime":  KindDuration,
	"movingTime": KindDuration,
	"paceAvg":    KindPace,
	"paceMax":    KindPace,

	"weekday":   KindWeekday,
	"sportType": KindSportType,
	"gear":      KindGear,
	"dateRange": KindDateRange,

	"newRecords":  KindRecords,
	"komSegments": KindRecords,
	"prSegments":  KindRecords,

	"garmin":     KindGarmin,
	"wahoo":      KindWahoo,
	"firstOfDay": KindFirstOfDay,
}

// KindOf resolves a property name (possibly namespaced) to its checker kind.
func KindOf(property string) Kind {
	if k, ok := propertyKinds[property]; ok {
		return k
	}
	switch {
	case strings.HasPrefix(property, "weather."):
		return KindWeather
	case strings.HasPrefix(property, "garmin."):
		return KindGarmin
	case strings.HasPrefix(property, "wahoo."):
		return KindWahoo
	case strings.HasPrefix(property, "spotify"):
		return KindSpotify
	}
	return KindUnknown
}

// Evaluator checks conditions, delegating external lookups to collaborators.
// A nil collaborator makes the corresponding conditions resolve to their
// absence default instead of failing.
type Evaluator struct {
	Weather    shared.WeatherProvider
	Devices    shared.DeviceMatcher
	Music      shared.MusicService
	Activities shared.ActivityService

	// RematchDelay is the wait before the single paired-device retry when the
	// device signature suggests the integration but no match was found yet.
	RematchDelay time.Duration
}

// New builds an Evaluator with the default rematch delay.
func New(weather shared.WeatherProvider, devices shared.DeviceMatcher, music shared.MusicService, activities shared.ActivityService) *Evaluator {
	return &Evaluator{
		Weather:      weather,
		Devices:      devices,
		Music:        music,
		Activities:   activities,
		RematchDelay: 10 * time.Second,
	}
}

// Check evaluates one condition against the activity. An error means the
// condition itself is malformed (unknown property, operator invalid for the
// property kind); the orchestrator logs it and treats the condition as failed.
func (e *Evaluator) Check(ctx context.Context, logger *slog.Logger, user *types.UserProfile, act *types.Activity, cond *types.Condition) (bool, error) {
	switch KindOf(cond.Property) {
	case KindText:
		return CheckText(act, cond)
	case KindNumber:
		return CheckNumber(act, cond)
	case KindBoolean:
		return CheckBoolean(act, cond)
	case KindLocation:
		return CheckLocation(act, cond)
	case KindDateTime:
		return CheckTimestamp(act, cond)
	case KindDuration:
		return CheckDuration(act, cond)
	case KindPace:
		return CheckPace(act, cond)
	case KindWeekday:
		return CheckWeekday(act, cond)
	case KindSportType:
		return CheckSportType(act, cond)
	case KindGear:
		return CheckGear(act, cond)
	case KindDateRange:
		return CheckDateRange(act, cond)
	case KindRecords:
		return CheckRecords(act, cond)
	case KindWeather:
		return e.checkWeather(ctx, logger, act, cond)
	case KindGarmin:
		return e.checkDevice(ctx, logger, user, act, cond, "garmin")
	case KindWahoo:
		return e.checkDevice(ctx, logger, user, act, cond, "wahoo")
	case KindSpotify:
		return e.checkSpotify(ctx, logger, user, act, cond)
	case KindFirstOfDay:
		return e.checkFirstOfDay(ctx, logger, user, act, cond)
	default:
		return false, fmt.Errorf("unknown condition property %q", cond.Property)
	}
}

// Observed formats the activity's raw value for a condition's property, for
// short-circuit diagnostics.
func Observed(act *types.Activity, cond *types.Condition) string {
	if v, ok := fields.Number(act, cond.Property); ok {
		return fmt.Sprintf("%g", v)
	}
	if s, ok := fields.Text(act, cond.Property); ok {
		return s
	}
	if b, ok := fields.Boolean(act, cond.Property); ok {
		return fmt.Sprintf("%t", b)
	}
	if t, ok := fields.Time(act, cond.Property); ok {
		return t.Format(time.RFC3339)
	}
	if c, ok := fields.Location(act, cond.Property); ok {
		return fmt.Sprintf("%.4f,%.4f", c[0], c[1])
	}
	return "(absent)"
}

func invalidOperator(cond *types.Condition) error {
	return fmt.Errorf("operator %q is not valid for property %q", cond.Operator, cond.Property)
}

func negativeDefault(op types.Operator) bool {
	return op == types.OpNotEqual || op == types.OpNotLike
}
