package types

import (
	"encoding/json"
	"strings"
	"time"
)

// ActivityType is the platform sport type string (e.g. "Ride", "Run", "VirtualRide").
type ActivityType string

const (
	TypeRide        ActivityType = "Ride"
	TypeRun         ActivityType = "Run"
	TypeWalk        ActivityType = "Walk"
	TypeHike        ActivityType = "Hike"
	TypeSwim        ActivityType = "Swim"
	TypeVirtualRide ActivityType = "VirtualRide"
	TypeVirtualRun  ActivityType = "VirtualRun"
	TypeEBikeRide   ActivityType = "EBikeRide"
	TypeWorkout     ActivityType = "Workout"
)

// SportCategory groups sport types for gear and workout-type compatibility checks.
type SportCategory string

const (
	CategoryRide  SportCategory = "ride"
	CategoryRun   SportCategory = "run"
	CategoryOther SportCategory = "other"
)

// Category maps a sport type onto its broad category.
func (t ActivityType) Category() SportCategory {
	s := strings.ToLower(string(t))
	switch {
	case strings.Contains(s, "ride") || strings.Contains(s, "velomobile") || strings.Contains(s, "handcycle"):
		return CategoryRide
	case strings.Contains(s, "run") || strings.Contains(s, "walk") || strings.Contains(s, "hike"):
		return CategoryRun
	default:
		return CategoryOther
	}
}

// Virtual reports whether the sport type is an indoor / virtual variant.
func (t ActivityType) Virtual() bool {
	return strings.HasPrefix(string(t), "Virtual")
}

// GearType distinguishes the platform's two gear collections.
type GearType string

const (
	GearBike GearType = "bike"
	GearShoe GearType = "shoe"
)

// GearNone is the sentinel gear ID that clears the activity's gear.
const GearNone = "none"

// Gear is a bike or pair of shoes from the user's inventory.
type Gear struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     GearType `json:"type"`
	Primary  bool     `json:"primary,omitempty"`
	Distance float64  `json:"distance,omitempty"`
}

// Activity is one platform activity record. Every metric field is optional on the
// wire; zero values mean "not present" and condition checkers treat them as such.
// The engine mutates a copy owned by the caller and reports what changed via
// UpdatedFields.
type Activity struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name,omitempty"`
	Description string       `json:"description,omitempty"`
	PrivateNote string       `json:"privateNote,omitempty"`
	Type        ActivityType `json:"type,omitempty"`
	WorkoutType int          `json:"workoutType,omitempty"`
	Gear        *Gear        `json:"gear,omitempty"`
	Device      string       `json:"device,omitempty"`
	MapStyle    string       `json:"mapStyle,omitempty"`

	Distance       float64 `json:"distance,omitempty"` // km
	ElevationGain  float64 `json:"elevationGain,omitempty"`
	ElevationMax   float64 `json:"elevationMax,omitempty"`
	SpeedAvg       float64 `json:"speedAvg,omitempty"` // km/h
	SpeedMax       float64 `json:"speedMax,omitempty"`
	PaceAvg        float64 `json:"paceAvg,omitempty"` // seconds per km
	PaceMax        float64 `json:"paceMax,omitempty"`
	CadenceAvg     float64 `json:"cadenceAvg,omitempty"`
	Calories       float64 `json:"calories,omitempty"`
	HrAvg          float64 `json:"hrAvg,omitempty"`
	HrMax          float64 `json:"hrMax,omitempty"`
	WattsAvg       float64 `json:"wattsAvg,omitempty"`
	WattsMax       float64 `json:"wattsMax,omitempty"`
	WattsWeighted  float64 `json:"wattsWeighted,omitempty"`
	RelativeEffort float64 `json:"relativeEffort,omitempty"`

	TotalTime  int64 `json:"totalTime,omitempty"`  // elapsed seconds
	MovingTime int64 `json:"movingTime,omitempty"` // moving seconds

	StartDate      time.Time `json:"dateStart,omitempty"`
	EndDate        time.Time `json:"dateEnd,omitempty"`
	UtcStartOffset int       `json:"utcStartOffset,omitempty"` // minutes east of UTC

	LocationStart []float64 `json:"locationStart,omitempty"` // [lat, lng]
	LocationMid   []float64 `json:"locationMid,omitempty"`
	LocationEnd   []float64 `json:"locationEnd,omitempty"`
	Polyline      string    `json:"polyline,omitempty"` // encoded path

	Commute  bool `json:"commute,omitempty"`
	Trainer  bool `json:"trainer,omitempty"`
	Flagged  bool `json:"flagged,omitempty"`
	HideHome bool `json:"hideHome,omitempty"`
	Mute     bool `json:"mute,omitempty"`

	NewRecords  []string `json:"newRecords,omitempty"`
	KomSegments []string `json:"komSegments,omitempty"`
	PrSegments  []string `json:"prSegments,omitempty"`

	// CounterValue carries the recipe trigger counter during template resolution.
	// It is never persisted with the activity.
	CounterValue int64 `json:"-"`

	// UpdatedFields lists platform field names mutated during this evaluation
	// pass, deduplicated. The platform client persists exactly these.
	UpdatedFields []string `json:"updatedFields,omitempty"`
}

// RecordUpdatedField marks a field as changed. Re-recording the same field in
// the same pass is a no-op.
func (a *Activity) RecordUpdatedField(field string) {
	for _, f := range a.UpdatedFields {
		if f == field {
			return
		}
	}
	a.UpdatedFields = append(a.UpdatedFields, field)
}

// LocalStartDate returns the start instant shifted by the recorded UTC offset,
// so callers can extract wall-clock time-of-day and weekday.
func (a *Activity) LocalStartDate() time.Time {
	return a.StartDate.Add(time.Duration(a.UtcStartOffset) * time.Minute)
}

// LocalEndDate is LocalStartDate for the end instant.
func (a *Activity) LocalEndDate() time.Time {
	return a.EndDate.Add(time.Duration(a.UtcStartOffset) * time.Minute)
}

// HasLocation reports whether the activity carries any GPS data.
func (a *Activity) HasLocation() bool {
	return len(a.LocationStart) == 2 || len(a.LocationMid) == 2 || len(a.LocationEnd) == 2 || a.Polyline != ""
}

// MarshalCompact serializes the activity for webhook bodies and artifacts.
func (a *Activity) MarshalCompact() ([]byte, error) {
	return json.Marshal(a)
}
