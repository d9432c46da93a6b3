package fields

import (
	"testing"
	"time"

	"github.com/pacebot/server/pkg/types"
)

func TestNumber(t *testing.T) {
	act := &types.Activity{
		Distance:   42.2,
		MovingTime: 3600,
		NewRecords: []string{"a", "b"},
	}

	tests := []struct {
		property string
		want     float64
		ok       bool
	}{
		{"distance", 42.2, true},
		{"movingTime", 3600, true},
		{"newRecords", 2, true},
		{"wattsAvg", 0, false},
		{"name", 0, false},
	}
	for _, tt := range tests {
		got, ok := Number(act, tt.property)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Number(%q) = (%v, %v), want (%v, %v)", tt.property, got, ok, tt.want, tt.ok)
		}
	}

	t.Run("empty record list is still present", func(t *testing.T) {
		got, ok := Number(&types.Activity{}, "komSegments")
		if got != 0 || !ok {
			t.Errorf("komSegments = (%v, %v), want (0, true)", got, ok)
		}
	})
}

func TestBooleanAbsenceReadsFalse(t *testing.T) {
	v, ok := Boolean(&types.Activity{}, "trainer")
	if v || !ok {
		t.Errorf("absent trainer = (%v, %v), want (false, true)", v, ok)
	}
	_, ok = Boolean(&types.Activity{}, "distance")
	if ok {
		t.Error("distance is not a boolean property")
	}
}

func TestTextGearUsesName(t *testing.T) {
	act := &types.Activity{Gear: &types.Gear{ID: "b1", Name: "Gravel bike"}}
	got, ok := Text(act, "gear")
	if !ok || got != "Gravel bike" {
		t.Errorf("gear text = (%q, %v)", got, ok)
	}
	_, ok = Text(&types.Activity{}, "gear")
	if ok {
		t.Error("missing gear should be absent")
	}
}

func TestLocationValidatesShape(t *testing.T) {
	act := &types.Activity{LocationStart: []float64{51.5}}
	if _, ok := Location(act, "locationStart"); ok {
		t.Error("a one-element coordinate must be rejected")
	}
}

func TestFormatterDisplayMetric(t *testing.T) {
	f := NewFormatter(types.UserPreferences{})
	act := &types.Activity{
		Distance:      100.2,
		SpeedAvg:      29.4,
		PaceAvg:       305,
		ElevationGain: 1234,
		MovingTime:    3725,
		HrAvg:         151.6,
		CadenceAvg:    88,
		Calories:      2450,
		Commute:       true,
		CounterValue:  12,
		StartDate:     time.Date(2025, 6, 14, 7, 30, 0, 0, time.UTC),
	}

	tests := []struct {
		property string
		want     string
	}{
		{"distance", "100.2 km"},
		{"speedAvg", "29.4 km/h"},
		{"paceAvg", "5:05"},
		{"elevationGain", "1,234 m"},
		{"movingTime", "1h02m"},
		{"hrAvg", "152 bpm"},
		{"cadenceAvg", "88 rpm"},
		{"calories", "2,450 kcal"},
		{"commute", "yes"},
		{"counter", "12"},
		{"dateStart", "07:30"},
		{"weekday", "Saturday"},
		{"unknownProperty", ""},
	}
	for _, tt := range tests {
		if got := f.Display(act, tt.property); got != tt.want {
			t.Errorf("Display(%q) = %q, want %q", tt.property, got, tt.want)
		}
	}
}

func TestFormatterDisplayImperial(t *testing.T) {
	f := NewFormatter(types.UserPreferences{ImperialUnits: true})
	act := &types.Activity{Distance: 100, ElevationGain: 1000}

	if got := f.Display(act, "distance"); got != "62.1 mi" {
		t.Errorf("distance = %q", got)
	}
	if got := f.Display(act, "elevationGain"); got != "3,281 ft" {
		t.Errorf("elevationGain = %q", got)
	}
}

func TestFormatTemperature(t *testing.T) {
	metric := NewFormatter(types.UserPreferences{})
	if got := metric.FormatTemperature(21.6); got != "22°C" {
		t.Errorf("got %q", got)
	}
	imperial := NewFormatter(types.UserPreferences{ImperialUnits: true})
	if got := imperial.FormatTemperature(0); got != "32°F" {
		t.Errorf("got %q", got)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{3725, "1h02m"},
		{2520, "42m"},
		{50, "50s"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.seconds); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestKnownProperty(t *testing.T) {
	for _, name := range []string{"distance", "weekday", "counter", "gear"} {
		if !KnownProperty(name) {
			t.Errorf("%q should be known", name)
		}
	}
	for _, name := range []string{"weather.temperature", "garmin.hrAvg", "bogus"} {
		if KnownProperty(name) {
			t.Errorf("%q should not be known", name)
		}
	}
}
