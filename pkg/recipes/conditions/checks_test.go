package conditions

import (
	"testing"
	"time"

	"github.com/pacebot/server/pkg/types"
)

func cond(property string, op types.Operator, value string) *types.Condition {
	return &types.Condition{Property: property, Operator: op, Value: value}
}

func TestCheckNumber(t *testing.T) {
	act := &types.Activity{Distance: 42.04, HrAvg: 150}

	tests := []struct {
		name string
		cond *types.Condition
		want bool
	}{
		{"equal within rounding", cond("distance", types.OpEqual, "42.0"), true},
		{"equal outside rounding", cond("distance", types.OpEqual, "42.2"), false},
		{"not equal", cond("distance", types.OpNotEqual, "50"), true},
		{"approx within 3 percent", cond("distance", types.OpApprox, "43"), true},
		{"approx outside 3 percent", cond("distance", types.OpApprox, "45"), false},
		{"like within 10 percent", cond("distance", types.OpLike, "45"), true},
		{"less than", cond("hrAvg", types.OpLessThan, "160"), true},
		{"greater than", cond("hrAvg", types.OpGreaterThan, "160"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckNumber(act, tt.cond)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("CheckNumber(%v) = %v, want %v", tt.cond, got, tt.want)
			}
		})
	}

	t.Run("missing property never matches", func(t *testing.T) {
		empty := &types.Activity{}
		got, err := CheckNumber(empty, cond("wattsAvg", types.OpLessThan, "1000"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got {
			t.Error("missing wattsAvg matched a less-than condition")
		}
	})

	t.Run("non numeric value is an error", func(t *testing.T) {
		if _, err := CheckNumber(act, cond("distance", types.OpEqual, "fast")); err == nil {
			t.Error("expected error for non-numeric condition value")
		}
	})
}

func TestCheckText(t *testing.T) {
	act := &types.Activity{Name: "Morning Commute Ride"}

	tests := []struct {
		name string
		cond *types.Condition
		want bool
	}{
		{"equal case insensitive", cond("name", types.OpEqual, "morning commute ride"), true},
		{"like substring", cond("name", types.OpLike, "commute"), true},
		{"like no match", cond("name", types.OpLike, "evening"), false},
		{"notlike", cond("name", types.OpNotLike, "evening"), true},
		{"not equal", cond("name", types.OpNotEqual, "something else"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckText(act, tt.cond)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("CheckText(%v) = %v, want %v", tt.cond, got, tt.want)
			}
		})
	}

	t.Run("empty field does not substring-match", func(t *testing.T) {
		got, _ := CheckText(&types.Activity{}, cond("description", types.OpLike, ""))
		if got {
			t.Error("empty description matched a like condition")
		}
	})
}

func TestCheckBoolean(t *testing.T) {
	act := &types.Activity{Commute: true}

	got, _ := CheckBoolean(act, cond("commute", types.OpEqual, "true"))
	if !got {
		t.Error("commute=true should match 'true'")
	}
	got, _ = CheckBoolean(act, cond("trainer", types.OpEqual, "false"))
	if !got {
		t.Error("absent trainer should match 'false'")
	}
	got, _ = CheckBoolean(act, cond("trainer", types.OpNotEqual, "true"))
	if !got {
		t.Error("absent trainer should not-equal 'true'")
	}
}

func TestCheckLocationRadiusMonotonicity(t *testing.T) {
	// ~0.0015 degrees from the condition center: inside approx and like,
	// outside equal.
	act := &types.Activity{LocationStart: []float64{51.5015, -0.1415}}
	center := "51.5000,-0.1400"

	for _, tt := range []struct {
		op   types.Operator
		want bool
	}{
		{types.OpEqual, false},
		{types.OpApprox, true},
		{types.OpLike, true},
		{types.OpNotLike, false},
	} {
		got, err := CheckLocation(act, cond("locationStart", tt.op, center))
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tt.op, err)
		}
		if got != tt.want {
			t.Errorf("operator %s = %v, want %v", tt.op, got, tt.want)
		}
	}
}

func TestCheckLocationMissingCoordinates(t *testing.T) {
	act := &types.Activity{}
	got, err := CheckLocation(act, cond("locationEnd", types.OpNotLike, "51.5,-0.14"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got {
		t.Error("notlike should be true when the coordinate field is absent")
	}
	got, _ = CheckLocation(act, cond("locationEnd", types.OpEqual, "51.5,-0.14"))
	if got {
		t.Error("equal should be false when the coordinate field is absent")
	}
}

func TestCheckTimestampWindows(t *testing.T) {
	// 08:05 UTC with a +60 minute offset: local time-of-day is 09:05.
	act := &types.Activity{
		StartDate:      time.Date(2025, 6, 14, 8, 5, 0, 0, time.UTC),
		UtcStartOffset: 60,
	}

	tests := []struct {
		name string
		cond *types.Condition
		want bool
	}{
		{"equal within 60s", cond("dateStart", types.OpEqual, "09:05"), true},
		{"equal outside 60s", cond("dateStart", types.OpEqual, "09:10"), false},
		{"approx within 10min", cond("dateStart", types.OpApprox, "09:10"), true},
		{"like within 30min", cond("dateStart", types.OpLike, "09:30"), true},
		{"like outside 30min", cond("dateStart", types.OpLike, "10:00"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckTimestamp(act, tt.cond)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("CheckTimestamp(%v) = %v, want %v", tt.cond, got, tt.want)
			}
		})
	}

	t.Run("midnight wrap", func(t *testing.T) {
		late := &types.Activity{StartDate: time.Date(2025, 6, 14, 23, 58, 0, 0, time.UTC)}
		got, _ := CheckTimestamp(late, cond("dateStart", types.OpApprox, "00:05"))
		if !got {
			t.Error("23:58 should approx-match 00:05 across midnight")
		}
	})
}

func TestCheckPaceWindows(t *testing.T) {
	act := &types.Activity{PaceAvg: 305} // 5:05 /km

	got, _ := CheckPace(act, cond("paceAvg", types.OpEqual, "5:05"))
	if !got {
		t.Error("exact pace should match")
	}
	got, _ = CheckPace(act, cond("paceAvg", types.OpApprox, "5:20"))
	if !got {
		t.Error("15s off should approx-match (20s window)")
	}
	got, _ = CheckPace(act, cond("paceAvg", types.OpEqual, "5:10"))
	if got {
		t.Error("5s off should not equal-match (1s window)")
	}
}

func TestCheckDuration(t *testing.T) {
	act := &types.Activity{MovingTime: 3700}

	got, _ := CheckDuration(act, cond("movingTime", types.OpGreaterThan, "3600"))
	if !got {
		t.Error("3700s should be greater than 3600")
	}
	got, _ = CheckDuration(act, cond("movingTime", types.OpApprox, "01:01:00"))
	if !got {
		t.Error("3700s should approx-match 1:01:00")
	}
}

func TestCheckWeekday(t *testing.T) {
	// 2025-06-14 is a Saturday; +120 min offset keeps it Saturday.
	act := &types.Activity{
		StartDate:      time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC),
		UtcStartOffset: 120,
	}

	tests := []struct {
		name  string
		value string
		op    types.Operator
		want  bool
	}{
		{"numeric day", "6", types.OpEqual, true},
		{"short name", "sat", types.OpEqual, true},
		{"full name", "Saturday", types.OpEqual, true},
		{"weekend set", "0,6", types.OpEqual, true},
		{"weekday set", "1,2,3,4,5", types.OpEqual, false},
		{"not equal weekdays", "1,2,3,4,5", types.OpNotEqual, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckWeekday(act, cond("weekday", tt.op, tt.value))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("weekday %q %s = %v, want %v", tt.value, tt.op, got, tt.want)
			}
		})
	}

	t.Run("offset shifts the local day", func(t *testing.T) {
		// 23:30 UTC Saturday with +120 offset is Sunday locally.
		act := &types.Activity{
			StartDate:      time.Date(2025, 6, 14, 23, 30, 0, 0, time.UTC),
			UtcStartOffset: 120,
		}
		got, _ := CheckWeekday(act, cond("weekday", types.OpEqual, "0"))
		if !got {
			t.Error("late Saturday UTC should be Sunday in local time")
		}
	})
}

func TestCheckSportType(t *testing.T) {
	act := &types.Activity{Type: types.TypeRide}

	got, _ := CheckSportType(act, cond("sportType", types.OpEqual, "Ride,VirtualRide"))
	if !got {
		t.Error("Ride should match the Ride,VirtualRide set")
	}
	got, _ = CheckSportType(act, cond("sportType", types.OpNotEqual, "Run"))
	if !got {
		t.Error("Ride should not-equal Run")
	}
	got, _ = CheckSportType(&types.Activity{}, cond("sportType", types.OpEqual, "Ride"))
	if got {
		t.Error("missing sport type should never equal-match")
	}
	got, _ = CheckSportType(&types.Activity{}, cond("sportType", types.OpNotEqual, "Ride"))
	if !got {
		t.Error("missing sport type should not-equal anything")
	}
}

func TestCheckGear(t *testing.T) {
	act := &types.Activity{Gear: &types.Gear{ID: "b123", Type: types.GearBike}}

	got, _ := CheckGear(act, cond("gear", types.OpEqual, "b123,b456"))
	if !got {
		t.Error("gear b123 should match the set")
	}
	got, _ = CheckGear(&types.Activity{}, cond("gear", types.OpNotEqual, "b123"))
	if !got {
		t.Error("no gear should not-equal any gear ID")
	}
}

func TestCheckDateRange(t *testing.T) {
	june := &types.Activity{
		StartDate: time.Date(2025, 6, 14, 8, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC),
	}
	newYear := &types.Activity{
		StartDate: time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC),
	}

	got, err := CheckDateRange(june, cond("dateRange", types.OpEqual, "06-01,06-30"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got {
		t.Error("mid-June activity should fall in 06-01,06-30")
	}

	got, _ = CheckDateRange(june, cond("dateRange", types.OpEqual, "07-01,07-31"))
	if got {
		t.Error("June activity should not fall in July")
	}

	t.Run("wrapping range", func(t *testing.T) {
		got, err := CheckDateRange(newYear, cond("dateRange", types.OpEqual, "12-20,01-05"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got {
			t.Error("Jan 2 should fall inside the 12-20,01-05 wrap")
		}
		got, _ = CheckDateRange(june, cond("dateRange", types.OpEqual, "12-20,01-05"))
		if got {
			t.Error("June should fall outside the 12-20,01-05 wrap")
		}
	})
}

func TestCheckRecords(t *testing.T) {
	act := &types.Activity{NewRecords: []string{"longest ride", "max power"}}

	got, _ := CheckRecords(act, cond("newRecords", types.OpEqual, "true"))
	if !got {
		t.Error("non-empty records should match 'true'")
	}
	got, _ = CheckRecords(act, cond("newRecords", types.OpGreaterThan, "1"))
	if !got {
		t.Error("2 records should be greater than 1")
	}
	got, _ = CheckRecords(&types.Activity{}, cond("komSegments", types.OpEqual, "false"))
	if !got {
		t.Error("no KOMs should match 'false'")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		property string
		want     Kind
	}{
		{"distance", KindNumber},
		{"name", KindText},
		{"commute", KindBoolean},
		{"polyline", KindLocation},
		{"paceAvg", KindPace},
		{"weather.temperature", KindWeather},
		{"garmin", KindGarmin},
		{"garmin.hrAvg", KindGarmin},
		{"wahoo.distance", KindWahoo},
		{"spotify.track", KindSpotify},
		{"firstOfDay", KindFirstOfDay},
		{"nonsense", KindUnknown},
	}
	for _, tt := range tests {
		if got := KindOf(tt.property); got != tt.want {
			t.Errorf("KindOf(%q) = %v, want %v", tt.property, got, tt.want)
		}
	}
}
