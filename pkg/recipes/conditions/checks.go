package conditions

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/twpayne/go-polyline"

	"github.com/pacebot/server/pkg/domain/fields"
	"github.com/pacebot/server/pkg/types"
)

// Numeric equality compares values rounded to one decimal place so that
// 42.04 matches a condition value of 42.0. Approximate is ±3%, like is ±10%.
const (
	approxTolerance = 0.03
	likeTolerance   = 0.10
)

// CheckNumber compares a numeric property. A missing property never matches.
func CheckNumber(act *types.Activity, cond *types.Condition) (bool, error) {
	target, err := strconv.ParseFloat(strings.TrimSpace(cond.Value), 64)
	if err != nil {
		return false, fmt.Errorf("condition value %q is not numeric: %w", cond.Value, err)
	}
	v, ok := fields.Number(act, cond.Property)
	if !ok {
		return false, nil
	}
	return compareNumber(v, target, cond)
}

func compareNumber(v, target float64, cond *types.Condition) (bool, error) {
	switch cond.Operator {
	case types.OpEqual:
		return math.Round(v*10) == math.Round(target*10), nil
	case types.OpNotEqual:
		return math.Round(v*10) != math.Round(target*10), nil
	case types.OpApprox:
		return math.Abs(v-target) <= math.Abs(target)*approxTolerance, nil
	case types.OpLike:
		return math.Abs(v-target) <= math.Abs(target)*likeTolerance, nil
	case types.OpLessThan:
		return v < target, nil
	case types.OpGreaterThan:
		return v > target, nil
	default:
		return false, invalidOperator(cond)
	}
}

// CheckText compares a text property, case-insensitively.
func CheckText(act *types.Activity, cond *types.Condition) (bool, error) {
	v, _ := fields.Text(act, cond.Property)
	v = strings.ToLower(v)
	target := strings.ToLower(cond.Value)
	switch cond.Operator {
	case types.OpEqual:
		return v == target, nil
	case types.OpNotEqual:
		return v != target, nil
	case types.OpLike:
		return v != "" && strings.Contains(v, target), nil
	case types.OpNotLike:
		return !strings.Contains(v, target), nil
	default:
		return false, invalidOperator(cond)
	}
}

// CheckBoolean compares a boolean property. A missing or false field and an
// explicit "false" condition value are equivalent.
func CheckBoolean(act *types.Activity, cond *types.Condition) (bool, error) {
	target := strings.EqualFold(strings.TrimSpace(cond.Value), "true") || cond.Value == "1"
	v, _ := fields.Boolean(act, cond.Property)
	switch cond.Operator {
	case types.OpEqual:
		return v == target, nil
	case types.OpNotEqual:
		return v != target, nil
	default:
		return false, invalidOperator(cond)
	}
}

// Point-radius containment deltas, in degrees of latitude.
const (
	radiusEqual  = 0.000556 // ≈60m
	radiusApprox = 0.002779 // ≈300m
	radiusLike   = 0.005928 // ≈650m
)

// CheckLocation tests point-radius containment against a coordinate field or
// every vertex of the decoded path. For "notlike" on a path, NO vertex may
// fall within the radius.
func CheckLocation(act *types.Activity, cond *types.Condition) (bool, error) {
	center, err := parseCoordinates(cond.Value)
	if err != nil {
		return false, err
	}

	var radius float64
	switch cond.Operator {
	case types.OpEqual:
		radius = radiusEqual
	case types.OpApprox:
		radius = radiusApprox
	case types.OpLike, types.OpNotLike:
		radius = radiusLike
	default:
		return false, invalidOperator(cond)
	}

	var points [][]float64
	if cond.Property == "polyline" {
		if act.Polyline == "" {
			return cond.Operator == types.OpNotLike, nil
		}
		coords, _, err := polyline.DecodeCoords([]byte(act.Polyline))
		if err != nil {
			return false, fmt.Errorf("decode polyline: %w", err)
		}
		points = coords
	} else {
		c, ok := fields.Location(act, cond.Property)
		if !ok {
			return cond.Operator == types.OpNotLike, nil
		}
		points = [][]float64{c}
	}

	for _, p := range points {
		if withinRadius(p, center, radius) {
			return cond.Operator != types.OpNotLike, nil
		}
	}
	return cond.Operator == types.OpNotLike, nil
}

func withinRadius(p, center []float64, radius float64) bool {
	return math.Abs(p[0]-center[0]) <= radius && math.Abs(p[1]-center[1]) <= radius
}

func parseCoordinates(value string) ([]float64, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("coordinates %q must be \"lat,lng\"", value)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q: %w", parts[0], err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q: %w", parts[1], err)
	}
	return []float64{lat, lng}, nil
}

// Time-of-day tolerance windows, in seconds.
const (
	datetimeEqualWindow  = 60
	datetimeApproxWindow = 600
	datetimeLikeWindow   = 1800
	paceEqualWindow      = 1
	paceApproxWindow     = 20
	paceLikeWindow       = 60
)

// CheckTimestamp compares the local time-of-day of an absolute-datetime
// property against an "HH:MM" condition value. The activity's recorded UTC
// offset is applied before extracting time-of-day.
func CheckTimestamp(act *types.Activity, cond *types.Condition) (bool, error) {
	t, ok := fields.Time(act, cond.Property)
	if !ok {
		return false, nil
	}
	targetSec, err := parseTimeOfDay(cond.Value)
	if err != nil {
		return false, err
	}
	local := t.Add(time.Duration(act.UtcStartOffset) * time.Minute)
	sec := local.Hour()*3600 + local.Minute()*60 + local.Second()
	return compareWindowed(float64(sec), float64(targetSec), datetimeEqualWindow, datetimeApproxWindow, datetimeLikeWindow, true, cond)
}

// CheckDuration compares an elapsed/moving-time property (seconds) against a
// value in seconds or "HH:MM:SS".
func CheckDuration(act *types.Activity, cond *types.Condition) (bool, error) {
	v, ok := fields.Number(act, cond.Property)
	if !ok {
		return false, nil
	}
	target, err := parseSeconds(cond.Value)
	if err != nil {
		return false, err
	}
	return compareWindowed(v, float64(target), datetimeEqualWindow, datetimeApproxWindow, datetimeLikeWindow, false, cond)
}

// CheckPace compares a pace property (seconds per km) against an "MM:SS"
// condition value, with tighter tolerance windows than durations.
func CheckPace(act *types.Activity, cond *types.Condition) (bool, error) {
	v, ok := fields.Number(act, cond.Property)
	if !ok {
		return false, nil
	}
	target, err := parseSeconds(cond.Value)
	if err != nil {
		return false, err
	}
	return compareWindowed(v, float64(target), paceEqualWindow, paceApproxWindow, paceLikeWindow, false, cond)
}

func compareWindowed(v, target float64, eqWin, approxWin, likeWin int, wrapDay bool, cond *types.Condition) (bool, error) {
	diff := math.Abs(v - target)
	if wrapDay && diff > 43200 {
		diff = 86400 - diff
	}
	switch cond.Operator {
	case types.OpEqual:
		return diff <= float64(eqWin), nil
	case types.OpNotEqual:
		return diff > float64(eqWin), nil
	case types.OpApprox:
		return diff <= float64(approxWin), nil
	case types.OpLike:
		return diff <= float64(likeWin), nil
	case types.OpLessThan:
		return v < target, nil
	case types.OpGreaterThan:
		return v > target, nil
	default:
		return false, invalidOperator(cond)
	}
}

func parseTimeOfDay(value string) (int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("time value %q must be \"HH:MM\"", value)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", value)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", value)
	}
	return h*3600 + m*60, nil
}

func parseSeconds(value string) (int, error) {
	value = strings.TrimSpace(value)
	if !strings.Contains(value, ":") {
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("duration value %q is not numeric: %w", value, err)
		}
		return n, nil
	}
	parts := strings.Split(value, ":")
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", value)
		}
		total = total*60 + n
	}
	return total, nil
}

// CheckWeekday tests local day-of-week membership (0=Sunday) against a
// comma-separated set of day numbers or 3-letter names.
func CheckWeekday(act *types.Activity, cond *types.Condition) (bool, error) {
	if cond.Operator != types.OpEqual && cond.Operator != types.OpNotEqual {
		return false, invalidOperator(cond)
	}
	if act.StartDate.IsZero() {
		return cond.Operator == types.OpNotEqual, nil
	}
	wd := act.LocalStartDate().Weekday()
	match := false
	for _, tok := range strings.Split(cond.Value, ",") {
		tok = strings.TrimSpace(tok)
		if n, err := strconv.Atoi(tok); err == nil && n == int(wd) {
			match = true
			break
		}
		if strings.EqualFold(tok, wd.String()[:3]) || strings.EqualFold(tok, wd.String()) {
			match = true
			break
		}
	}
	if cond.Operator == types.OpNotEqual {
		return !match, nil
	}
	return match, nil
}

// CheckSportType tests sport-type membership against a comma-separated
// allow-list. "!=" is true when the sport is absent or not listed.
func CheckSportType(act *types.Activity, cond *types.Condition) (bool, error) {
	if cond.Operator != types.OpEqual && cond.Operator != types.OpNotEqual {
		return false, invalidOperator(cond)
	}
	match := false
	for _, tok := range strings.Split(cond.Value, ",") {
		if strings.EqualFold(strings.TrimSpace(tok), string(act.Type)) {
			match = true
			break
		}
	}
	if cond.Operator == types.OpNotEqual {
		return !match, nil
	}
	return act.Type != "" && match, nil
}

// CheckGear tests gear-ID membership. "!=" is true when the activity has no
// gear or the gear is not listed.
func CheckGear(act *types.Activity, cond *types.Condition) (bool, error) {
	if cond.Operator != types.OpEqual && cond.Operator != types.OpNotEqual {
		return false, invalidOperator(cond)
	}
	match := false
	if act.Gear != nil {
		for _, tok := range strings.Split(cond.Value, ",") {
			if strings.EqualFold(strings.TrimSpace(tok), act.Gear.ID) {
				match = true
				break
			}
		}
	}
	if cond.Operator == types.OpNotEqual {
		return !match, nil
	}
	return match, nil
}

// CheckDateRange parses a year-agnostic "MM-DD,MM-DD" range. "=" means the
// activity's [start,end] interval is fully contained; "!=" means any boundary
// falls outside. Ranges may wrap the year end (e.g. "12-20,01-05").
func CheckDateRange(act *types.Activity, cond *types.Condition) (bool, error) {
	if cond.Operator != types.OpEqual && cond.Operator != types.OpNotEqual {
		return false, invalidOperator(cond)
	}
	if act.StartDate.IsZero() {
		return false, nil
	}
	parts := strings.Split(cond.Value, ",")
	if len(parts) != 2 {
		return false, fmt.Errorf("date range %q must be \"MM-DD,MM-DD\"", cond.Value)
	}

	start := act.LocalStartDate()
	end := act.LocalEndDate()
	if end.IsZero() {
		end = start
	}
	year := start.Year()

	rangeStart, err := parseMonthDay(parts[0], year, start.Location())
	if err != nil {
		return false, err
	}
	rangeEnd, err := parseMonthDay(parts[1], year, start.Location())
	if err != nil {
		return false, err
	}
	// End of day on the range end, so "01-05" includes all of Jan 5.
	rangeEnd = rangeEnd.Add(24*time.Hour - time.Second)

	if rangeEnd.Before(rangeStart) {
		// Wrapping range: test the interval against both unwrapped variants.
		contained := intervalContained(start, end, rangeStart, rangeEnd.AddDate(1, 0, 0)) ||
			intervalContained(start, end, rangeStart.AddDate(-1, 0, 0), rangeEnd)
		if cond.Operator == types.OpNotEqual {
			return !contained, nil
		}
		return contained, nil
	}

	contained := intervalContained(start, end, rangeStart, rangeEnd)
	if cond.Operator == types.OpNotEqual {
		return !contained, nil
	}
	return contained, nil
}

func intervalContained(start, end, rangeStart, rangeEnd time.Time) bool {
	return !start.Before(rangeStart) && !end.After(rangeEnd)
}

func parseMonthDay(value string, year int, loc *time.Location) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(value), "-")
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("date %q must be \"MM-DD\"", value)
	}
	m, err := strconv.Atoi(parts[0])
	if err != nil || m < 1 || m > 12 {
		return time.Time{}, fmt.Errorf("invalid month in %q", value)
	}
	d, err := strconv.Atoi(parts[1])
	if err != nil || d < 1 || d > 31 {
		return time.Time{}, fmt.Errorf("invalid day in %q", value)
	}
	return time.Date(year, time.Month(m), d, 0, 0, 0, 0, loc), nil
}

// CheckRecords tests new-record / KOM / PR lists: "="/"!=" with a boolean
// value check non-empty presence; "<"/">" compare the list length.
func CheckRecords(act *types.Activity, cond *types.Condition) (bool, error) {
	count, _ := fields.Number(act, cond.Property)
	switch cond.Operator {
	case types.OpEqual, types.OpNotEqual:
		want := strings.EqualFold(strings.TrimSpace(cond.Value), "true") || cond.Value == "1"
		has := count > 0
		if cond.Operator == types.OpNotEqual {
			return has != want, nil
		}
		return has == want, nil
	case types.OpLessThan, types.OpGreaterThan:
		target, err := strconv.ParseFloat(strings.TrimSpace(cond.Value), 64)
		if err != nil {
			return false, fmt.Errorf("condition value %q is not numeric: %w", cond.Value, err)
		}
		if cond.Operator == types.OpLessThan {
			return count < target, nil
		}
		return count > target, nil
	default:
		return false, invalidOperator(cond)
	}
}
