package conditions

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	shared "github.com/pacebot/server/pkg"
	"github.com/pacebot/server/pkg/types"
)

// checkWeather fetches summaries for the activity's start and end instants and
// compares the requested metric against both with OR semantics ("!=" requires
// both to differ). Missing-data sentinels are excluded from approximate and
// like comparisons so absent observations never fuzzy-match.
func (e *Evaluator) checkWeather(ctx context.Context, logger *slog.Logger, act *types.Activity, cond *types.Condition) (bool, error) {
	metric := strings.TrimPrefix(cond.Property, "weather.")
	target, err := strconv.ParseFloat(strings.TrimSpace(cond.Value), 64)
	if err != nil {
		return false, fmt.Errorf("weather condition value %q is not numeric: %w", cond.Value, err)
	}

	if e.Weather == nil || !act.HasLocation() {
		return negativeDefault(cond.Operator), nil
	}

	startCoords := firstCoordinates(act.LocationStart, act.LocationMid, act.LocationEnd)
	endCoords := firstCoordinates(act.LocationEnd, act.LocationMid, act.LocationStart)

	var values []float64
	if s, err := e.Weather.GetSummary(ctx, startCoords, act.StartDate); err != nil {
		logger.Warn("Weather lookup failed for start instant", "error", err)
	} else if v := s.Metric(metric); v != types.WeatherMissing {
		values = append(values, v)
	}
	endAt := act.EndDate
	if endAt.IsZero() {
		endAt = act.StartDate.Add(time.Duration(act.TotalTime) * time.Second)
	}
	if s, err := e.Weather.GetSummary(ctx, endCoords, endAt); err != nil {
		logger.Warn("Weather lookup failed for end instant", "error", err)
	} else if v := s.Metric(metric); v != types.WeatherMissing {
		values = append(values, v)
	}

	if len(values) == 0 {
		return negativeDefault(cond.Operator), nil
	}

	switch cond.Operator {
	case types.OpNotEqual:
		for _, v := range values {
			if math.Round(v*10) == math.Round(target*10) {
				return false, nil
			}
		}
		return true, nil
	case types.OpNotLike:
		// Negated fuzzy match: every observed instant must fall outside
		// the like band.
		like := &types.Condition{Property: cond.Property, Operator: types.OpLike, Value: cond.Value}
		for _, v := range values {
			ok, err := compareNumber(v, target, like)
			if err != nil {
				return false, err
			}
			if ok {
				return false, nil
			}
		}
		return true, nil
	case types.OpEqual, types.OpApprox, types.OpLike, types.OpLessThan, types.OpGreaterThan:
		for _, v := range values {
			ok, err := compareNumber(v, target, cond)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, invalidOperator(cond)
	}
}

func firstCoordinates(candidates ...[]float64) []float64 {
	for _, c := range candidates {
		if len(c) == 2 {
			return c
		}
	}
	return nil
}

// checkDevice matches the activity against a secondary-device activity
// (garmin or wahoo). Requires a PRO user with the integration linked;
// otherwise "!="/"notlike" default to true so unrelated recipes keep working.
func (e *Evaluator) checkDevice(ctx context.Context, logger *slog.Logger, user *types.UserProfile, act *types.Activity, cond *types.Condition, source string) (bool, error) {
	if !user.IsPro || !user.HasIntegration(source) || e.Devices == nil {
		return negativeDefault(cond.Operator), nil
	}

	match, err := e.Devices.FindMatching(ctx, user, act, source)
	if err != nil {
		logger.Warn("Paired-device lookup failed", "source", source, "error", err)
		return negativeDefault(cond.Operator), nil
	}

	// If the device signature suggests this integration, the upstream record
	// may simply not have landed yet. Retry once after a short delay.
	if match == nil && strings.Contains(strings.ToLower(act.Device), source) {
		logger.Info("No paired activity yet, retrying once", "source", source, "delay", e.RematchDelay)
		select {
		case <-ctx.Done():
			return negativeDefault(cond.Operator), nil
		case <-time.After(e.RematchDelay):
		}
		match, err = e.Devices.FindMatching(ctx, user, act, source)
		if err != nil {
			logger.Warn("Paired-device retry failed", "source", source, "error", err)
			return negativeDefault(cond.Operator), nil
		}
	}

	if match == nil {
		return negativeDefault(cond.Operator), nil
	}

	// Plain existence check: "garmin" / "wahoo" with = or !=.
	if cond.Property == source {
		switch cond.Operator {
		case types.OpEqual, types.OpLike:
			return true, nil
		case types.OpNotEqual, types.OpNotLike:
			return false, nil
		default:
			return false, invalidOperator(cond)
		}
	}

	// Namespaced sub-property: compare against the matched device activity.
	sub := &types.Condition{
		Property: strings.TrimPrefix(cond.Property, source+"."),
		Operator: cond.Operator,
		Value:    cond.Value,
	}
	switch KindOf(sub.Property) {
	case KindText:
		return CheckText(match, sub)
	case KindNumber:
		return CheckNumber(match, sub)
	case KindBoolean:
		return CheckBoolean(match, sub)
	default:
		return false, invalidOperator(cond)
	}
}

// checkSpotify matches played-track titles during the activity window.
// Absence of the integration, tracks, or the service defaults negative
// operators to true.
func (e *Evaluator) checkSpotify(ctx context.Context, logger *slog.Logger, user *types.UserProfile, act *types.Activity, cond *types.Condition) (bool, error) {
	if !user.HasIntegration("spotify") || e.Music == nil {
		return negativeDefault(cond.Operator), nil
	}

	tracks, err := e.Music.GetTracksForWindow(ctx, user, act)
	if err != nil {
		logger.Warn("Music lookup failed", "error", err)
		return negativeDefault(cond.Operator), nil
	}
	if len(tracks) == 0 {
		return negativeDefault(cond.Operator), nil
	}

	target := strings.ToLower(strings.TrimSpace(cond.Value))
	anyExact := false
	anySubstring := false
	for _, t := range tracks {
		title := strings.ToLower(t.Title)
		if title == target {
			anyExact = true
		}
		if strings.Contains(title, target) {
			anySubstring = true
		}
	}

	switch cond.Operator {
	case types.OpEqual:
		return anyExact, nil
	case types.OpNotEqual:
		return !anyExact, nil
	case types.OpLike:
		return anySubstring, nil
	case types.OpNotLike:
		return !anySubstring, nil
	default:
		return false, invalidOperator(cond)
	}
}

// checkFirstOfDay reports whether this activity is chronologically first for
// its local calendar day; value "sport" scopes the check to the same sport.
// Out-of-order (backfilled) activities fall back to a same-day listing query.
func (e *Evaluator) checkFirstOfDay(ctx context.Context, logger *slog.Logger, user *types.UserProfile, act *types.Activity, cond *types.Condition) (bool, error) {
	if cond.Operator != types.OpEqual && cond.Operator != types.OpNotEqual {
		return false, invalidOperator(cond)
	}
	sameSport := strings.EqualFold(strings.TrimSpace(cond.Value), "sport")

	first, err := e.isFirstOfDay(ctx, user, act, sameSport)
	if err != nil {
		logger.Warn("First-of-day check failed, treating as not first", "error", err)
		first = false
	}
	if cond.Operator == types.OpNotEqual {
		return !first, nil
	}
	return first, nil
}

func (e *Evaluator) isFirstOfDay(ctx context.Context, user *types.UserProfile, act *types.Activity, sameSport bool) (bool, error) {
	local := act.LocalStartDate()
	if user.LastActivityDate.IsZero() {
		return true, nil
	}

	lastLocal := user.LastActivityDate.Add(time.Duration(act.UtcStartOffset) * time.Minute)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

	// Unambiguous case: the newest known activity ended on an earlier local day.
	if lastLocal.Before(dayStart) {
		return true, nil
	}

	// Ambiguous (same-day or backfilled out of order): ask the platform for
	// the day's activities and verify this one sorts first.
	if e.Activities == nil {
		return false, nil
	}
	offset := time.Duration(act.UtcStartOffset) * time.Minute
	q := shared.ActivityQuery{
		After:  dayStart.Add(-offset),
		Before: dayStart.Add(24*time.Hour - offset),
	}
	if sameSport {
		q.Type = act.Type
	}
	sameDay, err := e.Activities.List(ctx, user, q)
	if err != nil {
		return false, err
	}
	for _, other := range sameDay {
		if other.ID == act.ID {
			continue
		}
		if sameSport && other.Type != act.Type {
			continue
		}
		if other.StartDate.Before(act.StartDate) {
			return false, nil
		}
	}
	return true, nil
}
