// Package actions executes recipe actions against an activity. Handlers never
// panic or return raw errors to the caller; each yields an Outcome with an
// error-kind enum and the orchestrator decides about notification.
package actions

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	shared "github.com/pacebot/server/pkg"
	"github.com/pacebot/server/pkg/recipes/fortune"
	"github.com/pacebot/server/pkg/types"
)

// ErrorKind classifies an action failure for notification and logging.
type ErrorKind int

const (
	ErrNone ErrorKind = iota
	ErrInvalidValue
	ErrMissingEntity
	ErrExternal
	ErrPersistence
)

// Outcome is the result of one action. OK=true with Skipped=true means the
// action was a benign no-op (empty template, category mismatch).
type Outcome struct {
	OK      bool
	Skipped bool
	Kind    ErrorKind
	Err     error
}

func success() Outcome { return Outcome{OK: true} }
func skipped() Outcome { return Outcome{OK: true, Skipped: true} }

func failure(kind ErrorKind, err error) Outcome {
	return Outcome{Kind: kind, Err: err}
}

// Result pairs an action with its outcome.
type Result struct {
	Action  *types.Action
	Outcome Outcome
}

// Platform field names recorded in updatedFields.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldPrivateNote = "private_note"
	FieldCommute     = "commute"
	FieldTrainer     = "trainer"
	FieldHideHome    = "hide_from_home"
	FieldMute        = "mute"
	FieldFlagged     = "flagged"
	FieldGear        = "gear_id"
	FieldSportType   = "sport_type"
	FieldWorkoutType = "workout_type"
	FieldMapStyle    = "map_style"
)

// Processor runs recipe actions. All collaborators are optional; a missing
// one turns the dependent action into an external failure rather than a crash.
type Processor struct {
	Database shared.Database
	Weather  shared.WeatherProvider
	Geocoder shared.Geocoder
	Music    shared.MusicService
	Devices  shared.DeviceMatcher
	AI       shared.AIGenerator
	Webhooks shared.Requester
	Fortune  *fortune.Generator
}

// ExecuteAll runs a matched recipe's actions sorted by type name, so webhook
// dispatch naturally runs after content mutations. Gear-component toggles are
// batched into one persistence call per gear ID. Failures never abort
// subsequent actions.
func (p *Processor) ExecuteAll(ctx context.Context, logger *slog.Logger, user *types.UserProfile, act *types.Activity, recipe *types.Recipe) []Result {
	sorted := append([]*types.Action(nil), recipe.Actions...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Type < sorted[j].Type })

	results := make([]Result, len(sorted))
	var toggles []componentToggle

	for i, action := range sorted {
		results[i] = Result{Action: action}
		if action.Type == types.ActionGearComponent {
			t, err := parseComponentToggle(action.Value)
			if err != nil {
				results[i].Outcome = failure(ErrInvalidValue, err)
				continue
			}
			t.idx = i
			toggles = append(toggles, t)
			results[i].Outcome = success() // provisional until flush
			continue
		}
		results[i].Outcome = p.execute(ctx, logger, user, act, recipe, action)
		if out := results[i].Outcome; !out.OK {
			logger.Error("Action failed", "recipe_id", recipe.ID, "action", action.Type, "error", out.Err)
		}
	}

	p.flushComponentToggles(ctx, logger, user, toggles, results)
	return results
}

func (p *Processor) execute(ctx context.Context, logger *slog.Logger, user *types.UserProfile, act *types.Activity, recipe *types.Recipe, action *types.Action) Outcome {
	switch action.Type {
	case types.ActionCommute:
		return setBoolField(act, action, &act.Commute, FieldCommute)
	case types.ActionTrainer:
		return setBoolField(act, action, &act.Trainer, FieldTrainer)
	case types.ActionHideHome:
		return setBoolField(act, action, &act.HideHome, FieldHideHome)
	case types.ActionMute:
		return setBoolField(act, action, &act.Mute, FieldMute)

	case types.ActionGear:
		return p.setGear(logger, user, act, action)
	case types.ActionSportType:
		act.Type = types.ActivityType(action.Value)
		act.RecordUpdatedField(FieldSportType)
		return success()
	case types.ActionWorkoutType:
		return setWorkoutType(logger, act, action)
	case types.ActionMapStyle:
		act.MapStyle = action.Value
		act.RecordUpdatedField(FieldMapStyle)
		return success()

	case types.ActionName, types.ActionPrependName, types.ActionAppendName,
		types.ActionDescription, types.ActionPrependDescription, types.ActionAppendDescription,
		types.ActionPrivateNote:
		return p.applyText(ctx, logger, user, act, recipe, action)

	case types.ActionGenerateName:
		return p.generateName(ctx, logger, user, act, action)
	case types.ActionGenerateDescription, types.ActionGenerateInsights:
		return p.generateAI(ctx, logger, user, act, action)

	case types.ActionWebhook:
		return p.executeWebhook(ctx, logger, act, action)

	default:
		return failure(ErrInvalidValue, fmt.Errorf("unknown action type %q", action.Type))
	}
}

func setBoolField(act *types.Activity, action *types.Action, field *bool, name string) Outcome {
	v, err := strconv.ParseBool(strings.TrimSpace(action.Value))
	if err != nil {
		return failure(ErrInvalidValue, fmt.Errorf("action %s: value %q is not boolean", action.Type, action.Value))
	}
	*field = v
	act.RecordUpdatedField(name)
	return success()
}

// setGear assigns gear by ID, looking across bikes and shoes plus the "none"
// sentinel. A gear whose category doesn't match the activity is skipped
// silently (info log) rather than erroring.
func (p *Processor) setGear(logger *slog.Logger, user *types.UserProfile, act *types.Activity, action *types.Action) Outcome {
	id := strings.TrimSpace(action.Value)
	if id == types.GearNone {
		act.Gear = nil
		act.RecordUpdatedField(FieldGear)
		return success()
	}
	gear := user.FindGear(id)
	if gear == nil {
		return failure(ErrMissingEntity, fmt.Errorf("gear %q not found in user inventory", id))
	}
	category := act.Type.Category()
	if (gear.Type == types.GearBike && category != types.CategoryRide) ||
		(gear.Type == types.GearShoe && category != types.CategoryRun) {
		logger.Info("Gear category does not match activity, skipping",
			"gear_id", gear.ID, "gear_type", gear.Type, "activity_type", act.Type)
		return skipped()
	}
	act.Gear = gear
	act.RecordUpdatedField(FieldGear)
	return success()
}

// Platform workout-type codes: < 10 are run codes, >= 10 are ride codes.
func setWorkoutType(logger *slog.Logger, act *types.Activity, action *types.Action) Outcome {
	code, err := strconv.Atoi(strings.TrimSpace(action.Value))
	if err != nil {
		return failure(ErrInvalidValue, fmt.Errorf("workout type %q is not numeric", action.Value))
	}
	category := act.Type.Category()
	if (code >= 10 && category != types.CategoryRide) || (code < 10 && category == types.CategoryRide) {
		logger.Info("Workout type category does not match activity, skipping",
			"code", code, "activity_type", act.Type)
		return skipped()
	}
	act.WorkoutType = code
	act.RecordUpdatedField(FieldWorkoutType)
	return success()
}

// applyText runs the template pipeline and applies the resolved value per
// action type. An empty resolution is a successful no-op so conditional
// templates degrade gracefully.
func (p *Processor) applyText(ctx context.Context, logger *slog.Logger, user *types.UserProfile, act *types.Activity, recipe *types.Recipe, action *types.Action) Outcome {
	resolved := p.ResolveTemplate(ctx, logger, user, act, recipe, action.Value)
	resolved = strings.TrimSpace(resolved)
	if resolved == "" {
		return skipped()
	}

	apply := func(existing string, prepend, append_ bool) string {
		switch {
		case prepend && existing != "":
			return resolved + " " + existing
		case append_ && existing != "":
			return existing + " " + resolved
		default:
			return resolved
		}
	}

	switch action.Type {
	case types.ActionName:
		act.Name = resolved
		act.RecordUpdatedField(FieldName)
	case types.ActionPrependName:
		act.Name = apply(act.Name, true, false)
		act.RecordUpdatedField(FieldName)
	case types.ActionAppendName:
		act.Name = apply(act.Name, false, true)
		act.RecordUpdatedField(FieldName)
	case types.ActionDescription:
		act.Description = resolved
		act.RecordUpdatedField(FieldDescription)
	case types.ActionPrependDescription:
		act.Description = apply(act.Description, true, false)
		act.RecordUpdatedField(FieldDescription)
	case types.ActionAppendDescription:
		act.Description = apply(act.Description, false, true)
		act.RecordUpdatedField(FieldDescription)
	case types.ActionPrivateNote:
		act.PrivateNote = resolved
		act.RecordUpdatedField(FieldPrivateNote)
	}
	return success()
}

// generateName produces a heuristic name; the action value is the humour tag.
func (p *Processor) generateName(ctx context.Context, logger *slog.Logger, user *types.UserProfile, act *types.Activity, action *types.Action) Outcome {
	if p.Fortune == nil {
		return failure(ErrExternal, fmt.Errorf("name generator not configured"))
	}
	var weather *types.WeatherSummary
	if p.Weather != nil && act.HasLocation() {
		if s, err := p.Weather.GetSummary(ctx, act.LocationStart, act.StartDate); err != nil {
			logger.Debug("Weather unavailable for name generation", "error", err)
		} else {
			weather = s
		}
	}
	act.Name = p.Fortune.Name(user, act, action.Value, weather)
	act.RecordUpdatedField(FieldName)
	return success()
}

// generateAI produces a description or insights via the external model.
func (p *Processor) generateAI(ctx context.Context, logger *slog.Logger, user *types.UserProfile, act *types.Activity, action *types.Action) Outcome {
	if p.AI == nil {
		return failure(ErrExternal, fmt.Errorf("AI generator not configured"))
	}
	mode := "description"
	if action.Type == types.ActionGenerateInsights {
		mode = "insights"
	}
	text, err := p.AI.GenerateActivityText(ctx, user, act, mode, action.Value)
	if err != nil {
		return failure(ErrExternal, fmt.Errorf("AI generation failed: %w", err))
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return skipped()
	}
	if act.Description == "" {
		act.Description = text
	} else {
		act.Description = act.Description + "\n\n" + text
	}
	act.RecordUpdatedField(FieldDescription)
	return success()
}
