package recipes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pacebot/server/pkg/recipes/actions"
	"github.com/pacebot/server/pkg/recipes/conditions"
	"github.com/pacebot/server/pkg/types"
)

const (
	maxTitleLength = 100
	maxValueLength = 255
)

// validOperators lists, per condition kind, which operators the checkers
// accept. Kept in sync with the checker switch statements.
var validOperators = map[conditions.Kind][]types.Operator{
	conditions.KindText:       {types.OpEqual, types.OpNotEqual, types.OpLike, types.OpNotLike},
	conditions.KindNumber:     {types.OpEqual, types.OpNotEqual, types.OpApprox, types.OpLike, types.OpLessThan, types.OpGreaterThan},
	conditions.KindBoolean:    {types.OpEqual, types.OpNotEqual},
	conditions.KindLocation:   {types.OpEqual, types.OpApprox, types.OpLike, types.OpNotLike},
	conditions.KindDateTime:   {types.OpEqual, types.OpNotEqual, types.OpApprox, types.OpLike, types.OpLessThan, types.OpGreaterThan},
	conditions.KindDuration:   {types.OpEqual, types.OpNotEqual, types.OpApprox, types.OpLike, types.OpLessThan, types.OpGreaterThan},
	conditions.KindPace:       {types.OpEqual, types.OpNotEqual, types.OpApprox, types.OpLike, types.OpLessThan, types.OpGreaterThan},
	conditions.KindWeekday:    {types.OpEqual, types.OpNotEqual},
	conditions.KindSportType:  {types.OpEqual, types.OpNotEqual},
	conditions.KindGear:       {types.OpEqual, types.OpNotEqual},
	conditions.KindDateRange:  {types.OpEqual, types.OpNotEqual},
	conditions.KindRecords:    {types.OpEqual, types.OpNotEqual, types.OpLessThan, types.OpGreaterThan},
	conditions.KindWeather:    {types.OpEqual, types.OpNotEqual, types.OpApprox, types.OpLike, types.OpNotLike, types.OpLessThan, types.OpGreaterThan},
	conditions.KindSpotify:    {types.OpEqual, types.OpNotEqual, types.OpLike, types.OpNotLike},
	conditions.KindFirstOfDay: {types.OpEqual, types.OpNotEqual},
}

// deviceExistenceOps are the operators valid on a bare "garmin"/"wahoo"
// existence check. Namespaced sub-properties resolve through the
// sub-property's own kind instead; see allowedOperators.
var deviceExistenceOps = []types.Operator{types.OpEqual, types.OpNotEqual, types.OpLike, types.OpNotLike}

// actionTypes lists valid action types; the bool marks types whose value may
// be empty (the value is an optional humour/style tag, not a payload).
var actionTypes = map[types.ActionType]bool{
	types.ActionCommute:  false,
	types.ActionTrainer:  false,
	types.ActionHideHome: false,
	types.ActionMute:     false,

	types.ActionGear:        false,
	types.ActionSportType:   false,
	types.ActionWorkoutType: false,
	types.ActionMapStyle:    false,

	types.ActionName:               false,
	types.ActionPrependName:        false,
	types.ActionAppendName:         false,
	types.ActionDescription:        false,
	types.ActionPrependDescription: false,
	types.ActionAppendDescription:  false,
	types.ActionPrivateNote:        false,

	types.ActionGenerateName:        true,
	types.ActionGenerateDescription: true,
	types.ActionGenerateInsights:    true,

	types.ActionWebhook:       false,
	types.ActionGearComponent: false,
}

// ParseRecipe decodes and validates a recipe document with a strict schema:
// unknown keys are rejected so client typos fail loudly at save time instead
// of silently never matching.
func ParseRecipe(data []byte) (*types.Recipe, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var r types.Recipe
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("malformed recipe: %w", err)
	}
	if err := ValidateRecipe(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ValidateRecipe enforces the save-time invariants. Evaluation never
// re-validates; a recipe that passed here is trusted at run time.
func ValidateRecipe(r *types.Recipe) error {
	if r.Title == "" {
		return fmt.Errorf("recipe title is required")
	}
	if len(r.Title) > maxTitleLength {
		return fmt.Errorf("recipe title exceeds %d characters", maxTitleLength)
	}
	if len(r.Actions) == 0 {
		return fmt.Errorf("recipe needs at least one action")
	}
	if r.DefaultFor == "" && len(r.Conditions) == 0 {
		return fmt.Errorf("recipe needs at least one condition or a default sport")
	}

	for i, cond := range r.Conditions {
		if err := validateCondition(cond); err != nil {
			return fmt.Errorf("condition %d: %w", i, err)
		}
	}
	for i, action := range r.Actions {
		if err := validateAction(action); err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
	}
	return nil
}

func validateCondition(cond *types.Condition) error {
	if cond == nil || cond.Property == "" {
		return fmt.Errorf("property is required")
	}
	kind := conditions.KindOf(cond.Property)
	if kind == conditions.KindUnknown {
		return fmt.Errorf("unknown property %q", cond.Property)
	}
	if cond.Value == "" {
		return fmt.Errorf("value is required for property %q", cond.Property)
	}
	if len(cond.Value) > maxValueLength {
		return fmt.Errorf("value for property %q exceeds %d characters", cond.Property, maxValueLength)
	}
	allowed, err := allowedOperators(kind, cond.Property)
	if err != nil {
		return err
	}
	for _, op := range allowed {
		if cond.Operator == op {
			return nil
		}
	}
	return fmt.Errorf("operator %q is not valid for property %q", cond.Operator, cond.Property)
}

// allowedOperators resolves the operator set for a property. Paired-device
// sub-properties delegate to the underlying kind, so a condition that passes
// save-time validation is exactly one the checker accepts at run time.
func allowedOperators(kind conditions.Kind, property string) ([]types.Operator, error) {
	if kind != conditions.KindGarmin && kind != conditions.KindWahoo {
		return validOperators[kind], nil
	}
	dot := strings.Index(property, ".")
	if dot < 0 {
		return deviceExistenceOps, nil
	}
	switch sub := conditions.KindOf(property[dot+1:]); sub {
	case conditions.KindText, conditions.KindNumber, conditions.KindBoolean:
		return validOperators[sub], nil
	default:
		return nil, fmt.Errorf("unknown property %q", property)
	}
}

func validateAction(action *types.Action) error {
	if action == nil {
		return fmt.Errorf("action is required")
	}
	optionalValue, known := actionTypes[action.Type]
	if !known {
		return fmt.Errorf("unknown action type %q", action.Type)
	}
	if action.Value == "" && !optionalValue {
		return fmt.Errorf("value is required for action %q", action.Type)
	}
	if len(action.Value) > maxValueLength {
		return fmt.Errorf("value for action %q exceeds %d characters", action.Type, maxValueLength)
	}
	if action.Type == types.ActionWebhook {
		if err := actions.ValidateWebhookValue(action.Value); err != nil {
			return err
		}
	}
	return nil
}
