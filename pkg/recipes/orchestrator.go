// Package recipes orchestrates recipe evaluation for uploaded activities:
// condition matching, action execution, stats bookkeeping and the user-facing
// failure notifications.
package recipes

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	shared "github.com/pacebot/server/pkg"
	"github.com/pacebot/server/pkg/recipes/actions"
	"github.com/pacebot/server/pkg/recipes/conditions"
	"github.com/pacebot/server/pkg/types"
)

const (
	updateAttempts = 3
	updateBackoff  = 2 * time.Second
)

// Orchestrator drives the full evaluation pass for one activity. All
// collaborators are injected at construction; the orchestrator holds no
// global state.
type Orchestrator struct {
	db            shared.Database
	activities    shared.ActivityService
	conditions    *conditions.Evaluator
	actions       *actions.Processor
	notifications shared.NotificationService
	pub           shared.Publisher
	store         shared.BlobStore
	bucket        string

	// sleep is swapped out in tests to avoid real backoff waits.
	sleep func(time.Duration)
}

func NewOrchestrator(db shared.Database, activities shared.ActivityService, cond *conditions.Evaluator, proc *actions.Processor, notifications shared.NotificationService, pub shared.Publisher, store shared.BlobStore, bucket string) *Orchestrator {
	return &Orchestrator{
		db:            db,
		activities:    activities,
		conditions:    cond,
		actions:       proc,
		notifications: notifications,
		pub:           pub,
		store:         store,
		bucket:        bucket,
		sleep:         time.Sleep,
	}
}

// ProcessActivity evaluates every active recipe of the user against the
// activity, applies matched recipes sequentially in user-defined order, then
// persists the mutated fields. Recipe failures are best effort and never
// abort the pass; only the initial fetches are fatal.
func (o *Orchestrator) ProcessActivity(ctx context.Context, logger *slog.Logger, userID string, activityID int64) error {
	logger = logger.With("execution_id", uuid.NewString())

	user, err := o.db.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	act, err := o.activities.Fetch(ctx, user, activityID)
	if err != nil {
		return fmt.Errorf("failed to fetch activity %d: %w", activityID, err)
	}
	userRecipes, err := o.db.GetRecipes(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load recipes for user %s: %w", userID, err)
	}
	sort.SliceStable(userRecipes, func(i, j int) bool { return userRecipes[i].Order < userRecipes[j].Order })

	triggered := 0
	for _, recipe := range userRecipes {
		if recipe.Disabled || recipe.Killed {
			continue
		}
		matched, err := o.evaluateRecipe(ctx, logger, user, act, recipe)
		if err != nil {
			logger.Error("Recipe evaluation errored, treating as no-match", "recipe_id", recipe.ID, "error", err)
			continue
		}
		if !matched {
			continue
		}
		triggered++

		// The carried counter is scoped to one recipe; a value left over
		// from a previous recipe's template must not leak into this one's
		// stats.
		act.CounterValue = 0

		results := o.actions.ExecuteAll(ctx, logger, user, act, recipe)
		anyFailed := false
		for _, r := range results {
			if r.Outcome.OK {
				continue
			}
			anyFailed = true
			o.notifyActionFailure(ctx, logger, user, recipe, act, r)
		}

		if err := o.UpdateStats(ctx, logger, user, recipe, act, anyFailed); err != nil {
			logger.Error("Stats update failed", "recipe_id", recipe.ID, "error", err)
		}
	}

	if len(act.UpdatedFields) > 0 {
		if err := o.updateWithRetry(ctx, logger, user, act); err != nil {
			return err
		}
	}

	o.archiveActivity(ctx, logger, user, act)
	o.publishProcessed(ctx, logger, user, act, triggered)
	return nil
}

// evaluateRecipe checks conditions in list order, short-circuiting at the
// first failure. Default-for-sport recipes only run the sport equality check.
func (o *Orchestrator) evaluateRecipe(ctx context.Context, logger *slog.Logger, user *types.UserProfile, act *types.Activity, recipe *types.Recipe) (bool, error) {
	if recipe.DefaultFor != "" {
		return act.Type == recipe.DefaultFor, nil
	}
	for _, cond := range recipe.Conditions {
		ok, err := o.conditions.Check(ctx, logger, user, act, cond)
		if err != nil {
			return false, fmt.Errorf("condition %s %s %s: %w", cond.Property, cond.Operator, cond.Value, err)
		}
		if !ok {
			logger.Debug("Condition failed, recipe rejected",
				"recipe_id", recipe.ID,
				"property", cond.Property,
				"operator", cond.Operator,
				"value", cond.Value,
				"observed", conditions.Observed(act, cond))
			return false, nil
		}
	}
	return true, nil
}

// notifyActionFailure raises one push notification per failed action with the
// recipe title, action type and best-available error message. Skipped
// outcomes are successes and never notify.
func (o *Orchestrator) notifyActionFailure(ctx context.Context, logger *slog.Logger, user *types.UserProfile, recipe *types.Recipe, act *types.Activity, r actions.Result) {
	if o.notifications == nil {
		return
	}
	reason := "unknown error"
	if r.Outcome.Err != nil {
		reason = r.Outcome.Err.Error()
	}
	body := fmt.Sprintf("Action %s failed: %s", r.Action.Type, reason)
	data := map[string]string{
		"recipeId":   recipe.ID,
		"activityId": fmt.Sprintf("%d", act.ID),
	}
	if err := o.notifications.SendPushNotification(ctx, user.ID, recipe.Title, body, user.FcmTokens, data); err != nil {
		logger.Warn("Failure notification could not be delivered", "recipe_id", recipe.ID, "error", err)
	}
}

// updateWithRetry persists the mutated activity fields with a bounded
// fixed-backoff retry; a final failure records the activity for operator
// visibility instead of silently dropping it.
func (o *Orchestrator) updateWithRetry(ctx context.Context, logger *slog.Logger, user *types.UserProfile, act *types.Activity) error {
	var err error
	for attempt := 1; attempt <= updateAttempts; attempt++ {
		err = o.activities.Update(ctx, user, act)
		if err == nil {
			return nil
		}
		logger.Warn("Activity update failed", "activity_id", act.ID, "attempt", attempt, "error", err)
		if attempt < updateAttempts {
			o.sleep(updateBackoff)
		}
	}
	if recErr := o.db.RecordFailedActivity(ctx, user.ID, act.ID, err.Error()); recErr != nil {
		logger.Error("Could not record failed activity", "activity_id", act.ID, "error", recErr)
	}
	return fmt.Errorf("failed to update activity %d after %d attempts: %w", act.ID, updateAttempts, err)
}

// archiveActivity writes the final activity state to blob storage for the
// user-facing processing history. Best effort.
func (o *Orchestrator) archiveActivity(ctx context.Context, logger *slog.Logger, user *types.UserProfile, act *types.Activity) {
	if o.store == nil || o.bucket == "" {
		return
	}
	data, err := act.MarshalCompact()
	if err != nil {
		logger.Warn("Activity archive serialization failed", "activity_id", act.ID, "error", err)
		return
	}
	object := fmt.Sprintf("processed/%s/%d.json", user.ID, act.ID)
	if err := o.store.Write(ctx, o.bucket, object, data); err != nil {
		logger.Warn("Activity archive write failed", "activity_id", act.ID, "error", err)
	}
}

// publishProcessed emits the downstream processed event. Best effort.
func (o *Orchestrator) publishProcessed(ctx context.Context, logger *slog.Logger, user *types.UserProfile, act *types.Activity, triggered int) {
	if o.pub == nil {
		return
	}
	payload := fmt.Sprintf(`{"userId":%q,"activityId":%d,"recipesTriggered":%d,"updatedFields":%d}`,
		user.ID, act.ID, triggered, len(act.UpdatedFields))
	if _, err := o.pub.Publish(ctx, shared.TopicActivityProcessed, []byte(payload)); err != nil {
		logger.Warn("Processed event publish failed", "activity_id", act.ID, "error", err)
	}
}
