package recipes

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pacebot/server/pkg/types"
)

// UpdateStats records a recipe trigger. Activity IDs are deduplicated and the
// list is bounded (oldest evicted); the counter and failure-streak logic run
// on every call regardless of dedup. Persistence is a merge upsert with
// last-writer-wins semantics, which is acceptable because a (user, activity)
// pair is not evaluated concurrently in normal operation.
func (o *Orchestrator) UpdateStats(ctx context.Context, logger *slog.Logger, user *types.UserProfile, recipe *types.Recipe, act *types.Activity, anyFailed bool) error {
	stats, err := o.db.GetRecipeStats(ctx, user.ID, recipe.ID)
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}
	if stats == nil {
		stats = &types.RecipeStats{
			ID:       types.StatsID(user.ID, recipe.ID),
			UserID:   user.ID,
			RecipeID: recipe.ID,
		}
	}

	if !stats.HasActivity(act.ID) {
		stats.ActivityIDs = append(stats.ActivityIDs, act.ID)
		if len(stats.ActivityIDs) > types.MaxStatsActivities {
			stats.ActivityIDs = stats.ActivityIDs[len(stats.ActivityIDs)-types.MaxStatsActivities:]
		}
	}

	// A counter template tag already derived the value for this activity;
	// otherwise the counter simply advances.
	if act.CounterValue > 0 {
		stats.Counter = act.CounterValue
	} else {
		stats.Counter++
	}

	if anyFailed {
		stats.FailureStreak++
		logger.Warn("Recipe pass had failed actions", "recipe_id", recipe.ID, "failure_streak", stats.FailureStreak)
	} else {
		stats.FailureStreak = 0
	}
	stats.LastTrigger = time.Now().UTC()

	if err := o.db.SetRecipeStats(ctx, stats); err != nil {
		return fmt.Errorf("failed to persist stats: %w", err)
	}
	return nil
}

// ArchiveStats marks the stats document of a deleted recipe for later purge.
func (o *Orchestrator) ArchiveStats(ctx context.Context, userID, recipeID string) error {
	return o.db.ArchiveRecipeStats(ctx, userID, recipeID)
}

// PurgeArchivedStats permanently deletes stats archived before the cutoff and
// returns the number of removed documents.
func (o *Orchestrator) PurgeArchivedStats(ctx context.Context, olderThan time.Time) (int, error) {
	return o.db.PurgeArchivedStats(ctx, olderThan)
}
