package database

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	shared "github.com/pacebot/server/pkg"
	storage "github.com/pacebot/server/pkg/storage/firestore"
	"github.com/pacebot/server/pkg/types"
)

// FirestoreAdapter provides database operations using Firestore.
// It wraps our typed storage client.
type FirestoreAdapter struct {
	Client  *firestore.Client
	storage *storage.Client // internal typed wrapper
}

func NewFirestoreAdapter(client *firestore.Client) *FirestoreAdapter {
	return &FirestoreAdapter{
		Client:  client,
		storage: storage.NewClient(client),
	}
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func (a *FirestoreAdapter) GetUser(ctx context.Context, id string) (*types.UserProfile, error) {
	return a.storage.Users().Doc(id).Get(ctx)
}

func (a *FirestoreAdapter) UpdateUser(ctx context.Context, id string, data map[string]interface{}) error {
	return a.storage.Users().Doc(id).Update(ctx, data)
}

func (a *FirestoreAdapter) GetRecipes(ctx context.Context, userID string) ([]*types.Recipe, error) {
	return a.storage.UserRecipes(userID).All(ctx)
}

// GetRecipeStats returns nil without error when the recipe never triggered.
func (a *FirestoreAdapter) GetRecipeStats(ctx context.Context, userID, recipeID string) (*types.RecipeStats, error) {
	stats, err := a.storage.RecipeStats().Doc(types.StatsID(userID, recipeID)).Get(ctx)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (a *FirestoreAdapter) SetRecipeStats(ctx context.Context, stats *types.RecipeStats) error {
	return a.storage.RecipeStats().Doc(stats.ID).Set(ctx, stats)
}

func (a *FirestoreAdapter) ArchiveRecipeStats(ctx context.Context, userID, recipeID string) error {
	return a.storage.RecipeStats().Doc(types.StatsID(userID, recipeID)).Update(ctx, map[string]interface{}{
		"archived_at": time.Now().UTC(),
	})
}

// PurgeArchivedStats deletes stats archived before the cutoff, returning the
// number of removed documents.
func (a *FirestoreAdapter) PurgeArchivedStats(ctx context.Context, olderThan time.Time) (int, error) {
	iter := a.Client.Collection(shared.CollectionRecipeStats).
		Where("archived_at", "<", olderThan).
		Documents(ctx)
	defer iter.Stop()

	purged := 0
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return purged, err
		}
		if _, err := snap.Ref.Delete(ctx); err != nil {
			return purged, err
		}
		purged++
	}
	return purged, nil
}

// GetGearWear returns nil without error when no wear record exists yet.
func (a *FirestoreAdapter) GetGearWear(ctx context.Context, userID, gearID string) (*types.GearWear, error) {
	gw, err := a.storage.GearWear().Doc(gearID).Get(ctx)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return gw, nil
}

func (a *FirestoreAdapter) SetGearWear(ctx context.Context, gw *types.GearWear) error {
	return a.storage.GearWear().Doc(gw.ID).Set(ctx, gw)
}

// RecordFailedActivity writes a failed-to-process marker for operator
// dashboards.
func (a *FirestoreAdapter) RecordFailedActivity(ctx context.Context, userID string, activityID int64, reason string) error {
	_, err := a.Client.Collection(shared.CollectionFailed).NewDoc().Set(ctx, map[string]interface{}{
		"user_id":     userID,
		"activity_id": activityID,
		"reason":      reason,
		"failed_at":   time.Now().UTC(),
	})
	return err
}
