// Package firestore is the typed document-store layer: one generic Collection
// per domain type, with explicit converters so field names stay stable even
// if the Go structs change.
package firestore

import (
	"cloud.google.com/go/firestore"

	shared "github.com/pacebot/server/pkg"
	"github.com/pacebot/server/pkg/types"
)

type Client struct {
	fs *firestore.Client
}

func NewClient(client *firestore.Client) *Client {
	return &Client{fs: client}
}

func (c *Client) Close() error {
	return c.fs.Close()
}

func (c *Client) Users() *Collection[types.UserProfile] {
	return &Collection[types.UserProfile]{
		Ref:           c.fs.Collection(shared.CollectionUsers),
		ToFirestore:   UserToFirestore,
		FromFirestore: FirestoreToUser,
	}
}

// UserRecipes are sub-collections of Users: users/{uid}/recipes/{id}
func (c *Client) UserRecipes(userID string) *Collection[types.Recipe] {
	return &Collection[types.Recipe]{
		Ref:           c.fs.Collection(shared.CollectionUsers).Doc(userID).Collection(shared.SubcollectionRecipes),
		ToFirestore:   RecipeToFirestore,
		FromFirestore: FirestoreToRecipe,
	}
}

// RecipeStats is a top-level collection keyed "{userId}-{recipeId}" so a
// single range scan can purge archived documents across users.
func (c *Client) RecipeStats() *Collection[types.RecipeStats] {
	return &Collection[types.RecipeStats]{
		Ref:           c.fs.Collection(shared.CollectionRecipeStats),
		ToFirestore:   RecipeStatsToFirestore,
		FromFirestore: FirestoreToRecipeStats,
	}
}

func (c *Client) GearWear() *Collection[types.GearWear] {
	return &Collection[types.GearWear]{
		Ref:           c.fs.Collection(shared.CollectionGearWear),
		ToFirestore:   GearWearToFirestore,
		FromFirestore: FirestoreToGearWear,
	}
}

// Raw exposes the underlying client for queries the typed layer doesn't
// cover (field-predicate deletes, failed-activity records).
func (c *Client) Raw() *firestore.Client {
	return c.fs
}
