// recipe-debug evaluates a recipe JSON file against an activity JSON file and
// prints the per-condition verdicts. External lookups (weather, paired
// devices, music) are stubbed; conditions that need them report their stubbed
// result.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/pacebot/server/pkg/recipes"
	"github.com/pacebot/server/pkg/recipes/conditions"
	"github.com/pacebot/server/pkg/testing/mocks"
	"github.com/pacebot/server/pkg/types"
)

func main() {
	recipeFile := flag.String("recipe", "", "Path to recipe JSON file")
	activityFile := flag.String("activity", "", "Path to activity JSON file")
	userFile := flag.String("user", "", "Optional path to user profile JSON file")
	flag.Parse()

	if *recipeFile == "" || *activityFile == "" {
		flag.Usage()
		os.Exit(1)
	}

	recipeData, err := os.ReadFile(*recipeFile)
	if err != nil {
		log.Fatalf("Failed to read recipe file: %v", err)
	}
	recipe, err := recipes.ParseRecipe(recipeData)
	if err != nil {
		log.Fatalf("Recipe is invalid: %v", err)
	}

	activityData, err := os.ReadFile(*activityFile)
	if err != nil {
		log.Fatalf("Failed to read activity file: %v", err)
	}
	var act types.Activity
	if err := json.Unmarshal(activityData, &act); err != nil {
		log.Fatalf("Failed to parse activity JSON: %v", err)
	}

	user := &types.UserProfile{ID: "debug-user", IsPro: true}
	if *userFile != "" {
		userData, err := os.ReadFile(*userFile)
		if err != nil {
			log.Fatalf("Failed to read user file: %v", err)
		}
		if err := json.Unmarshal(userData, user); err != nil {
			log.Fatalf("Failed to parse user JSON: %v", err)
		}
	}

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	evaluator := conditions.New(
		&mocks.MockWeatherProvider{},
		&mocks.MockDeviceMatcher{},
		&mocks.MockMusicService{},
		&mocks.MockActivityService{},
	)

	fmt.Printf("Recipe: %s (%d conditions, %d actions)\n", recipe.Title, len(recipe.Conditions), len(recipe.Actions))

	if recipe.DefaultFor != "" {
		matched := act.Type == recipe.DefaultFor
		fmt.Printf("Default-for recipe: sport %q vs activity %q -> %v\n", recipe.DefaultFor, act.Type, matched)
		os.Exit(exitCode(matched))
	}

	allMatched := true
	for i, cond := range recipe.Conditions {
		ok, err := evaluator.Check(ctx, logger, user, &act, cond)
		verdict := "MATCH"
		if err != nil {
			verdict = fmt.Sprintf("ERROR (%v)", err)
			allMatched = false
		} else if !ok {
			verdict = "NO MATCH"
			allMatched = false
		}
		fmt.Printf("  [%d] %s %s %q: %s (observed %s)\n",
			i, cond.Property, cond.Operator, cond.Value, verdict, conditions.Observed(&act, cond))
	}

	if allMatched {
		fmt.Println("Recipe would trigger.")
	} else {
		fmt.Println("Recipe would NOT trigger.")
	}
	os.Exit(exitCode(allMatched))
}

func exitCode(matched bool) int {
	if matched {
		return 0
	}
	return 1
}
