// Package ai generates activity text with Google Gemini. Used by the
// generateDescription and generateInsights actions, both PRO-tier features.
package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/pacebot/server/pkg/types"
)

const modelName = "gemini-2.0-flash"

// Generator implements shared.AIGenerator.
type Generator struct {
	apiKey string
}

func NewGenerator(apiKey string) *Generator {
	return &Generator{apiKey: apiKey}
}

// GenerateActivityText produces a description or a set of training insights
// for the activity. mode is "description" or "insights"; humour biases the
// tone ("boring", "quote", anything else gets the default playful voice).
func (g *Generator) GenerateActivityText(ctx context.Context, user *types.UserProfile, activity *types.Activity, mode string, humour string) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("generative model not configured")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create generative client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.7)
	model.SetTopP(0.9)
	model.SetMaxOutputTokens(300)

	prompt := buildPrompt(mode, humour, activityContext(user, activity))

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out.WriteString(string(text))
		}
	}
	return strings.TrimSpace(out.String()), nil
}

func buildPrompt(mode, humour, context string) string {
	tone := "playful and encouraging"
	switch humour {
	case "boring":
		tone = "dry and matter-of-fact, no exclamation marks"
	case "quote":
		tone = "built around a fitting motivational quote"
	}

	base := fmt.Sprintf(`You are a fitness app assistant writing for an athlete's activity feed.

Activity:
%s

Tone: %s.
Reference specific numbers from the activity, never invent ones that are not listed.
`, context, tone)

	if mode == "insights" {
		return base + `
Write 2-3 short training insights about this workout (pacing, effort distribution, recovery).
Respond with ONLY the insights, one per line.`
	}
	return base + `
Write an engaging description for this workout, 2-3 sentences max.
Respond with ONLY the description, nothing else.`
}

func activityContext(user *types.UserProfile, act *types.Activity) string {
	var parts []string
	add := func(format string, args ...interface{}) {
		parts = append(parts, fmt.Sprintf(format, args...))
	}

	add("Type: %s", act.Type)
	if act.Name != "" {
		add("Original name: %s", act.Name)
	}
	if act.Distance > 0 {
		if user.Preferences.ImperialUnits {
			add("Distance: %.1f mi", act.Distance*0.621371)
		} else {
			add("Distance: %.1f km", act.Distance)
		}
	}
	if act.MovingTime > 0 {
		add("Moving time: %d minutes", act.MovingTime/60)
	}
	if act.ElevationGain > 0 {
		add("Elevation gain: %.0f m", act.ElevationGain)
	}
	if act.SpeedAvg > 0 && act.Type.Category() == types.CategoryRide {
		add("Average speed: %.1f km/h", act.SpeedAvg)
	}
	if act.PaceAvg > 0 && act.Type.Category() == types.CategoryRun {
		add("Average pace: %d:%02d /km", int(act.PaceAvg)/60, int(act.PaceAvg)%60)
	}
	if act.HrAvg > 0 {
		add("Average heart rate: %.0f bpm", act.HrAvg)
	}
	if act.WattsAvg > 0 {
		add("Average power: %.0f W", act.WattsAvg)
	}
	if act.Calories > 0 {
		add("Calories: %.0f", act.Calories)
	}
	if len(act.NewRecords) > 0 {
		add("New personal records: %s", strings.Join(act.NewRecords, ", "))
	}
	if act.Commute {
		add("This was a commute")
	}
	return strings.Join(parts, "\n")
}
