// Package activityprocessor is the Cloud Function that runs the recipe
// engine. It is triggered by Pub/Sub messages on the activity upload topic.
package activityprocessor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/pacebot/server/pkg/bootstrap"
	"github.com/pacebot/server/pkg/infrastructure/httpclient"
	infrapubsub "github.com/pacebot/server/pkg/infrastructure/pubsub"
	"github.com/pacebot/server/pkg/infrastructure/sentry"
	"github.com/pacebot/server/pkg/integrations/ai"
	"github.com/pacebot/server/pkg/integrations/devices"
	"github.com/pacebot/server/pkg/integrations/geocode"
	"github.com/pacebot/server/pkg/integrations/spotify"
	"github.com/pacebot/server/pkg/integrations/strava"
	"github.com/pacebot/server/pkg/integrations/weather"
	"github.com/pacebot/server/pkg/recipes"
	"github.com/pacebot/server/pkg/recipes/actions"
	"github.com/pacebot/server/pkg/recipes/conditions"
	"github.com/pacebot/server/pkg/recipes/fortune"
)

var (
	svc          *bootstrap.Service
	orchestrator *recipes.Orchestrator
	svcOnce      sync.Once
	svcErr       error
)

func init() {
	functions.CloudEvent("ProcessActivity", ProcessActivity)
}

func initService(ctx context.Context) error {
	svcOnce.Do(func() {
		svc, svcErr = bootstrap.NewService(ctx)
		if svcErr != nil {
			return
		}

		svcErr = sentry.Init(sentry.Config{
			DSN:         os.Getenv("SENTRY_DSN"),
			Environment: os.Getenv("ENVIRONMENT"),
			ServerName:  "activity-processor",
		}, bootstrap.NewLogger("sentry"))
		if svcErr != nil {
			return
		}

		platform := strava.NewClient(svc.DB)
		weatherProvider := weather.New()
		music := spotify.NewClient(svc.DB)
		matcher := devices.NewMatcher(svc.DB)

		evaluator := conditions.New(weatherProvider, matcher, music, platform)
		processor := &actions.Processor{
			Database: svc.DB,
			Weather:  weatherProvider,
			Geocoder: geocode.New(svc.Config.GeocoderAPIKey),
			Music:    music,
			Devices:  matcher,
			AI:       ai.NewGenerator(svc.Config.GeminiAPIKey),
			Webhooks: httpclient.New(),
			Fortune:  fortune.New(nil),
		}

		orchestrator = recipes.NewOrchestrator(
			svc.DB, platform, evaluator, processor,
			svc.Notifications, svc.Pub, svc.Store, svc.Config.GCSArtifactBucket,
		)
	})
	return svcErr
}

// decodeUploadEvent unwraps the Pub/Sub MessagePublishedData envelope a
// topic-triggered function receives and decodes the upload payload inside it.
func decodeUploadEvent(e cloudevents.Event) (infrapubsub.ActivityUploadEvent, error) {
	var msg infrapubsub.Envelope
	if err := json.Unmarshal(e.Data(), &msg); err != nil {
		return infrapubsub.ActivityUploadEvent{}, fmt.Errorf("pubsub envelope: %w", err)
	}
	var payload infrapubsub.ActivityUploadEvent
	if err := json.Unmarshal(msg.Message.Data, &payload); err != nil {
		return infrapubsub.ActivityUploadEvent{}, fmt.Errorf("upload payload: %w", err)
	}
	return payload, nil
}

// ProcessActivity is the entry point.
func ProcessActivity(ctx context.Context, e cloudevents.Event) error {
	if err := initService(ctx); err != nil {
		return fmt.Errorf("service init failed: %v", err)
	}

	logger := bootstrap.NewLogger("activity-processor")
	defer sentry.RecoverAndCapture(logger)
	defer sentry.Flush(2 * time.Second)

	payload, err := decodeUploadEvent(e)
	if err != nil {
		// A malformed message will never parse; surface it without retrying.
		logger.Error("Unparseable upload event, dropping", "event_id", e.ID(), "error", err)
		sentry.CaptureException(err, map[string]interface{}{"event_id": e.ID()}, logger)
		return nil
	}
	if payload.UserID == "" || payload.ActivityID == 0 {
		logger.Error("Upload event missing user or activity, dropping", "event_id", e.ID())
		return nil
	}

	logger = logger.With("user_id", payload.UserID, "activity_id", payload.ActivityID)
	logger.Info("Processing uploaded activity")

	if err := orchestrator.ProcessActivity(ctx, logger, payload.UserID, payload.ActivityID); err != nil {
		logger.Error("Activity processing failed", "error", err)
		sentry.CaptureException(err, map[string]interface{}{
			"user_id":     payload.UserID,
			"activity_id": payload.ActivityID,
		}, logger)
		return err
	}
	return nil
}
