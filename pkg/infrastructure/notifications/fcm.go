// Package notifications delivers recipe alerts (failed actions, kill
// switches) to the user's registered devices over Firebase Cloud Messaging.
package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"

	shared "github.com/pacebot/server/pkg"
)

type PushService struct {
	client *messaging.Client
	fs     *firestore.Client
}

func NewPushService(ctx context.Context, app *firebase.App, fs *firestore.Client) (*PushService, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}
	return &PushService{client: client, fs: fs}, nil
}

// SendPushNotification multicasts one alert to every registered device token.
// A user without tokens is a silent no-op; recipe processing never depends on
// notification delivery.
func (s *PushService) SendPushNotification(ctx context.Context, userID string, title, body string, tokens []string, data map[string]string) error {
	if len(tokens) == 0 {
		slog.Debug("No device tokens, skipping alert", "user_id", userID)
		return nil
	}

	slog.Info("Sending recipe alert", "user_id", userID, "token_count", len(tokens), "title", title)

	response, err := s.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	})
	if err != nil {
		return fmt.Errorf("failed to send multicast message: %w", err)
	}

	if response.FailureCount > 0 {
		slog.Warn("Some alerts failed to deliver",
			"user_id", userID,
			"failure_count", response.FailureCount,
			"success_count", response.SuccessCount,
		)
		s.pruneStaleTokens(ctx, userID, tokens, response.Responses)
	}
	return nil
}

// pruneStaleTokens removes tokens FCM reports as unregistered, so an
// uninstalled app stops accumulating delivery failures.
func (s *PushService) pruneStaleTokens(ctx context.Context, userID string, tokens []string, responses []*messaging.SendResponse) {
	var stale []interface{}
	for i, resp := range responses {
		if resp.Error != nil && messaging.IsRegistrationTokenNotRegistered(resp.Error) {
			stale = append(stale, tokens[i])
		}
	}
	if len(stale) == 0 {
		return
	}

	slog.Info("Pruning stale device tokens", "user_id", userID, "count", len(stale))
	_, err := s.fs.Collection(shared.CollectionUsers).Doc(userID).Update(ctx, []firestore.Update{
		{Path: "fcm_tokens", Value: firestore.ArrayRemove(stale...)},
	})
	if err != nil {
		slog.Error("Failed to prune stale device tokens", "user_id", userID, "error", err)
	}
}

// LogNotifier logs alerts instead of delivering them; used when Firebase is
// not configured.
type LogNotifier struct{}

func (n *LogNotifier) SendPushNotification(ctx context.Context, userID string, title, body string, tokens []string, data map[string]string) error {
	slog.Info("Alert suppressed", "user_id", userID, "title", title, "body", body)
	return nil
}
