package activityprocessor

import (
	"encoding/json"
	"testing"

	"github.com/cloudevents/sdk-go/v2/event"

	infrapubsub "github.com/pacebot/server/pkg/infrastructure/pubsub"
)

func envelopeEvent(t *testing.T, inner []byte) event.Event {
	t.Helper()

	var msg infrapubsub.Envelope
	msg.Message.Data = inner

	e := event.New()
	e.SetID("evt-1")
	e.SetType("google.cloud.pubsub.topic.v1.messagePublished")
	e.SetSource("//pubsub")
	if err := e.SetData(event.ApplicationJSON, msg); err != nil {
		t.Fatalf("failed to build event: %v", err)
	}
	return e
}

func TestDecodeUploadEvent(t *testing.T) {
	inner, err := json.Marshal(infrapubsub.ActivityUploadEvent{UserID: "u1", ActivityID: 42})
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}

	payload, err := decodeUploadEvent(envelopeEvent(t, inner))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.UserID != "u1" || payload.ActivityID != 42 {
		t.Errorf("payload should survive the envelope, got %+v", payload)
	}
}

func TestDecodeUploadEventMalformedPayload(t *testing.T) {
	if _, err := decodeUploadEvent(envelopeEvent(t, []byte("not json"))); err == nil {
		t.Error("expected an error for a non-JSON message body")
	}
}
