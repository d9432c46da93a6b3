package pubsub

import (
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// Event types carried on the activity topics.
const (
	EventTypeActivityUpload    = "com.pacebot.activity.upload"
	EventTypeActivityProcessed = "com.pacebot.activity.processed"
	EventTypeProcessingFailed  = "com.pacebot.activity.failed"

	EventSourceEngine = "urn:pacebot:recipe-engine"
)

// Envelope is the MessagePublishedData wrapper a Pub/Sub-triggered function
// receives as CloudEvent data. Message.Data is base64 on the wire and decoded
// by encoding/json.
type Envelope struct {
	Message struct {
		Data []byte `json:"data"`
	} `json:"message"`
}

// ActivityUploadEvent is the payload that triggers a recipe evaluation pass.
type ActivityUploadEvent struct {
	UserID     string `json:"userId"`
	ActivityID int64  `json:"activityId"`
}

// ActivityProcessedEvent summarizes a finished pass for downstream consumers.
type ActivityProcessedEvent struct {
	UserID           string `json:"userId"`
	ActivityID       int64  `json:"activityId"`
	RecipesTriggered int    `json:"recipesTriggered"`
	UpdatedFields    int    `json:"updatedFields"`
}

// NewCloudEvent creates a standardized CloudEvent v1.0
func NewCloudEvent(source, eventType string, data interface{}) (cloudevents.Event, error) {
	e := cloudevents.NewEvent()
	e.SetSpecVersion("1.0")
	e.SetType(eventType)
	e.SetSource(source)

	if err := e.SetData(cloudevents.ApplicationJSON, data); err != nil {
		return e, err
	}

	return e, nil
}
