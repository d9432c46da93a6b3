// Package storage persists processed-activity snapshots to Cloud Storage.
// Each evaluation pass writes one JSON object per activity; the history
// surface reads them directly through signed URLs, so the engine only writes.
package storage

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
)

type ArtifactStore struct {
	Client *storage.Client
}

func (s *ArtifactStore) Write(ctx context.Context, bucket, object string, data []byte) error {
	wc := s.Client.Bucket(bucket).Object(object).NewWriter(ctx)
	wc.ContentType = "application/json"
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to write artifact %s/%s: %w", bucket, object, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to finalize artifact %s/%s: %w", bucket, object, err)
	}
	return nil
}
