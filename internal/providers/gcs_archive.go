package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/storage"
)

// ArchiveObjectName returns the object path of a snapshot archive
func ArchiveObjectName(projectID, documentID string) string {
	return fmt.Sprintf("%s/%s.json", projectID, documentID)
}

// GCSArchive writes JSON snapshot archives into a Cloud Storage bucket
type GCSArchive struct {
	client *storage.Client
	bucket string
}

// NewGCSArchive opens a storage client bound to bucket
func NewGCSArchive(ctx context.Context, creds GCPCredentials, bucket string) (*GCSArchive, error) {
	client, err := storage.NewClient(ctx, creds.clientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSArchive{client: client, bucket: bucket}, nil
}

// Put marshals v and uploads it as object
func (a *GCSArchive) Put(ctx context.Context, object string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal archive %s: %w", object, err)
	}

	w := a.client.Bucket(a.bucket).Object(object).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write gs://%s/%s: %w", a.bucket, object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close gs://%s/%s: %w", a.bucket, object, err)
	}
	return nil
}

// Close releases the storage client
func (a *GCSArchive) Close() error {
	return a.client.Close()
}
