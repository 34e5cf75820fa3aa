package client

import (
	"context"
	"net/http"
	"net/url"
)

// SnapshotService reads persisted summaries
type SnapshotService struct {
	client *Client
}

// LatestInventory returns the newest network inventory summary. An empty
// projectID uses the server's project.
func (s *SnapshotService) LatestInventory(ctx context.Context, projectID string) (*Document, error) {
	return s.latest(ctx, "/api/v1/snapshots/latest", projectID)
}

// LatestMetricsSummary returns the newest metrics summary
func (s *SnapshotService) LatestMetricsSummary(ctx context.Context, projectID string) (*Document, error) {
	return s.latest(ctx, "/api/v1/metrics/summaries/latest", projectID)
}

// Records returns the records the cycle at timestamp wrote to collection
func (s *SnapshotService) Records(ctx context.Context, collection, timestamp, projectID string) (*CycleRecords, error) {
	q := url.Values{"timestamp": {timestamp}}
	if projectID != "" {
		q.Set("project_id", projectID)
	}
	path := "/api/v1/collections/" + url.PathEscape(collection) + "/records?" + q.Encode()

	var resp envelope[CycleRecords]
	if err := s.client.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (s *SnapshotService) latest(ctx context.Context, path, projectID string) (*Document, error) {
	if projectID != "" {
		path += "?" + url.Values{"project_id": {projectID}}.Encode()
	}

	var resp envelope[Document]
	if err := s.client.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
