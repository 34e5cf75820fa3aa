package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// CollectService triggers collection cycles on the server
type CollectService struct {
	client *Client
}

// Network runs a network inventory cycle and waits for its result
func (s *CollectService) Network(ctx context.Context) (*NetworkCollection, error) {
	var result NetworkCollection
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/collect/network", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Metrics runs a metrics cycle over the last durationMinutes. Zero lets the
// server use its default window.
func (s *CollectService) Metrics(ctx context.Context, durationMinutes int) (*MetricsCollection, error) {
	path := "/api/v1/collect/metrics"
	if durationMinutes > 0 {
		query := url.Values{}
		query.Set("duration", strconv.Itoa(durationMinutes))
		path += "?" + query.Encode()
	}

	var result MetricsCollection
	if err := s.client.doRequest(ctx, http.MethodPost, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
