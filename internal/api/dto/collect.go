package dto

import (
	"github.com/LizBugFree/network-monitor-demo/internal/domain/network"
	"github.com/LizBugFree/network-monitor-demo/internal/services"
)

// StatusSuccess marks a completed collection cycle
const StatusSuccess = "success"

// NetworkCollectionResponse is the body of a successful network trigger
type NetworkCollectionResponse struct {
	Status             string                 `json:"status"`
	Timestamp          string                 `json:"timestamp"`
	ResourcesCollected network.ResourceCounts `json:"resources_collected"`
	Insights           *network.Insights      `json:"insights"`
	FailedSources      []string               `json:"failed_sources"`
}

// NewNetworkCollectionResponse renders a network cycle result
func NewNetworkCollectionResponse(res *services.NetworkCycleResult) NetworkCollectionResponse {
	return NetworkCollectionResponse{
		Status:             StatusSuccess,
		Timestamp:          res.Timestamp,
		ResourcesCollected: res.ResourcesCollected,
		Insights:           res.Insights,
		FailedSources:      res.FailedSources,
	}
}

// MetricsCollectionResponse is the body of a successful metrics trigger
type MetricsCollectionResponse struct {
	Status                string         `json:"status"`
	Timestamp             string         `json:"timestamp"`
	DurationMinutes       int            `json:"duration_minutes"`
	TotalMetricsCollected int            `json:"total_metrics_collected"`
	MetricsBreakdown      map[string]int `json:"metrics_breakdown"`
	FailedSources         []string       `json:"failed_sources"`
}

// NewMetricsCollectionResponse renders a metrics cycle result
func NewMetricsCollectionResponse(res *services.MetricsCycleResult) MetricsCollectionResponse {
	return MetricsCollectionResponse{
		Status:                StatusSuccess,
		Timestamp:             res.Timestamp,
		DurationMinutes:       res.DurationMinutes,
		TotalMetricsCollected: res.TotalMetricsCollected,
		MetricsBreakdown:      res.MetricsBreakdown,
		FailedSources:         res.FailedSources,
	}
}

// MissingProjectResponse is returned when no project id is configured
type MissingProjectResponse struct {
	Error string `json:"error"`
}

// DocumentResponse is a stored summary document with its id
type DocumentResponse struct {
	ID   string         `json:"id"`
	Data map[string]any `json:"data"`
}

// RecordsResponse lists the records one cycle wrote to a collection
type RecordsResponse struct {
	Collection string             `json:"collection"`
	Timestamp  string             `json:"timestamp"`
	Count      int                `json:"count"`
	Records    []DocumentResponse `json:"records"`
}
